package videokb

import (
	"context"
	"errors"
	"strings"
	"testing"

	"video-kb/shared/logger"
)

func TestAnswerWithoutVideos(t *testing.T) {
	d := newTestDeps(t)
	a := NewAnswerer(d.store, d.completer, AnswerConfig{}, logger.Nop())

	answer, err := a.Answer(context.Background(), "anything?")
	if err != nil {
		t.Fatalf("Answer() error: %v", err)
	}
	if answer.Text != NoVideosAnswer || !answer.NoVideos {
		t.Errorf("Answer() = %+v", answer)
	}
	if d.completer.calls != 0 {
		t.Errorf("completer called %d times, want 0", d.completer.calls)
	}
}

func TestAnswerPromptIncludesEverySummaryInOrder(t *testing.T) {
	d := newTestDeps(t)
	insertVideo(t, d.store, "a", "A", "cats are mammals")
	insertVideo(t, d.store, "b", "B", "dogs are mammals")

	a := NewAnswerer(d.store, d.completer, AnswerConfig{}, logger.Nop())
	answer, err := a.Answer(context.Background(), "what are cats?")
	if err != nil {
		t.Fatalf("Answer() error: %v", err)
	}
	if answer.Text != "It is about commitment." || answer.Sources != 2 || answer.HTML != "" {
		t.Errorf("Answer() = %+v", answer)
	}

	want := "Video: A\nSummary: cats are mammals\n\n" +
		"Video: B\nSummary: dogs are mammals\n\n" +
		"Question: what are cats?\n\nAnswer:"
	if d.completer.last.User != want {
		t.Errorf("prompt = %q\nwant   %q", d.completer.last.User, want)
	}

	prompt := d.completer.last.User
	a1, b1, q := strings.Index(prompt, "Video: A"), strings.Index(prompt, "Video: B"), strings.Index(prompt, "what are cats?")
	if !(a1 >= 0 && a1 < b1 && b1 < q) {
		t.Errorf("blocks out of order in prompt %q", prompt)
	}
	if d.completer.last.MaxTokens != 500 {
		t.Errorf("MaxTokens = %d, want 500", d.completer.last.MaxTokens)
	}
	if !strings.Contains(d.completer.last.System, "comparing") {
		t.Errorf("system prompt = %q", d.completer.last.System)
	}
}

func TestAnswerErrors(t *testing.T) {
	d := newTestDeps(t)
	insertVideo(t, d.store, "a", "A", "cats are mammals")

	a := NewAnswerer(d.store, d.completer, AnswerConfig{}, logger.Nop())
	if _, err := a.Answer(context.Background(), "   "); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("Answer(blank) error = %v, want ErrEmptyQuestion", err)
	}
	if d.completer.calls != 0 {
		t.Error("completer called for a blank question")
	}

	cause := errors.New("rate limited")
	d.completer.err = cause
	_, err := a.Answer(context.Background(), "what are cats?")
	if !errors.Is(err, ErrAnswerGenerationFailed) || !errors.Is(err, cause) {
		t.Errorf("Answer() error = %v, want ErrAnswerGenerationFailed wrapping cause", err)
	}
}

func TestAnswerRendersMarkdown(t *testing.T) {
	d := newTestDeps(t)
	insertVideo(t, d.store, "a", "A", "cats are mammals")
	d.completer.response = "Cats are **mammals**.\n\n- Video A"

	a := NewAnswerer(d.store, d.completer, AnswerConfig{MaxTokens: 250, RenderMarkdown: true}, logger.Nop())
	answer, err := a.Answer(context.Background(), "what are cats?")
	if err != nil {
		t.Fatalf("Answer() error: %v", err)
	}
	if answer.Text != d.completer.response {
		t.Errorf("Text = %q, want raw model output", answer.Text)
	}
	if !strings.Contains(answer.HTML, "<strong>mammals</strong>") || !strings.Contains(answer.HTML, "<li>Video A</li>") {
		t.Errorf("HTML = %q", answer.HTML)
	}
	if d.completer.last.MaxTokens != 250 {
		t.Errorf("MaxTokens = %d, want 250", d.completer.last.MaxTokens)
	}
}
