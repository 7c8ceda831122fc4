package videokb

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"video-kb/shared/logger"
	"video-kb/shared/youtube"

	"github.com/gin-gonic/gin"
)

func newTestAPI(t *testing.T, d *testDeps, cfg AnswerConfig) *API {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewAPI(d.service(cfg), d.monitor, logger.Nop())
}

func doRequest(t *testing.T, api *API, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	api.Handler().ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("invalid JSON from %s %s: %v", method, path, err)
		}
	}
	return w, out
}

func TestAddVideoRoute(t *testing.T) {
	d := newTestDeps(t)
	api := newTestAPI(t, d, AnswerConfig{})

	w, body := doRequest(t, api, http.MethodPost, "/add_video", `{"url":"https://youtu.be/abc123"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("first add = %d %v", w.Code, body)
	}
	if body["title"] != "Rick Astley - Never Gonna Give You Up" || body["message"] != "Video processed and added successfully" {
		t.Errorf("first add body = %v", body)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Error("response lacks a request id")
	}

	w, body = doRequest(t, api, http.MethodPost, "/add_video", `{"url":"https://www.youtube.com/watch?v=abc123"}`)
	if w.Code != http.StatusOK || body["message"] != "Video already exists in database" {
		t.Errorf("duplicate add = %d %v", w.Code, body)
	}
}

func TestAddVideoRouteErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(d *testDeps)
		wantStatus int
		wantKey    string
		wantValue  string
	}{
		{name: "Not JSON", body: "url=x", wantStatus: http.StatusBadRequest, wantKey: "error", wantValue: "Missing JSON in request"},
		{name: "Missing url", body: `{"link":"x"}`, wantStatus: http.StatusBadRequest, wantKey: "error", wantValue: "Missing 'url' in JSON data"},
		{name: "Invalid url", body: `{"url":"https://vimeo.com/1"}`, wantStatus: http.StatusBadRequest, wantKey: "error", wantValue: "Invalid YouTube URL"},
		{
			name:       "No transcript",
			body:       `{"url":"https://youtu.be/nocaps"}`,
			setup:      func(d *testDeps) { d.fetcher.err = youtube.ErrTranscriptUnavailable },
			wantStatus: http.StatusBadRequest,
			wantKey:    "message",
			wantValue:  "Couldn't retrieve or process transcript",
		},
		{
			name:       "Summarization failed",
			body:       `{"url":"https://youtu.be/quota"}`,
			setup:      func(d *testDeps) { d.summarizer.err = errors.New("quota") },
			wantStatus: http.StatusBadRequest,
			wantKey:    "message",
			wantValue:  "Couldn't retrieve or process transcript",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDeps(t)
			if tt.setup != nil {
				tt.setup(d)
			}
			api := newTestAPI(t, d, AnswerConfig{})

			w, body := doRequest(t, api, http.MethodPost, "/add_video", tt.body)
			if w.Code != tt.wantStatus || body[tt.wantKey] != tt.wantValue {
				t.Errorf("add_video = %d %v", w.Code, body)
			}
		})
	}
}

func TestAskQuestionRoute(t *testing.T) {
	d := newTestDeps(t)
	api := newTestAPI(t, d, AnswerConfig{RenderMarkdown: true})

	w, body := doRequest(t, api, http.MethodPost, "/ask_question", `{"question":"what is it about?"}`)
	if w.Code != http.StatusOK || body["answer"] != NoVideosAnswer {
		t.Errorf("empty store answer = %d %v", w.Code, body)
	}

	insertVideo(t, d.store, "a", "A", "a song about commitment")
	w, body = doRequest(t, api, http.MethodPost, "/ask_question", `{"question":"what is it about?"}`)
	if w.Code != http.StatusOK || body["answer"] != "It is about commitment." {
		t.Errorf("answer = %d %v", w.Code, body)
	}
	if html, _ := body["html"].(string); !strings.Contains(html, "<p>It is about commitment.</p>") {
		t.Errorf("html = %v", body["html"])
	}

	d.completer.err = errors.New("upstream 503")
	w, body = doRequest(t, api, http.MethodPost, "/ask_question", `{"question":"what is it about?"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("failed answer status = %d", w.Code)
	}
	if msg, _ := body["error"].(string); !strings.HasPrefix(msg, "Error processing question: ") || !strings.Contains(msg, "upstream 503") {
		t.Errorf("error = %q", msg)
	}

	w, body = doRequest(t, api, http.MethodPost, "/ask_question", `{}`)
	if w.Code != http.StatusBadRequest || body["error"] != "Missing 'question' in JSON data" {
		t.Errorf("missing question = %d %v", w.Code, body)
	}
	w, _ = doRequest(t, api, http.MethodPost, "/ask_question", `{"question":""}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty question status = %d", w.Code)
	}
}

func TestGetAndDeleteVideosRoutes(t *testing.T) {
	d := newTestDeps(t)
	api := newTestAPI(t, d, AnswerConfig{})

	w, body := doRequest(t, api, http.MethodGet, "/get_videos", "")
	if videos, ok := body["videos"].([]any); w.Code != http.StatusOK || !ok || len(videos) != 0 {
		t.Errorf("empty listing = %d %v", w.Code, body)
	}

	first := insertVideo(t, d.store, "a", "A", "s")
	insertVideo(t, d.store, "b", "B", "s")

	_, body = doRequest(t, api, http.MethodGet, "/get_videos", "")
	videos, _ := body["videos"].([]any)
	if len(videos) != 2 {
		t.Fatalf("listing = %v", body)
	}
	entry, _ := videos[0].(map[string]any)
	if entry["title"] != "A" || entry["id"] != float64(first.ID) {
		t.Errorf("first entry = %v", entry)
	}

	path := "/delete_video/" + strconv.FormatInt(first.ID, 10)
	w, body = doRequest(t, api, http.MethodDelete, path, "")
	if w.Code != http.StatusOK || body["message"] != "Video deleted successfully" {
		t.Errorf("delete = %d %v", w.Code, body)
	}
	w, body = doRequest(t, api, http.MethodDelete, path, "")
	if w.Code != http.StatusNotFound || body["error"] != "Video not found" {
		t.Errorf("second delete = %d %v", w.Code, body)
	}
	w, _ = doRequest(t, api, http.MethodDelete, "/delete_video/abc", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id delete = %d", w.Code)
	}
}

func TestStatusRouteCountsIngests(t *testing.T) {
	d := newTestDeps(t)
	api := newTestAPI(t, d, AnswerConfig{})

	doRequest(t, api, http.MethodPost, "/add_video", `{"url":"https://youtu.be/one"}`)
	doRequest(t, api, http.MethodPost, "/add_video", `{"url":"https://youtu.be/one"}`)

	w, body := doRequest(t, api, http.MethodGet, "/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("/status = %d", w.Code)
	}
	ingested, _ := body["ingested"].(map[string]any)
	if ingested["created"] != float64(1) || ingested["duplicate"] != float64(1) {
		t.Errorf("ingested = %v", ingested)
	}

	w, _ = doRequest(t, api, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("/health = %d", w.Code)
	}
}
