package main

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"video-kb/shared/config"
)

var errOpened = errors.New("app opened")

func TestRootCommandDispatch(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantOpened bool
		wantErr    string
	}{
		{name: "Default serves", args: []string{}, wantOpened: true},
		{name: "Once flag", args: []string{"--once"}, wantOpened: true},
		{name: "Serve", args: []string{"serve"}, wantOpened: true},
		{name: "Add", args: []string{"add", "https://youtu.be/abc123"}, wantOpened: true},
		{name: "Add without url", args: []string{"add"}, wantErr: "accepts 1 arg"},
		{name: "Add with two urls", args: []string{"add", "a", "b"}, wantErr: "accepts 1 arg"},
		{name: "Ask", args: []string{"ask", "what", "is", "go"}, wantOpened: true},
		{name: "Ask without question", args: []string{"ask"}, wantErr: "requires at least 1 arg"},
		{name: "List", args: []string{"list"}, wantOpened: true},
		{name: "List with args", args: []string{"list", "extra"}, wantErr: "unknown command"},
		{name: "Delete", args: []string{"delete", "3"}, wantOpened: true},
		{name: "Delete bad id", args: []string{"delete", "abc"}, wantErr: "invalid video id"},
		{name: "Unknown command", args: []string{"bogus"}, wantErr: "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opened := false
			c := &cli{cfg: &config.Config{}}
			c.open = func(context.Context) (*app, error) {
				opened = true
				return nil, errOpened
			}
			root := newRootCmd(c)
			root.SetArgs(tt.args)
			root.SetOut(io.Discard)
			root.SetErr(io.Discard)

			err := root.ExecuteContext(context.Background())

			if opened != tt.wantOpened {
				t.Errorf("opened = %v, want %v", opened, tt.wantOpened)
			}
			if tt.wantOpened {
				if !errors.Is(err, errOpened) {
					t.Errorf("Execute() error = %v, want errOpened", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Execute() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestRootCommandOnceFlag(t *testing.T) {
	root := newRootCmd(&cli{cfg: &config.Config{}})
	flag := root.Flags().Lookup("once")
	if flag == nil {
		t.Fatal("root command has no --once flag")
	}
	if flag.DefValue != "false" {
		t.Errorf("--once default = %q, want false", flag.DefValue)
	}
}
