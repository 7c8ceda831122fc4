package logger

import "testing"

func TestSanitizeKVs(t *testing.T) {
	tests := []struct {
		name string
		in   []interface{}
		want []interface{}
	}{
		{
			name: "Plain values untouched",
			in:   []interface{}{"video_id", "abc", "words", 500},
			want: []interface{}{"video_id", "abc", "words", 500},
		},
		{
			name: "Secrets redacted",
			in:   []interface{}{"api_key", "sk-123", "refresh_token", "rt"},
			want: []interface{}{"api_key", "[REDACTED]", "refresh_token", "[REDACTED]"},
		},
		{
			name: "Dangling key kept",
			in:   []interface{}{"stage", "SUMMARIZING", "orphan"},
			want: []interface{}{"stage", "SUMMARIZING", "orphan"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeKVs(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("sanitizeKVs() len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sanitizeKVs()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNopLogger(t *testing.T) {
	l := Nop()
	l.Info("ingest finished", "video_id", "abc")
	l.With("stage", "PERSISTING").Warn("insert failed")
	l.Sync()
}
