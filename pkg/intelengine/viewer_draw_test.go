package intelengine

import (
	"testing"
	"unicode/utf8"
)

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"a very long headline indeed", 10, "a very ..."},
		{"Überraschungscoup in Wien", 10, "Überras..."},
		{"日本の地震速報が届いた", 8, "日本の地震..."},
		{"ab", 1, "a"},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.max)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8: %q", tt.in, tt.max, got)
		}
	}
}
