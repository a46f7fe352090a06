package console

import (
	"testing"
	"time"
)

func TestFormatFileSize(t *testing.T) {
	cases := map[int64]string{
		0:         "0 B",
		512:       "512 B",
		1024:      "1.0 KB",
		1536:      "1.5 KB",
		1 << 20:   "1.0 MB",
		1 << 30:   "1.0 GB",
	}
	for size, want := range cases {
		if got := FormatFileSize(size); got != want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", size, got, want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(500 * time.Millisecond); got != "500ms" {
		t.Errorf("unexpected sub-second duration: %s", got)
	}
	if got := FormatDuration(90 * time.Second); got != "1m30s" {
		t.Errorf("unexpected duration: %s", got)
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("hello", 10); got != "hello" {
		t.Errorf("should not truncate short strings, got %q", got)
	}
	if got := TruncateString("abcdefghij", 5); got != "ab..." {
		t.Errorf("TruncateString = %q, want %q", got, "ab...")
	}
}

func TestFormatListItem(t *testing.T) {
	if got := FormatListItem("dist/tool-v1.0.0.tar.gz"); got != "  dist/tool-v1.0.0.tar.gz" {
		t.Errorf("unexpected list item formatting: %q", got)
	}
}
