package services

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncatePreview(t *testing.T) {
	t.Run("short content is unchanged", func(t *testing.T) {
		if got := truncatePreview("hello @alice"); got != "hello @alice" {
			t.Fatalf("expected content unchanged, got %q", got)
		}
	})

	t.Run("long ascii content is cut to the limit", func(t *testing.T) {
		got := truncatePreview(strings.Repeat("a", 300))
		if len(got) != previewMaxRunes {
			t.Fatalf("expected %d characters, got %d", previewMaxRunes, len(got))
		}
	})

	t.Run("multi-byte runes are never split", func(t *testing.T) {
		got := truncatePreview(strings.Repeat("é", 300))
		if !utf8.ValidString(got) {
			t.Fatalf("preview is not valid UTF-8: %q", got)
		}
		if n := utf8.RuneCountInString(got); n != previewMaxRunes {
			t.Fatalf("expected %d runes, got %d", previewMaxRunes, n)
		}
	})

	t.Run("content exactly at the limit is unchanged", func(t *testing.T) {
		content := strings.Repeat("日", previewMaxRunes)
		if got := truncatePreview(content); got != content {
			t.Fatalf("expected content unchanged, got %d bytes", len(got))
		}
	})
}
