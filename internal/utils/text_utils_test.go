package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"
)

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	t.Run("short text untouched", func(t *testing.T) {
		if got := tp.TruncateText("hello", 100); got != "hello" {
			t.Errorf("TruncateText() = %q, want %q", got, "hello")
		}
	})

	t.Run("zero max untouched", func(t *testing.T) {
		if got := tp.TruncateText("hello", 0); got != "hello" {
			t.Errorf("TruncateText() = %q, want %q", got, "hello")
		}
	})

	t.Run("long text truncated with marker", func(t *testing.T) {
		got := tp.TruncateText(strings.Repeat("a", 100), 10)
		if !strings.HasPrefix(got, "aaaaaaaaaa") {
			t.Errorf("TruncateText() = %q, want 10 leading a's", got)
		}
		if !strings.Contains(got, "truncated") {
			t.Errorf("TruncateText() = %q, want truncation marker", got)
		}
	})

	t.Run("multibyte rune not split", func(t *testing.T) {
		// "héllo" with max inside the two-byte é.
		got := tp.TruncateText("héllo", 2)
		trimmed := strings.SplitN(got, "\n", 2)[0]
		if !utf8.ValidString(trimmed) {
			t.Errorf("TruncateText() produced invalid UTF-8: %q", trimmed)
		}
	})
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	t.Run("valid passes through", func(t *testing.T) {
		if got := tp.SanitizeUTF8("héllo wörld"); got != "héllo wörld" {
			t.Errorf("SanitizeUTF8() = %q, want input unchanged", got)
		}
	})

	t.Run("invalid bytes dropped", func(t *testing.T) {
		got := tp.SanitizeUTF8("ok\xff\xfe bytes")
		if !utf8.ValidString(got) {
			t.Errorf("SanitizeUTF8() = %q, still invalid", got)
		}
		if !strings.Contains(got, "ok") || !strings.Contains(got, "bytes") {
			t.Errorf("SanitizeUTF8() = %q, dropped valid content", got)
		}
	})
}

func TestNormalize(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	// Decomposed e + combining acute must normalize to the composed form.
	decomposed := "réply"
	composed := "réply"
	if got := tp.Normalize(decomposed); got != composed {
		t.Errorf("Normalize(%q) = %q, want %q", decomposed, got, composed)
	}
}

func TestProcessText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	got := tp.ProcessText("réply "+strings.Repeat("x", 50), 20)
	if !utf8.ValidString(got) {
		t.Errorf("ProcessText() produced invalid UTF-8: %q", got)
	}
	if !strings.Contains(got, "réply") {
		t.Errorf("ProcessText() = %q, want normalized prefix", got)
	}
}
