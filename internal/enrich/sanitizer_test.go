package enrich

import (
	"strings"
	"testing"
)

func TestSanitize_CleanTextUnchanged(t *testing.T) {
	in := "OpenAI releases a new model with 128k context."
	if got := Sanitize(in); got != in {
		t.Fatalf("clean text must pass through unchanged, got %q", got)
	}
}

func TestSanitize_FlaggedTermsReplaced(t *testing.T) {
	got := Sanitize("Trump wins the election after a long war")
	lower := strings.ToLower(got)
	for _, banned := range []string{"trump", "election", "war"} {
		if strings.Contains(lower, banned) {
			t.Errorf("sanitized text still contains %q: %q", banned, got)
		}
	}
	if !strings.Contains(got, "former president") {
		t.Errorf("expected neutral replacement, got %q", got)
	}
}

func TestSanitize_CaseInsensitive(t *testing.T) {
	got := Sanitize("GUN control debate")
	if strings.Contains(strings.ToLower(got), "gun") {
		t.Fatalf("uppercase term survived: %q", got)
	}
}

func TestSanitize_WordBoundaries(t *testing.T) {
	// "trumpet" and "Warsaw" must not trip the category patterns.
	in := "The trumpet player toured Warsawwide venues"
	if got := Sanitize(in); got != in {
		t.Fatalf("substring matches must not trigger sanitization, got %q", got)
	}
}

func TestSanitize_FullTableAppliedOnAnyMatch(t *testing.T) {
	// A single flagged category applies every replacement, including
	// terms from other categories.
	got := Sanitize("trump discussed the new drug policy")
	lower := strings.ToLower(got)
	if strings.Contains(lower, "trump") || strings.Contains(lower, "drug") {
		t.Fatalf("expected both categories replaced, got %q", got)
	}
}

func TestSanitize_NeverTruncates(t *testing.T) {
	long := strings.Repeat("violence ", 500)
	got := Sanitize(long)
	if len(got) < len(long)/2 {
		t.Fatalf("sanitize must not truncate: in=%d out=%d", len(long), len(got))
	}
}

func TestSanitize_Empty(t *testing.T) {
	if got := Sanitize(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestTruncateForPrompt(t *testing.T) {
	long := strings.Repeat("a", 1200)
	got := truncateForPrompt(long, 1000)
	if len(got) != 1003 || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected 1000 chars + ellipsis, got len %d", len(got))
	}
	short := "hello"
	if truncateForPrompt(short, 1000) != short {
		t.Fatal("short text must not be modified")
	}
}
