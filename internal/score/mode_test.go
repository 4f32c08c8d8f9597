package score

import "testing"

func TestDetectModeShortQueryIsPrefix(t *testing.T) {
	if got := DetectMode("it"); got != ModePrefix {
		t.Fatalf("expected prefix for short query, got %s", got)
	}
}

func TestDetectModeSingleTokenIsPrefix(t *testing.T) {
	if got := DetectMode("inception"); got != ModePrefix {
		t.Fatalf("expected prefix for single token, got %s", got)
	}
}

func TestDetectModeMultiWordIsIntent(t *testing.T) {
	if got := DetectMode("the matrix reloaded"); got != ModeIntent {
		t.Fatalf("expected intent for finished phrase, got %s", got)
	}
}

func TestDetectModeTrailingFragmentIsPrefix(t *testing.T) {
	// Last token has no vowel and is short: reads as cut off mid-word.
	if got := DetectMode("the dark kn"); got != ModePrefix {
		t.Fatalf("expected prefix for trailing fragment, got %s", got)
	}
}

func TestDetectModeQuestionIsIntent(t *testing.T) {
	if got := DetectMode("movies with tom hanks"); got != ModeIntent {
		t.Fatalf("expected intent, got %s", got)
	}
}

func TestDetectModeWhitespaceOnly(t *testing.T) {
	if got := DetectMode("   "); got != ModePrefix {
		t.Fatalf("expected prefix for empty query, got %s", got)
	}
}
