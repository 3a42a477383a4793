package promptstyle

import (
	"strings"
	"testing"
)

func TestApplySystem(t *testing.T) {
	if got := ApplySystem("   ", "json"); got != "" {
		t.Fatalf("expected empty prompt to stay empty, got %q", got)
	}
	out := ApplySystem("Summarize the day.", "json")
	if !strings.HasPrefix(out, marker) || !strings.HasSuffix(out, "Summarize the day.") {
		t.Fatalf("unexpected prompt: %q", out)
	}
	if !strings.Contains(out, "JSON object") {
		t.Fatalf("json mode should ask for a JSON object: %q", out)
	}
	if again := ApplySystem(out, "json"); again != out {
		t.Fatalf("ApplySystem should be idempotent")
	}
}
