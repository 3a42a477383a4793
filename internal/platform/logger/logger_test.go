package logger

import (
	"strings"
	"testing"
)

func TestPolicyApply(t *testing.T) {
	p := policy{enabled: true, salt: "pepper"}
	out := p.apply([]interface{}{
		"user_id", "3f1c0b8e-0000-4000-8000-000000000001",
		"cron_secret", "hunter2",
		"content", "dear diary",
		"status", 200,
		"header", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig",
	})
	if len(out) != 10 {
		t.Fatalf("unexpected length: %d", len(out))
	}
	if got, ok := out[1].(string); !ok || !strings.HasPrefix(got, "hash:") || len(got) != len("hash:")+12 {
		t.Fatalf("user_id not hashed: %v", out[1])
	}
	if out[3] != redacted || out[5] != redacted || out[9] != redacted {
		t.Fatalf("sensitive values not redacted: %v", out)
	}
	if out[7] != 200 {
		t.Fatalf("plain value changed: %v", out[7])
	}
}

func TestPolicyHashIsSalted(t *testing.T) {
	a := policy{enabled: true, salt: "a"}.hash("user-1")
	b := policy{enabled: true, salt: "b"}.hash("user-1")
	if a == b {
		t.Fatalf("different salts produced the same hash %q", a)
	}
	if a != (policy{enabled: true, salt: "a"}).hash("user-1") {
		t.Fatalf("hash is not stable")
	}
}

func TestPolicyOddLengthAndDisabled(t *testing.T) {
	out := policy{enabled: true}.apply([]interface{}{"status", 1, "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output: %v", out)
	}
	in := []interface{}{"token", "abc"}
	if got := (policy{}).apply(in); got[1] != "abc" {
		t.Fatalf("disabled policy changed values: %v", got)
	}
}
