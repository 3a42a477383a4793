package envutil

import "testing"

func TestReaders(t *testing.T) {
	t.Setenv("ENVUTIL_STR", "  collector:4318 ")
	t.Setenv("ENVUTIL_INT", "25")
	t.Setenv("ENVUTIL_BAD_INT", "ten")
	t.Setenv("ENVUTIL_BOOL", "Yes")
	t.Setenv("ENVUTIL_BAD_BOOL", "maybe")

	if got := String("ENVUTIL_STR", "x"); got != "collector:4318" {
		t.Fatalf("String: got=%q", got)
	}
	if got := String("ENVUTIL_UNSET", "fallback"); got != "fallback" {
		t.Fatalf("String default: got=%q", got)
	}
	if got := Int("ENVUTIL_INT", 10); got != 25 {
		t.Fatalf("Int: got=%d", got)
	}
	if got := Int("ENVUTIL_BAD_INT", 10); got != 10 {
		t.Fatalf("Int default on parse error: got=%d", got)
	}
	if !Bool("ENVUTIL_BOOL", false) {
		t.Fatalf("Bool: expected true")
	}
	if !Bool("ENVUTIL_BAD_BOOL", true) {
		t.Fatalf("Bool default on unknown value: expected true")
	}
}
