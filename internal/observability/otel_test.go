package observability

import "testing"

func TestParseHeaders(t *testing.T) {
	got := parseHeaders(" api-key = abc ,broken, =nokey, empty= ,x-team=wellness")
	if len(got) != 2 || got["api-key"] != "abc" || got["x-team"] != "wellness" {
		t.Fatalf("unexpected headers: %v", got)
	}
	if parseHeaders("") != nil {
		t.Fatalf("empty input should yield nil")
	}
}

func TestSampleRatioClamped(t *testing.T) {
	cases := map[int]float64{-5: 0, 0: 0, 10: 0.1, 100: 1, 250: 1}
	for pct, want := range cases {
		if got := (exporterSettings{SamplePercent: pct}).ratio(); got != want {
			t.Fatalf("percent %d: got=%v want=%v", pct, got, want)
		}
	}
}
