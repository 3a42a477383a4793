package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestLogFields(t *testing.T) {
	ctx := context.Background()
	if kv := LogFields(ctx); len(kv) != 0 {
		t.Fatalf("empty context: got %v", kv)
	}
	if UserID(ctx) != uuid.Nil {
		t.Fatalf("expected nil user id")
	}

	id := uuid.New()
	ctx = WithTraceData(ctx, &TraceData{TraceID: "t-1", RequestID: "r-1"})
	ctx = WithRequestData(ctx, &RequestData{UserID: id, Subject: "sub"})

	kv := LogFields(ctx)
	want := []interface{}{"trace_id", "t-1", "request_id", "r-1", "user_id", id.String()}
	if len(kv) != len(want) {
		t.Fatalf("got %v want %v", kv, want)
	}
	for i := range want {
		if kv[i] != want[i] {
			t.Fatalf("index %d: got %v want %v", i, kv[i], want[i])
		}
	}
}
