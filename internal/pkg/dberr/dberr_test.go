package dberr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", fmt.Errorf("save: %w", ErrTransient), true},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"serialization", &pgconn.PgError{Code: "40001"}, true},
		{"connection class", &pgconn.PgError{Code: "08006"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"sqlite busy", errors.New("database is locked"), true},
		{"not found", gorm.ErrRecordNotFound, false},
	}
	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Fatalf("%s: IsTransient=%v want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(gorm.ErrDuplicatedKey) {
		t.Fatalf("expected gorm.ErrDuplicatedKey to be a unique violation")
	}
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("expected pg 23505 to be a unique violation")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: daily_summary.user_id")) {
		t.Fatalf("expected sqlite message to be a unique violation")
	}
	if IsUniqueViolation(errors.New("boom")) {
		t.Fatalf("unexpected unique violation")
	}
}
