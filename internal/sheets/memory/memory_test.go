package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

func tx(id, description string) core.Transaction {
	return core.Transaction{
		ID:       id,
		UserID:   "u1",
		Type:     core.Expense,
		Amount:   decimal.RequireFromString("10"),
		Currency: "EUR",
		Category:    "groceries",
		Description: description,
		Date:        time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestAppendReplacesExistingID(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.Append(ctx, tx("t1", "first")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := s.Append(ctx, tx("t1", "edited")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	items := s.Items()
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1 (re-append must replace)", len(items))
	}
	if items[0].Description != "edited" {
		t.Errorf("description = %q, want %q", items[0].Description, "edited")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.Append(ctx, tx("t1", "first")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := s.Delete(ctx, tx("t1", "first")); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, tx("t1", "first")); err != nil {
		t.Fatalf("Delete() repeated error = %v", err)
	}
	if len(s.Items()) != 0 {
		t.Fatal("expected empty mirror")
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	s := New()
	bad := tx("t1", "first")
	bad.Category = ""
	if _, err := s.Append(context.Background(), bad); err == nil {
		t.Fatal("expected validation error")
	}
}
