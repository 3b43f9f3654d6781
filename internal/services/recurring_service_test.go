package services

import (
	"context"
	"testing"
	"time"

	"bilancio/internal/core"
)

func testDefinition(id string) core.RecurringDefinition {
	return core.RecurringDefinition{
		ID:          id,
		UserID:      "u1",
		Type:        core.Expense,
		Amount:      dec("9.99"),
		Currency:    "EUR",
		Category:    "subscriptions",
		Description: "streaming",
		Frequency:   core.Monthly,
		StartDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		NextDueDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		IsActive:    true,
	}
}

func TestIsDue(t *testing.T) {
	def := testDefinition("r1")
	tests := []struct {
		name string
		def  core.RecurringDefinition
		asOf time.Time
		want bool
	}{
		{"due on the day", def, def.NextDueDate, true},
		{"due when overdue", def, def.NextDueDate.AddDate(0, 0, 5), true},
		{"not due before", def, def.NextDueDate.AddDate(0, 0, -1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDue(tt.def, tt.asOf); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}

	paused := def
	paused.IsActive = false
	if IsDue(paused, def.NextDueDate.AddDate(0, 1, 0)) {
		t.Error("paused definition must never be due")
	}
}

func TestAdvancedMovesOnlyTheSchedule(t *testing.T) {
	def := testDefinition("r1")
	got, err := Advanced(def)
	if err != nil {
		t.Fatalf("Advanced() error = %v", err)
	}
	if want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC); !got.NextDueDate.Equal(want) {
		t.Errorf("NextDueDate = %v, want %v", got.NextDueDate, want)
	}
	got.NextDueDate = def.NextDueDate
	if got != def {
		t.Errorf("Advanced() changed more than the schedule: %+v", got)
	}
}

func TestAdvancePersists(t *testing.T) {
	store := newMemStore()
	store.recurring["r1"] = testDefinition("r1")
	svc := NewRecurringService(store, newTestService(store))

	got, err := svc.Advance(context.Background(), "u1", "r1")
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC); !got.NextDueDate.Equal(want) {
		t.Errorf("NextDueDate = %v, want %v", got.NextDueDate, want)
	}
	if stored := store.recurring["r1"]; !stored.NextDueDate.Equal(got.NextDueDate) {
		t.Errorf("stored NextDueDate = %v, want %v", stored.NextDueDate, got.NextDueDate)
	}
}

func TestToggleActiveKeepsSchedule(t *testing.T) {
	store := newMemStore()
	store.recurring["r1"] = testDefinition("r1")
	svc := NewRecurringService(store, newTestService(store))
	ctx := context.Background()

	got, err := svc.ToggleActive(ctx, "u1", "r1")
	if err != nil {
		t.Fatalf("ToggleActive() error = %v", err)
	}
	if got.IsActive {
		t.Error("expected definition paused")
	}
	if !got.NextDueDate.Equal(testDefinition("r1").NextDueDate) {
		t.Error("ToggleActive must not touch NextDueDate")
	}

	got, err = svc.ToggleActive(ctx, "u1", "r1")
	if err != nil {
		t.Fatalf("ToggleActive() error = %v", err)
	}
	if !got.IsActive {
		t.Error("expected definition resumed")
	}
}

func TestProcessDueMaterializesAndAdvances(t *testing.T) {
	store := newMemStore()
	store.budgets["b1"] = testBudget("b1", "u1", "subscriptions", "100")
	store.recurring["r1"] = testDefinition("r1")
	svc := NewRecurringService(store, newTestService(store))

	now := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	count, err := svc.ProcessDue(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if count != 1 {
		t.Fatalf("processed = %d, want 1", count)
	}

	if len(store.transactions) != 1 {
		t.Fatalf("transactions = %d, want 1 materialized occurrence", len(store.transactions))
	}
	for _, tx := range store.transactions {
		if tx.RecurringID != "r1" || !tx.IsRecurring {
			t.Errorf("occurrence not linked to its definition: %+v", tx)
		}
	}
	if got := store.spent("b1"); !got.Equal(dec("9.99")) {
		t.Errorf("spent = %s, want 9.99 (occurrence must flow through the ledger)", got)
	}
	if got := store.recurring["r1"].NextDueDate; !got.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("NextDueDate = %v, want advanced to March 1", got)
	}
}

func TestProcessDueSkipsNotYetDue(t *testing.T) {
	store := newMemStore()
	store.recurring["r1"] = testDefinition("r1")
	svc := NewRecurringService(store, newTestService(store))

	count, err := svc.ProcessDue(context.Background(), time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if count != 0 || len(store.transactions) != 0 {
		t.Fatalf("processed = %d, transactions = %d; want none before due date", count, len(store.transactions))
	}
}

func TestProcessDueRetiresFinishedDefinitions(t *testing.T) {
	store := newMemStore()
	def := testDefinition("r1")
	def.EndDate = time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)
	store.recurring["r1"] = def
	svc := NewRecurringService(store, newTestService(store))

	if _, err := svc.ProcessDue(context.Background(), time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if store.recurring["r1"].IsActive {
		t.Error("definition past its end date must be deactivated")
	}
}
