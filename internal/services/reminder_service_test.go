package services

import (
	"context"
	"testing"
	"time"

	"bilancio/internal/core"
)

func testReminder(id string, recurring bool) core.Reminder {
	r := core.Reminder{
		ID:      id,
		UserID:  "u1",
		Title:   "rent",
		Amount:  dec("800"),
		DueDate: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	if recurring {
		r.IsRecurring = true
		r.Frequency = core.Monthly
	}
	return r
}

func TestMarkPaidRecurringRollsForward(t *testing.T) {
	store := newMemStore()
	store.reminders["m1"] = testReminder("m1", true)
	svc := NewReminderService(store)

	got, err := svc.MarkPaid(context.Background(), "u1", "m1")
	if err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}
	if want := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC); !got.DueDate.Equal(want) {
		t.Errorf("DueDate = %v, want %v", got.DueDate, want)
	}
	// The obligation recurs: paying it resets it to pending at the new date.
	if got.IsPaid {
		t.Error("recurring reminder must reset to unpaid")
	}
	if stored := store.reminders["m1"]; stored.IsPaid || !stored.DueDate.Equal(got.DueDate) {
		t.Errorf("persisted state = %+v, want due %v unpaid", stored, got.DueDate)
	}
}

func TestMarkPaidNonRecurringIsTerminal(t *testing.T) {
	store := newMemStore()
	store.reminders["m1"] = testReminder("m1", false)
	svc := NewReminderService(store)

	got, err := svc.MarkPaid(context.Background(), "u1", "m1")
	if err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}
	if !got.IsPaid {
		t.Error("non-recurring reminder must be marked paid")
	}
	if !got.DueDate.Equal(testReminder("m1", false).DueDate) {
		t.Error("non-recurring reminder must keep its due date")
	}
}

func TestMarkPaidRecurringWithoutFrequency(t *testing.T) {
	store := newMemStore()
	r := testReminder("m1", true)
	r.Frequency = ""
	store.reminders["m1"] = r
	svc := NewReminderService(store)

	got, err := svc.MarkPaid(context.Background(), "u1", "m1")
	if err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}
	if !got.IsPaid {
		t.Error("frequency-less reminder falls back to terminal paid")
	}
}

func TestMarkUnpaid(t *testing.T) {
	store := newMemStore()
	r := testReminder("m1", false)
	r.IsPaid = true
	store.reminders["m1"] = r
	svc := NewReminderService(store)

	got, err := svc.MarkUnpaid(context.Background(), "u1", "m1")
	if err != nil {
		t.Fatalf("MarkUnpaid() error = %v", err)
	}
	if got.IsPaid {
		t.Error("expected unpaid")
	}
	if !got.DueDate.Equal(r.DueDate) {
		t.Error("MarkUnpaid must not change the due date")
	}
}

func TestReminderNotFound(t *testing.T) {
	svc := NewReminderService(newMemStore())
	if _, err := svc.MarkPaid(context.Background(), "u1", "missing"); err == nil {
		t.Fatal("expected error for missing reminder")
	}
}
