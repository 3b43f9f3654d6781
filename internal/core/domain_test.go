package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validTransaction() Transaction {
	return Transaction{
		ID:       "t1",
		UserID:   "u1",
		Type:     Expense,
		Amount:   decimal.RequireFromString("12.50"),
		Currency: "EUR",
		Category: "groceries",
		Date:     time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestTransactionValidate(t *testing.T) {
	if err := validTransaction().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []func(*Transaction){
		func(tx *Transaction) { tx.UserID = " " },
		func(tx *Transaction) { tx.Type = "transfer" },
		func(tx *Transaction) { tx.Amount = decimal.Zero },
		func(tx *Transaction) { tx.Amount = decimal.RequireFromString("-5") },
		func(tx *Transaction) { tx.Category = "" },
		func(tx *Transaction) { tx.Date = time.Time{} },
	}
	for i, mutate := range bads {
		tx := validTransaction()
		mutate(&tx)
		if err := tx.Validate(); err == nil {
			t.Errorf("case %d expected error", i)
		}
	}
}

func TestRecurringDefinitionValidate(t *testing.T) {
	rd := RecurringDefinition{
		UserID:      "u1",
		Type:        Expense,
		Amount:      decimal.RequireFromString("9.99"),
		Currency:    "EUR",
		Category:    "subscriptions",
		Frequency:   Monthly,
		StartDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		NextDueDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		IsActive:    true,
	}
	if err := rd.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := rd
	bad.Frequency = "hourly"
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for unsupported frequency")
	}

	bad = rd
	bad.EndDate = rd.StartDate.AddDate(0, 0, -1)
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for end date before start date")
	}
}

func TestReminderValidate(t *testing.T) {
	r := Reminder{
		UserID:  "u1",
		Title:   "rent",
		Amount:  decimal.RequireFromString("800"),
		DueDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	// A recurring reminder must carry a valid frequency.
	r.IsRecurring = true
	if err := r.Validate(); err == nil {
		t.Fatal("expected error for recurring reminder without frequency")
	}
	r.Frequency = Monthly
	if err := r.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestSameCurrency(t *testing.T) {
	if !SameCurrency("EUR", "eur") {
		t.Error("expected EUR/eur to match")
	}
	if SameCurrency("EUR", "USD") {
		t.Error("expected EUR/USD to differ")
	}
}
