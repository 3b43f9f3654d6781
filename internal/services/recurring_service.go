package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/core"
)

// RecurringStore is the storage surface for recurring definitions.
type RecurringStore interface {
	GetRecurringDefinition(ctx context.Context, userID, id string) (core.RecurringDefinition, error)
	ListDueRecurringDefinitions(ctx context.Context, asOf time.Time) ([]core.RecurringDefinition, error)
	UpdateRecurringNextDue(ctx context.Context, id string, next time.Time) error
	UpdateRecurringActive(ctx context.Context, id string, active bool) error
}

// IsDue reports whether a definition should fire as of the given instant.
// Pure so that "preview upcoming dues" stays testable without a store.
func IsDue(def core.RecurringDefinition, asOf time.Time) bool {
	return def.IsActive && !def.NextDueDate.After(asOf)
}

// Advanced returns a copy of the definition with its next due date moved one
// period forward. The scheduling date is the only field that changes.
func Advanced(def core.RecurringDefinition) (core.RecurringDefinition, error) {
	next, err := core.NextOccurrence(def.NextDueDate, def.Frequency)
	if err != nil {
		return core.RecurringDefinition{}, err
	}
	out := def
	out.NextDueDate = next
	return out, nil
}

// RecurringService advances recurring-transaction definitions and, on the
// worker path, materializes the transactions they describe. Creating the
// occurrence and advancing the definition are separate steps so each is
// independently testable.
type RecurringService struct {
	store        RecurringStore
	transactions *TransactionService
}

func NewRecurringService(store RecurringStore, transactions *TransactionService) *RecurringService {
	return &RecurringService{
		store:        store,
		transactions: transactions,
	}
}

// Advance moves a definition's next due date one period forward and persists
// it. It does not create a transaction; that is the caller's responsibility
// (see ProcessDue for the committed path).
func (s *RecurringService) Advance(ctx context.Context, userID, id string) (core.RecurringDefinition, error) {
	def, err := s.store.GetRecurringDefinition(ctx, userID, id)
	if err != nil {
		return core.RecurringDefinition{}, err
	}

	advanced, err := Advanced(def)
	if err != nil {
		return core.RecurringDefinition{}, err
	}

	if err := s.store.UpdateRecurringNextDue(ctx, def.ID, advanced.NextDueDate); err != nil {
		return core.RecurringDefinition{}, fmt.Errorf("update next due date: %w", err)
	}
	return advanced, nil
}

// ToggleActive pauses or resumes a definition without touching its schedule:
// a paused definition resumes exactly where it left off.
func (s *RecurringService) ToggleActive(ctx context.Context, userID, id string) (core.RecurringDefinition, error) {
	def, err := s.store.GetRecurringDefinition(ctx, userID, id)
	if err != nil {
		return core.RecurringDefinition{}, err
	}

	def.IsActive = !def.IsActive
	if err := s.store.UpdateRecurringActive(ctx, def.ID, def.IsActive); err != nil {
		return core.RecurringDefinition{}, fmt.Errorf("update active flag: %w", err)
	}
	return def, nil
}

// ProcessDue materializes a transaction for every definition due as of now
// and advances each one afterwards. Failures on individual definitions are
// logged and skipped so one broken template cannot stall the rest.
func (s *RecurringService) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.store.ListDueRecurringDefinitions(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list due definitions: %w", err)
	}

	slog.InfoContext(ctx, "Processing due recurring definitions",
		"total_due", len(due),
		"as_of", now.Format("2006-01-02"))

	processed := 0
	for _, def := range due {
		if !IsDue(def, now) {
			continue
		}

		if _, err := s.transactions.Create(ctx, def.UserID, occurrenceInput(def, now)); err != nil {
			slog.ErrorContext(ctx, "Failed to create transaction from recurring definition",
				"recurring_id", def.ID,
				"description", def.Description,
				"error", err)
			continue
		}

		advanced, err := Advanced(def)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to advance recurring definition",
				"recurring_id", def.ID, "error", err)
			continue
		}

		// A definition whose schedule has run past its end date is retired
		// rather than left to fire forever.
		if !def.EndDate.IsZero() && advanced.NextDueDate.After(def.EndDate) {
			if err := s.store.UpdateRecurringActive(ctx, def.ID, false); err != nil {
				slog.ErrorContext(ctx, "Failed to deactivate finished definition",
					"recurring_id", def.ID, "error", err)
			}
		}
		if err := s.store.UpdateRecurringNextDue(ctx, def.ID, advanced.NextDueDate); err != nil {
			slog.ErrorContext(ctx, "Failed to update next due date",
				"recurring_id", def.ID, "error", err)
			continue
		}

		processed++
		slog.InfoContext(ctx, "Created transaction from recurring definition",
			"recurring_id", def.ID,
			"description", def.Description,
			"amount", def.Amount.String(),
			"frequency", def.Frequency,
			"next_due", advanced.NextDueDate.Format("2006-01-02"))
	}

	slog.InfoContext(ctx, "Recurring processing complete",
		"processed", processed,
		"total_checked", len(due))

	return processed, nil
}

func occurrenceInput(def core.RecurringDefinition, now time.Time) TransactionInput {
	recurring := true
	return TransactionInput{
		Type:        &def.Type,
		Amount:      &def.Amount,
		Currency:    &def.Currency,
		Category:    &def.Category,
		Description: &def.Description,
		Date:        &now,
		IsRecurring: &recurring,
		RecurringID: &def.ID,
	}
}
