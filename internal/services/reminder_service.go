package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/core"
)

// ReminderStore is the storage surface for bill reminders. UpdateReminderPaid
// writes due date and paid flag in one statement so the recurring
// roll-forward is a single atomic state transition.
type ReminderStore interface {
	GetReminder(ctx context.Context, userID, id string) (core.Reminder, error)
	UpdateReminderPaid(ctx context.Context, id string, isPaid bool, dueDate time.Time) error
}

// ReminderService rolls bill reminders forward when they are paid.
type ReminderService struct {
	store ReminderStore
}

func NewReminderService(store ReminderStore) *ReminderService {
	return &ReminderService{store: store}
}

// rollForward computes the post-payment state of a reminder.
//
// A non-recurring reminder is simply marked paid, terminally. A recurring
// one advances its due date one period and resets to unpaid in the same
// transition: the obligation recurs, so paying it makes it pending again at
// the new date. This is intentional, not a bug.
func rollForward(r core.Reminder) (core.Reminder, error) {
	out := r
	if !r.IsRecurring {
		out.IsPaid = true
		return out, nil
	}
	if r.Frequency == "" {
		// Recurring without a frequency is a data defect from the legacy
		// rows; treat it as non-recurring rather than failing the payment.
		out.IsPaid = true
		return out, nil
	}

	next, err := core.NextOccurrence(r.DueDate, r.Frequency)
	if err != nil {
		return core.Reminder{}, err
	}
	out.DueDate = next
	out.IsPaid = false
	return out, nil
}

// MarkPaid applies the payment transition and persists it.
func (s *ReminderService) MarkPaid(ctx context.Context, userID, id string) (core.Reminder, error) {
	r, err := s.store.GetReminder(ctx, userID, id)
	if err != nil {
		return core.Reminder{}, err
	}

	updated, err := rollForward(r)
	if err != nil {
		return core.Reminder{}, err
	}
	if r.IsRecurring && r.Frequency == "" {
		slog.WarnContext(ctx, "Recurring reminder has no frequency, marking paid terminally",
			"reminder_id", r.ID)
	}

	if err := s.store.UpdateReminderPaid(ctx, r.ID, updated.IsPaid, updated.DueDate); err != nil {
		return core.Reminder{}, fmt.Errorf("persist payment transition: %w", err)
	}
	return updated, nil
}

// MarkUnpaid unconditionally flags the reminder as pending again without
// touching its due date.
func (s *ReminderService) MarkUnpaid(ctx context.Context, userID, id string) (core.Reminder, error) {
	r, err := s.store.GetReminder(ctx, userID, id)
	if err != nil {
		return core.Reminder{}, err
	}

	r.IsPaid = false
	if err := s.store.UpdateReminderPaid(ctx, r.ID, false, r.DueDate); err != nil {
		return core.Reminder{}, fmt.Errorf("persist unpaid flag: %w", err)
	}
	return r, nil
}
