package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

// TransactionStore is the storage surface the lifecycle coordinator needs.
type TransactionStore interface {
	InsertTransaction(ctx context.Context, t core.Transaction) error
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id string) error
}

// MirrorPublisher emits async mirror messages after a local write. Optional;
// mirror failures never fail the user request.
type MirrorPublisher interface {
	PublishTransactionSync(ctx context.Context, id string) error
	PublishTransactionDelete(ctx context.Context, t core.Transaction) error
}

// TransactionInput carries the user-facing fields of a transaction. Nil
// pointers mean "not provided", which gives update its partial semantics.
type TransactionInput struct {
	Type        *core.TransactionType
	Amount      *decimal.Decimal
	Currency    *string
	Category    *string
	Description *string
	Date        *time.Time
	IsRecurring *bool
	RecurringID *string
	Tags        []string
}

// TransactionService coordinates ledger adjustments around the externally
// exposed create/update/delete operations so the transaction store and the
// budget aggregates move together.
type TransactionService struct {
	store     TransactionStore
	ledger    *BudgetLedger
	publisher MirrorPublisher
	now       func() time.Time
}

func NewTransactionService(store TransactionStore, ledger *BudgetLedger, publisher MirrorPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		ledger:    ledger,
		publisher: publisher,
		now:       time.Now,
	}
}

// Create persists a new transaction and syncs its budget category. When the
// sync fails after the row is persisted it is retried once; if it still
// fails the transaction is returned together with a wrapped
// core.ErrConsistency so callers can report a degraded success, since the
// user's primary intent (recording the transaction) did succeed.
func (s *TransactionService) Create(ctx context.Context, userID string, in TransactionInput) (core.Transaction, error) {
	t, err := buildTransaction(userID, in, s.now())
	if err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.InsertTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	if err := s.applyWithRetry(ctx, func() error { return s.ledger.Apply(ctx, t) }); err != nil {
		s.publishSync(ctx, t.ID)
		return t, err
	}

	s.publishSync(ctx, t.ID)
	return t, nil
}

// Update loads the existing transaction, merges the provided fields over it,
// persists the merge, then re-syncs every budget category the edit touched.
// The row must land first: the ledger recomputes spent from the stored rows,
// so syncing before the write would reproduce the pre-edit totals.
func (s *TransactionService) Update(ctx context.Context, userID, id string, in TransactionInput) (core.Transaction, error) {
	existing, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}

	merged := mergeTransaction(existing, in)
	merged.UpdatedAt = s.now()
	if err := merged.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.UpdateTransaction(ctx, merged); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	ledgerErr := s.applyWithRetry(ctx, func() error { return s.ledger.Reclassify(ctx, existing, merged) })

	s.publishSync(ctx, merged.ID)
	if ledgerErr != nil {
		return merged, ledgerErr
	}
	return merged, nil
}

// Delete removes the row, then re-syncs its category so the budgets stop
// counting the transaction.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	existing, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	ledgerErr := s.applyWithRetry(ctx, func() error { return s.ledger.Reverse(ctx, existing) })

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionDelete(ctx, existing); err != nil {
			slog.ErrorContext(ctx, "Failed to publish delete message",
				"id", existing.ID, "error", err)
		}
	}

	return ledgerErr
}

// Get returns a single transaction owned by the caller.
func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

// applyWithRetry runs a ledger sync and re-attempts it once on failure
// before surfacing the consistency error. The sync recomputes totals from
// the live rows, so re-running one that died halfway is safe.
func (s *TransactionService) applyWithRetry(ctx context.Context, adjust func() error) error {
	err := adjust()
	if err == nil {
		return nil
	}
	slog.WarnContext(ctx, "Ledger adjustment failed, retrying once", "error", err)
	if err = adjust(); err == nil {
		return nil
	}
	slog.ErrorContext(ctx, "Ledger adjustment failed after retry; budget aggregate is stale",
		"error", err)
	return err
}

func (s *TransactionService) publishSync(ctx context.Context, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionSync(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}

func buildTransaction(userID string, in TransactionInput, now time.Time) (core.Transaction, error) {
	t := core.Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Currency:  "EUR",
		Date:      now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t = mergeTransaction(t, in)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// mergeTransaction overlays the provided input fields on base, falling back
// to base for anything omitted.
func mergeTransaction(base core.Transaction, in TransactionInput) core.Transaction {
	out := base
	if in.Type != nil {
		out.Type = *in.Type
	}
	if in.Amount != nil {
		out.Amount = *in.Amount
	}
	if in.Currency != nil {
		out.Currency = *in.Currency
	}
	if in.Category != nil {
		out.Category = *in.Category
	}
	if in.Description != nil {
		out.Description = *in.Description
	}
	if in.Date != nil {
		out.Date = *in.Date
	}
	if in.IsRecurring != nil {
		out.IsRecurring = *in.IsRecurring
	}
	if in.RecurringID != nil {
		out.RecurringID = *in.RecurringID
	}
	if in.Tags != nil {
		out.Tags = in.Tags
	}
	return out
}
