// Package services provides the business logic that keeps derived aggregates
// consistent with the transaction store and drives recurring obligations.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

// BudgetStore is the slice of the storage layer the ledger consumes.
type BudgetStore interface {
	GetBudgetsByCategory(ctx context.Context, userID, category string) ([]core.Budget, error)
	ListTransactionsByCategory(ctx context.Context, userID, category string) ([]core.Transaction, error)
	UpdateBudgetSpent(ctx context.Context, budgetID string, spent decimal.Decimal) error
}

// AlertPublisher receives overspend notifications. Optional; the ledger
// works without one.
type AlertPublisher interface {
	PublishBudgetAlert(ctx context.Context, b core.Budget) error
}

// BudgetLedger maintains the invariant that each budget's spent total equals
// the sum of the live expense transactions in its (user, category) scope.
// It is the only writer of the spent field.
//
// Spent is always recomputed from the stored rows rather than moved by a
// delta. A sync that dies halfway can simply run again and converges on the
// same totals, which is what lets the coordinator retry after a partial
// failure without double-counting anything.
//
// Every sync runs inside a per-(user, category) critical section so that
// concurrent edits against the same budget never interleave their
// read-recompute-write cycles.
type BudgetLedger struct {
	store  BudgetStore
	alerts AlertPublisher

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewBudgetLedger(store BudgetStore, alerts AlertPublisher) *BudgetLedger {
	return &BudgetLedger{
		store:  store,
		alerts: alerts,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Apply brings the budgets watching a freshly persisted transaction's
// category back in line with the stored rows. Income never enters the sum
// and unbudgeted categories have nothing to update, so both are silent
// no-ops: recording a transaction must never fail merely because no budget
// was configured.
func (l *BudgetLedger) Apply(ctx context.Context, t core.Transaction) error {
	if t.Type != core.Expense {
		return nil
	}
	return l.syncCategory(ctx, t.UserID, t.Category)
}

// Reverse re-syncs a transaction's category after its row was removed, so
// its budgets stop counting the amount.
func (l *BudgetLedger) Reverse(ctx context.Context, t core.Transaction) error {
	if t.Type != core.Expense {
		return nil
	}
	return l.syncCategory(ctx, t.UserID, t.Category)
}

// Reclassify re-syncs every category an edit touched. The old and the new
// shape may point at different budgets, so both categories are synced; when
// the category did not change a single pass covers both shapes.
func (l *BudgetLedger) Reclassify(ctx context.Context, oldT, newT core.Transaction) error {
	if err := l.syncCategory(ctx, oldT.UserID, oldT.Category); err != nil {
		return fmt.Errorf("sync old category: %w", err)
	}
	if newT.Category != oldT.Category {
		if err := l.syncCategory(ctx, newT.UserID, newT.Category); err != nil {
			return fmt.Errorf("sync new category: %w", err)
		}
	}
	return nil
}

// syncCategory recomputes spent for every budget in one (user, category)
// scope from the live expense rows and persists totals that drifted.
func (l *BudgetLedger) syncCategory(ctx context.Context, userID, category string) error {
	lock := l.categoryLock(userID, category)
	lock.Lock()
	defer lock.Unlock()

	budgets, err := l.store.GetBudgetsByCategory(ctx, userID, category)
	if err != nil {
		return fmt.Errorf("%w: load budgets for category %q: %v", core.ErrConsistency, category, err)
	}
	if len(budgets) == 0 {
		return nil
	}

	txs, err := l.store.ListTransactionsByCategory(ctx, userID, category)
	if err != nil {
		return fmt.Errorf("%w: load transactions for category %q: %v", core.ErrConsistency, category, err)
	}

	for _, b := range budgets {
		spent := decimal.Zero
		for _, t := range txs {
			if t.Type != core.Expense {
				continue
			}
			if !core.SameCurrency(b.Currency, t.Currency) {
				// No conversion is performed anywhere; mismatched amounts
				// never enter another unit's total.
				continue
			}
			spent = spent.Add(t.Amount)
		}
		if b.Spent.Equal(spent) {
			continue
		}

		wasOver := b.Spent.GreaterThan(b.Amount)
		if err := l.store.UpdateBudgetSpent(ctx, b.ID, spent); err != nil {
			return fmt.Errorf("%w: update spent for budget %s: %v", core.ErrConsistency, b.ID, err)
		}

		if l.alerts != nil && !wasOver && spent.GreaterThan(b.Amount) {
			updated := b
			updated.Spent = spent
			if err := l.alerts.PublishBudgetAlert(ctx, updated); err != nil {
				// Alerting is best effort; the ledger write already landed.
				slog.ErrorContext(ctx, "Failed to publish budget alert",
					"budget_id", b.ID, "error", err)
			}
		}
	}

	return nil
}

// categoryLock returns the mutex guarding one (user, category) pair,
// creating it on first use.
func (l *BudgetLedger) categoryLock(userID, category string) *sync.Mutex {
	key := userID + "\x00" + category
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}
	return lock
}
