package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

var errInjected = errors.New("injected store failure")

// memStore is an in-memory implementation of every store interface the
// services consume, with optional fault injection for the ledger path.
type memStore struct {
	mu           sync.Mutex
	transactions map[string]core.Transaction
	budgets      map[string]core.Budget
	recurring    map[string]core.RecurringDefinition
	reminders    map[string]core.Reminder
	goals        map[string]core.Goal

	// failSpentUpdates makes the next N UpdateBudgetSpent calls fail;
	// failSpentOnCall fails exactly the Nth call counted from 1.
	failSpentUpdates int
	failSpentOnCall  int
	spentCalls       int
}

func newMemStore() *memStore {
	return &memStore{
		transactions: make(map[string]core.Transaction),
		budgets:      make(map[string]core.Budget),
		recurring:    make(map[string]core.RecurringDefinition),
		reminders:    make(map[string]core.Reminder),
		goals:        make(map[string]core.Goal),
	}
}

func (m *memStore) InsertTransaction(_ context.Context, t core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[t.ID] = t
	return nil
}

func (m *memStore) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (m *memStore) UpdateTransaction(_ context.Context, t core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[t.ID]; !ok {
		return core.ErrNotFound
	}
	m.transactions[t.ID] = t
	return nil
}

func (m *memStore) DeleteTransaction(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok || t.UserID != userID {
		return core.ErrNotFound
	}
	delete(m.transactions, id)
	return nil
}

func (m *memStore) ListTransactionsByCategory(_ context.Context, userID, category string) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Transaction
	for _, t := range m.transactions {
		if t.UserID == userID && t.Category == category {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) GetBudgetsByCategory(_ context.Context, userID, category string) ([]core.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Budget
	for _, b := range m.budgets {
		if b.UserID == userID && b.Category == category {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) UpdateBudgetSpent(_ context.Context, budgetID string, spent decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spentCalls++
	if m.failSpentUpdates > 0 {
		m.failSpentUpdates--
		return errInjected
	}
	if m.failSpentOnCall != 0 && m.spentCalls == m.failSpentOnCall {
		return errInjected
	}
	b, ok := m.budgets[budgetID]
	if !ok {
		return core.ErrNotFound
	}
	b.Spent = spent
	m.budgets[budgetID] = b
	return nil
}

func (m *memStore) spent(budgetID string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.budgets[budgetID].Spent
}

func (m *memStore) GetRecurringDefinition(_ context.Context, userID, id string) (core.RecurringDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.recurring[id]
	if !ok || d.UserID != userID {
		return core.RecurringDefinition{}, core.ErrNotFound
	}
	return d, nil
}

func (m *memStore) ListDueRecurringDefinitions(_ context.Context, asOf time.Time) ([]core.RecurringDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.RecurringDefinition
	for _, d := range m.recurring {
		if d.IsActive && !d.NextDueDate.After(asOf) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) UpdateRecurringNextDue(_ context.Context, id string, next time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.recurring[id]
	if !ok {
		return core.ErrNotFound
	}
	d.NextDueDate = next
	m.recurring[id] = d
	return nil
}

func (m *memStore) UpdateRecurringActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.recurring[id]
	if !ok {
		return core.ErrNotFound
	}
	d.IsActive = active
	m.recurring[id] = d
	return nil
}

func (m *memStore) GetReminder(_ context.Context, userID, id string) (core.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok || r.UserID != userID {
		return core.Reminder{}, core.ErrNotFound
	}
	return r, nil
}

func (m *memStore) UpdateReminderPaid(_ context.Context, id string, isPaid bool, dueDate time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok {
		return core.ErrNotFound
	}
	r.IsPaid = isPaid
	r.DueDate = dueDate
	m.reminders[id] = r
	return nil
}

func (m *memStore) GetGoal(_ context.Context, userID, id string) (core.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok || g.UserID != userID {
		return core.Goal{}, core.ErrNotFound
	}
	return g, nil
}

func (m *memStore) UpdateGoalProgress(_ context.Context, id string, current decimal.Decimal, completed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok {
		return core.ErrNotFound
	}
	g.CurrentAmount = current
	g.IsCompleted = completed
	m.goals[id] = g
	return nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
