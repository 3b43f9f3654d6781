// Package storage persists the domain model in SQLite. Monetary amounts are
// stored as decimal strings, never floats, and dates as RFC 3339 text.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := Migrate(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// fmtTime renders a timestamp as RFC 3339 text; the zero time becomes the
// empty string so optional dates round-trip cleanly.
func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// --- Transactions ---

const transactionColumns = `id, user_id, type, amount, currency, category, description, date,
	is_recurring, recurring_id, tags, created_at, updated_at`

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) error {
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, amount, currency, category, description, date,
			is_recurring, recurring_id, tags, sync_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending', ?, ?)`,
		t.ID, t.UserID, string(t.Type), t.Amount.String(), t.Currency, t.Category, t.Description,
		fmtTime(t.Date), t.IsRecurring, t.RecurringID, string(tags),
		fmtTime(t.CreatedAt), fmtTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"type", t.Type,
		"amount", t.Amount.String(),
		"category", t.Category)
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	return scanTransaction(row)
}

// GetTransactionByID looks a transaction up without an owner filter. It
// exists for the mirror worker, which processes ids from the queue; user-facing
// code goes through GetTransaction.
func (r *SQLiteRepository) GetTransactionByID(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions WHERE id = ?`, id)
	return scanTransaction(row)
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET type = ?, amount = ?, currency = ?, category = ?, description = ?, date = ?,
			is_recurring = ?, recurring_id = ?, tags = ?, sync_status = 'pending', updated_at = ?
		WHERE id = ? AND user_id = ?`,
		string(t.Type), t.Amount.String(), t.Currency, t.Category, t.Description, fmtTime(t.Date),
		t.IsRecurring, t.RecurringID, string(tags), fmtTime(t.UpdatedAt),
		t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions WHERE user_id = ? ORDER BY date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *SQLiteRepository) ListTransactionsByCategory(ctx context.Context, userID, category string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions WHERE user_id = ? AND category = ? ORDER BY date DESC`, userID, category)
	if err != nil {
		return nil, fmt.Errorf("list transactions by category: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var txType, amount, date, tags, createdAt, updatedAt string
	err := row.Scan(&t.ID, &t.UserID, &txType, &amount, &t.Currency, &t.Category, &t.Description,
		&date, &t.IsRecurring, &t.RecurringID, &tags, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	t.Type = core.TransactionType(txType)
	if t.Amount, err = parseAmount(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount: %w", err)
	}
	if t.Date, err = parseTime(date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse date: %w", err)
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at: %w", err)
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse updated_at: %w", err)
	}
	if tags != "" && tags != "null" {
		if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
			return core.Transaction{}, fmt.Errorf("decode tags: %w", err)
		}
	}
	return t, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// --- Budgets ---

const budgetColumns = `id, user_id, category, amount, currency, period, spent, start_date, created_at`

func (r *SQLiteRepository) InsertBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, category, amount, currency, period, spent, start_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Category, b.Amount.String(), b.Currency, string(b.Period),
		b.Spent.String(), fmtTime(b.StartDate), fmtTime(b.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	return scanBudget(row)
}

func (r *SQLiteRepository) GetBudgetsByCategory(ctx context.Context, userID, category string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets WHERE user_id = ? AND category = ?`, userID, category)
	if err != nil {
		return nil, fmt.Errorf("get budgets by category: %w", err)
	}
	defer rows.Close()
	return collectBudgets(rows)
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets WHERE user_id = ? ORDER BY category`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()
	return collectBudgets(rows)
}

// UpdateBudgetSpent writes the derived spent total. Only the ledger calls
// this; everything else treats spent as read-only.
func (r *SQLiteRepository) UpdateBudgetSpent(ctx context.Context, budgetID string, spent decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET spent = ? WHERE id = ?`, spent.String(), budgetID)
	if err != nil {
		return fmt.Errorf("update budget spent: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets SET category = ?, amount = ?, currency = ?, period = ?, start_date = ?
		WHERE id = ? AND user_id = ?`,
		b.Category, b.Amount.String(), b.Currency, string(b.Period), fmtTime(b.StartDate),
		b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res)
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var b core.Budget
	var amount, period, spent, startDate, createdAt string
	err := row.Scan(&b.ID, &b.UserID, &b.Category, &amount, &b.Currency, &period, &spent,
		&startDate, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("scan budget: %w", err)
	}

	b.Period = core.BudgetPeriod(period)
	if b.Amount, err = parseAmount(amount); err != nil {
		return core.Budget{}, fmt.Errorf("parse amount: %w", err)
	}
	if b.Spent, err = parseAmount(spent); err != nil {
		return core.Budget{}, fmt.Errorf("parse spent: %w", err)
	}
	if b.StartDate, err = parseTime(startDate); err != nil {
		return core.Budget{}, fmt.Errorf("parse start_date: %w", err)
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Budget{}, fmt.Errorf("parse created_at: %w", err)
	}
	return b, nil
}

func collectBudgets(rows *sql.Rows) ([]core.Budget, error) {
	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// --- Recurring definitions ---

const recurringColumns = `id, user_id, type, amount, currency, category, description, frequency,
	start_date, end_date, next_due_date, is_active`

func (r *SQLiteRepository) InsertRecurringDefinition(ctx context.Context, d core.RecurringDefinition) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_definitions (id, user_id, type, amount, currency, category, description,
			frequency, start_date, end_date, next_due_date, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, string(d.Type), d.Amount.String(), d.Currency, d.Category, d.Description,
		string(d.Frequency), fmtTime(d.StartDate), fmtTime(d.EndDate), fmtTime(d.NextDueDate), d.IsActive)
	if err != nil {
		return fmt.Errorf("insert recurring definition: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetRecurringDefinition(ctx context.Context, userID, id string) (core.RecurringDefinition, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recurringColumns+`
		FROM recurring_definitions WHERE id = ? AND user_id = ?`, id, userID)
	return scanRecurring(row)
}

func (r *SQLiteRepository) ListRecurringDefinitions(ctx context.Context, userID string) ([]core.RecurringDefinition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recurringColumns+`
		FROM recurring_definitions WHERE user_id = ? ORDER BY next_due_date`, userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring definitions: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

// ListDueRecurringDefinitions returns every active definition across all
// users whose next due date is at or before asOf. This is the worker's scan.
func (r *SQLiteRepository) ListDueRecurringDefinitions(ctx context.Context, asOf time.Time) ([]core.RecurringDefinition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recurringColumns+`
		FROM recurring_definitions
		WHERE is_active = 1 AND next_due_date <= ?
		ORDER BY next_due_date`, fmtTime(asOf))
	if err != nil {
		return nil, fmt.Errorf("list due recurring definitions: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

func (r *SQLiteRepository) UpdateRecurringNextDue(ctx context.Context, id string, next time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_definitions SET next_due_date = ? WHERE id = ?`, fmtTime(next), id)
	if err != nil {
		return fmt.Errorf("update next due date: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) UpdateRecurringActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_definitions SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("update active flag: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteRecurringDefinition(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_definitions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete recurring definition: %w", err)
	}
	return requireRow(res)
}

func scanRecurring(row rowScanner) (core.RecurringDefinition, error) {
	var d core.RecurringDefinition
	var txType, amount, frequency, startDate, endDate, nextDue string
	err := row.Scan(&d.ID, &d.UserID, &txType, &amount, &d.Currency, &d.Category, &d.Description,
		&frequency, &startDate, &endDate, &nextDue, &d.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringDefinition{}, core.ErrNotFound
	}
	if err != nil {
		return core.RecurringDefinition{}, fmt.Errorf("scan recurring definition: %w", err)
	}

	d.Type = core.TransactionType(txType)
	d.Frequency = core.Frequency(frequency)
	if d.Amount, err = parseAmount(amount); err != nil {
		return core.RecurringDefinition{}, fmt.Errorf("parse amount: %w", err)
	}
	if d.StartDate, err = parseTime(startDate); err != nil {
		return core.RecurringDefinition{}, fmt.Errorf("parse start_date: %w", err)
	}
	if d.EndDate, err = parseTime(endDate); err != nil {
		return core.RecurringDefinition{}, fmt.Errorf("parse end_date: %w", err)
	}
	if d.NextDueDate, err = parseTime(nextDue); err != nil {
		return core.RecurringDefinition{}, fmt.Errorf("parse next_due_date: %w", err)
	}
	return d, nil
}

func collectRecurring(rows *sql.Rows) ([]core.RecurringDefinition, error) {
	var out []core.RecurringDefinition
	for rows.Next() {
		d, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// --- Reminders ---

const reminderColumns = `id, user_id, title, amount, currency, due_date, category,
	is_recurring, frequency, is_paid, notify_before, created_at`

func (r *SQLiteRepository) InsertReminder(ctx context.Context, m core.Reminder) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reminders (id, user_id, title, amount, currency, due_date, category,
			is_recurring, frequency, is_paid, notify_before, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Title, m.Amount.String(), m.Currency, fmtTime(m.DueDate), m.Category,
		m.IsRecurring, string(m.Frequency), m.IsPaid, m.NotifyBefore, fmtTime(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetReminder(ctx context.Context, userID, id string) (core.Reminder, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders WHERE id = ? AND user_id = ?`, id, userID)
	return scanReminder(row)
}

func (r *SQLiteRepository) ListReminders(ctx context.Context, userID string) ([]core.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders WHERE user_id = ? ORDER BY due_date`, userID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var out []core.Reminder
	for rows.Next() {
		m, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdateReminderPaid writes the paid flag and the due date in one statement
// so the recurring roll-forward is atomic: a crash can never leave a reminder
// paid at the old date or pending at the new one.
func (r *SQLiteRepository) UpdateReminderPaid(ctx context.Context, id string, isPaid bool, dueDate time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reminders SET is_paid = ?, due_date = ? WHERE id = ?`,
		isPaid, fmtTime(dueDate), id)
	if err != nil {
		return fmt.Errorf("update reminder paid state: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteReminder(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return requireRow(res)
}

func scanReminder(row rowScanner) (core.Reminder, error) {
	var m core.Reminder
	var amount, dueDate, frequency, createdAt string
	err := row.Scan(&m.ID, &m.UserID, &m.Title, &amount, &m.Currency, &dueDate, &m.Category,
		&m.IsRecurring, &frequency, &m.IsPaid, &m.NotifyBefore, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Reminder{}, core.ErrNotFound
	}
	if err != nil {
		return core.Reminder{}, fmt.Errorf("scan reminder: %w", err)
	}

	m.Frequency = core.Frequency(frequency)
	if m.Amount, err = parseAmount(amount); err != nil {
		return core.Reminder{}, fmt.Errorf("parse amount: %w", err)
	}
	if m.DueDate, err = parseTime(dueDate); err != nil {
		return core.Reminder{}, fmt.Errorf("parse due_date: %w", err)
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Reminder{}, fmt.Errorf("parse created_at: %w", err)
	}
	return m, nil
}

// --- Goals ---

const goalColumns = `id, user_id, name, target_amount, current_amount, currency, deadline,
	category, icon, color, is_completed, created_at`

func (r *SQLiteRepository) InsertGoal(ctx context.Context, g core.Goal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, name, target_amount, current_amount, currency, deadline,
			category, icon, color, is_completed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.TargetAmount.String(), g.CurrentAmount.String(), g.Currency,
		fmtTime(g.Deadline), g.Category, g.Icon, g.Color, g.IsCompleted, fmtTime(g.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+goalColumns+`
		FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	return scanGoal(row)
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+goalColumns+`
		FROM goals WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// UpdateGoalProgress writes the running total and the completion flag
// together; completion is always derived from the total it is stored with.
func (r *SQLiteRepository) UpdateGoalProgress(ctx context.Context, id string, current decimal.Decimal, completed bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET current_amount = ?, is_completed = ? WHERE id = ?`,
		current.String(), completed, id)
	if err != nil {
		return fmt.Errorf("update goal progress: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRow(res)
}

func scanGoal(row rowScanner) (core.Goal, error) {
	var g core.Goal
	var target, current, deadline, createdAt string
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &target, &current, &g.Currency, &deadline,
		&g.Category, &g.Icon, &g.Color, &g.IsCompleted, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, core.ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("scan goal: %w", err)
	}

	if g.TargetAmount, err = parseAmount(target); err != nil {
		return core.Goal{}, fmt.Errorf("parse target_amount: %w", err)
	}
	if g.CurrentAmount, err = parseAmount(current); err != nil {
		return core.Goal{}, fmt.Errorf("parse current_amount: %w", err)
	}
	if g.Deadline, err = parseTime(deadline); err != nil {
		return core.Goal{}, fmt.Errorf("parse deadline: %w", err)
	}
	if g.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Goal{}, fmt.Errorf("parse created_at: %w", err)
	}
	return g, nil
}

// --- Mirror sync state ---

// GetPendingSyncTransactions returns transactions awaiting a mirror write,
// oldest first.
func (r *SQLiteRepository) GetPendingSyncTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions WHERE sync_status = 'pending' ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'synced' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

// --- Notifications ---

// Notification is a stored in-app message, currently produced by budget
// overspend alerts.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r *SQLiteRepository) InsertNotification(ctx context.Context, n Notification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, kind, title, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Kind, n.Title, n.Body, fmtTime(n.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListNotifications(ctx context.Context, userID string, limit int) ([]Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, kind, title, body, created_at
		FROM notifications WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var (
			n         Notification
			createdAt string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if n.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// requireRow maps a zero-row update or delete to core.ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
