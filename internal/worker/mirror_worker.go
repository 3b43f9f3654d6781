// Package worker drains the mirror queue: it re-reads each transaction from
// the database and writes it to the configured mirror target.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bilancio/internal/amqp"
	"bilancio/internal/backend"
	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// SyncStore is the slice of the repository the worker needs.
type SyncStore interface {
	GetTransactionByID(ctx context.Context, id string) (core.Transaction, error)
	GetPendingSyncTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkSynced(ctx context.Context, id string) error
	MarkSyncError(ctx context.Context, id string) error
	InsertNotification(ctx context.Context, n storage.Notification) error
}

// MirrorWorker handles mirror queue messages. It satisfies
// amqp.MirrorHandler.
type MirrorWorker struct {
	store     SyncStore
	mirror    backend.Mirror
	batchSize int
}

var _ amqp.MirrorHandler = (*MirrorWorker)(nil)

func NewMirrorWorker(store SyncStore, mirror backend.Mirror, batchSize int) *MirrorWorker {
	return &MirrorWorker{
		store:     store,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleSync mirrors one transaction. The message carries only the id; the
// current row is always re-read so a stale queue entry cannot resurrect an
// old version.
func (w *MirrorWorker) HandleSync(ctx context.Context, msg amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID)

	t, err := w.store.GetTransactionByID(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted between publish and consume; the delete message will (or
		// did) clean up the mirror.
		slog.InfoContext(ctx, "Transaction no longer exists, skipping sync", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	return w.syncTransaction(ctx, t)
}

// HandleDelete removes a transaction from the mirror after it has already
// been deleted locally.
func (w *MirrorWorker) HandleDelete(ctx context.Context, msg amqp.TransactionDeleteMessage) error {
	slog.InfoContext(ctx, "Processing delete message", "id", msg.ID)

	if w.mirror == nil {
		slog.WarnContext(ctx, "No mirror configured, skipping delete", "id", msg.ID)
		return nil
	}

	t, err := transactionFromDelete(msg)
	if err != nil {
		return err
	}
	if err := w.mirror.Delete(ctx, t); err != nil {
		return fmt.Errorf("delete transaction from mirror: %w", err)
	}

	slog.InfoContext(ctx, "Deleted transaction from mirror", "id", msg.ID)
	return nil
}

// HandleAlert records an overspend alert as a stored notification.
func (w *MirrorWorker) HandleAlert(ctx context.Context, msg amqp.BudgetAlertMessage) error {
	n := storage.Notification{
		ID:     uuid.NewString(),
		UserID: msg.UserID,
		Kind:   amqp.KindBudgetAlert,
		Title:  fmt.Sprintf("Budget exceeded: %s", msg.Category),
		Body: fmt.Sprintf("Spent %s of %s %s in %s",
			msg.Spent, msg.Limit, msg.Currency, msg.Category),
		CreatedAt: time.Now(),
	}

	if err := w.store.InsertNotification(ctx, n); err != nil {
		return fmt.Errorf("store budget alert notification: %w", err)
	}

	slog.WarnContext(ctx, "Recorded budget alert",
		"user_id", msg.UserID,
		"category", msg.Category,
		"spent", msg.Spent,
		"limit", msg.Limit)
	return nil
}

// ProcessPending mirrors any transactions still marked pending. Backup for
// lost queue messages.
func (w *MirrorWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.GetPendingSyncTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, t := range pending {
		if err := w.syncTransaction(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction", "id", t.ID, "error", err)
		}
	}
	return nil
}

// StartupCheck drains a larger pending backlog once at worker startup to
// recover from downtime.
func (w *MirrorWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.store.GetPendingSyncTransactions(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, t := range pending {
		if err := w.syncTransaction(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction during startup",
				"id", t.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)
	return nil
}

func (w *MirrorWorker) syncTransaction(ctx context.Context, t core.Transaction) error {
	if w.mirror == nil {
		slog.WarnContext(ctx, "No mirror configured, marking synced locally", "id", t.ID)
		return w.store.MarkSynced(ctx, t.ID)
	}

	ref, err := w.mirror.Append(ctx, t)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, t.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", t.ID, "error", markErr)
		}
		return fmt.Errorf("append to mirror: %w", err)
	}

	if err := w.store.MarkSynced(ctx, t.ID); err != nil {
		// The mirror write landed; the local flag is best effort.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", t.ID, "error", err)
	}

	slog.InfoContext(ctx, "Synced transaction",
		"id", t.ID,
		"mirror_ref", ref,
		"description", t.Description,
		"amount", t.Amount.String())
	return nil
}

func transactionFromDelete(msg amqp.TransactionDeleteMessage) (core.Transaction, error) {
	amount, err := decimal.NewFromString(msg.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount in delete message: %w", err)
	}
	date, err := time.Parse("2006-01-02", msg.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date in delete message: %w", err)
	}
	return core.Transaction{
		ID:          msg.ID,
		UserID:      msg.UserID,
		Description: msg.Description,
		Amount:      amount,
		Category:    msg.Category,
		Date:        date,
	}, nil
}
