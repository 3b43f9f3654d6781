package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/sheets/memory"
	"bilancio/internal/storage"
)

type fakeStore struct {
	transactions  map[string]core.Transaction
	synced        []string
	syncErrors    []string
	notifications []storage.Notification
}

func newFakeStore() *fakeStore {
	return &fakeStore{transactions: make(map[string]core.Transaction)}
}

func (s *fakeStore) GetTransactionByID(_ context.Context, id string) (core.Transaction, error) {
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (s *fakeStore) GetPendingSyncTransactions(_ context.Context, limit int) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range s.transactions {
		if len(out) == limit {
			break
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *fakeStore) MarkSynced(_ context.Context, id string) error {
	s.synced = append(s.synced, id)
	return nil
}

func (s *fakeStore) MarkSyncError(_ context.Context, id string) error {
	s.syncErrors = append(s.syncErrors, id)
	return nil
}

func (s *fakeStore) InsertNotification(_ context.Context, n storage.Notification) error {
	s.notifications = append(s.notifications, n)
	return nil
}

type failingMirror struct{}

func (failingMirror) Append(context.Context, core.Transaction) (string, error) {
	return "", errors.New("mirror unavailable")
}

func (failingMirror) Delete(context.Context, core.Transaction) error {
	return errors.New("mirror unavailable")
}

func sampleTransaction(id string) core.Transaction {
	return core.Transaction{
		ID:          id,
		UserID:      "u1",
		Type:        core.Expense,
		Amount:      decimal.RequireFromString("42.50"),
		Currency:    "EUR",
		Category:    "groceries",
		Description: "weekly shop",
		Date:        time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestHandleSyncMirrorsAndMarks(t *testing.T) {
	store := newFakeStore()
	store.transactions["t1"] = sampleTransaction("t1")
	mirror := memory.New()
	w := NewMirrorWorker(store, mirror, 10)

	if err := w.HandleSync(context.Background(), amqp.TransactionSyncMessage{ID: "t1"}); err != nil {
		t.Fatalf("HandleSync() error = %v", err)
	}

	if items := mirror.Items(); len(items) != 1 || items[0].ID != "t1" {
		t.Fatalf("mirror items = %+v, want the synced transaction", items)
	}
	if len(store.synced) != 1 || store.synced[0] != "t1" {
		t.Fatalf("synced = %v, want [t1]", store.synced)
	}
}

func TestHandleSyncSkipsVanishedTransaction(t *testing.T) {
	store := newFakeStore()
	w := NewMirrorWorker(store, memory.New(), 10)

	// Deleted between publish and consume: ack, don't requeue forever.
	if err := w.HandleSync(context.Background(), amqp.TransactionSyncMessage{ID: "gone"}); err != nil {
		t.Fatalf("HandleSync() error = %v, want nil for vanished transaction", err)
	}
}

func TestHandleSyncMarksErrorOnMirrorFailure(t *testing.T) {
	store := newFakeStore()
	store.transactions["t1"] = sampleTransaction("t1")
	w := NewMirrorWorker(store, failingMirror{}, 10)

	if err := w.HandleSync(context.Background(), amqp.TransactionSyncMessage{ID: "t1"}); err == nil {
		t.Fatal("expected error from failing mirror")
	}
	if len(store.syncErrors) != 1 || store.syncErrors[0] != "t1" {
		t.Fatalf("syncErrors = %v, want [t1]", store.syncErrors)
	}
}

func TestHandleDeleteRemovesFromMirror(t *testing.T) {
	store := newFakeStore()
	mirror := memory.New()
	if _, err := mirror.Append(context.Background(), sampleTransaction("t1")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	w := NewMirrorWorker(store, mirror, 10)

	msg := amqp.TransactionDeleteMessage{
		ID:          "t1",
		UserID:      "u1",
		Description: "weekly shop",
		Amount:      "42.50",
		Category:    "groceries",
		Date:        "2025-01-15",
	}
	if err := w.HandleDelete(context.Background(), msg); err != nil {
		t.Fatalf("HandleDelete() error = %v", err)
	}
	if items := mirror.Items(); len(items) != 0 {
		t.Fatalf("mirror items = %+v, want empty", items)
	}
}

func TestHandleAlertStoresNotification(t *testing.T) {
	store := newFakeStore()
	w := NewMirrorWorker(store, memory.New(), 10)

	msg := amqp.BudgetAlertMessage{
		BudgetID: "b1",
		UserID:   "u1",
		Category: "groceries",
		Limit:    "100",
		Spent:    "120",
		Currency: "EUR",
	}
	if err := w.HandleAlert(context.Background(), msg); err != nil {
		t.Fatalf("HandleAlert() error = %v", err)
	}

	if len(store.notifications) != 1 {
		t.Fatalf("notifications = %d, want 1", len(store.notifications))
	}
	n := store.notifications[0]
	if n.UserID != "u1" || n.Kind != amqp.KindBudgetAlert {
		t.Errorf("notification = %+v, want budget alert for u1", n)
	}
}

func TestStartupCheckDrainsPending(t *testing.T) {
	store := newFakeStore()
	store.transactions["t1"] = sampleTransaction("t1")
	store.transactions["t2"] = sampleTransaction("t2")
	mirror := memory.New()
	w := NewMirrorWorker(store, mirror, 10)

	if err := w.StartupCheck(context.Background()); err != nil {
		t.Fatalf("StartupCheck() error = %v", err)
	}
	if items := mirror.Items(); len(items) != 2 {
		t.Fatalf("mirror items = %d, want 2", len(items))
	}
}
