package amqp

import (
	"context"
	"testing"
)

type recordingHandler struct {
	syncs   []TransactionSyncMessage
	deletes []TransactionDeleteMessage
	alerts  []BudgetAlertMessage
}

func (h *recordingHandler) HandleSync(_ context.Context, m TransactionSyncMessage) error {
	h.syncs = append(h.syncs, m)
	return nil
}

func (h *recordingHandler) HandleDelete(_ context.Context, m TransactionDeleteMessage) error {
	h.deletes = append(h.deletes, m)
	return nil
}

func (h *recordingHandler) HandleAlert(_ context.Context, m BudgetAlertMessage) error {
	h.alerts = append(h.alerts, m)
	return nil
}

func TestDispatchRoutesByKind(t *testing.T) {
	ctx := context.Background()
	h := &recordingHandler{}

	body, err := newEnvelope(KindTransactionSync, TransactionSyncMessage{ID: "t1"})
	if err != nil {
		t.Fatalf("newEnvelope() error = %v", err)
	}
	env, err := envelopeFromJSON(body)
	if err != nil {
		t.Fatalf("envelopeFromJSON() error = %v", err)
	}
	if err := dispatch(ctx, h, env); err != nil {
		t.Fatalf("dispatch() error = %v", err)
	}

	body, err = newEnvelope(KindBudgetAlert, BudgetAlertMessage{BudgetID: "b1", Spent: "120", Limit: "100"})
	if err != nil {
		t.Fatalf("newEnvelope() error = %v", err)
	}
	env, _ = envelopeFromJSON(body)
	if err := dispatch(ctx, h, env); err != nil {
		t.Fatalf("dispatch() error = %v", err)
	}

	if len(h.syncs) != 1 || h.syncs[0].ID != "t1" {
		t.Errorf("syncs = %+v, want one message for t1", h.syncs)
	}
	if len(h.alerts) != 1 || h.alerts[0].Spent != "120" {
		t.Errorf("alerts = %+v, want one alert with spent 120", h.alerts)
	}
	if len(h.deletes) != 0 {
		t.Errorf("deletes = %+v, want none", h.deletes)
	}
}

func TestDispatchRejectsUnknownKind(t *testing.T) {
	env := &Envelope{Kind: "transaction.archive", Payload: []byte(`{}`)}
	if err := dispatch(context.Background(), &recordingHandler{}, env); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
