package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message kinds carried on the mirror queue.
const (
	KindTransactionSync   = "transaction.sync"
	KindTransactionDelete = "transaction.delete"
	KindBudgetAlert       = "budget.alert"
)

// Envelope wraps every queue message so one queue can carry all kinds; the
// consumer dispatches on Kind.
type Envelope struct {
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// TransactionSyncMessage asks the worker to mirror one transaction. It
// carries only the id; the worker fetches the current row from the database
// so a stale message can never overwrite a newer edit.
type TransactionSyncMessage struct {
	ID string `json:"id"`
}

// TransactionDeleteMessage carries enough of the deleted transaction to
// remove it from the mirror after the local row is already gone.
type TransactionDeleteMessage struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"categoryId"`
	Date        string `json:"date"`
}

// BudgetAlertMessage reports a budget that just crossed its limit.
type BudgetAlertMessage struct {
	BudgetID string `json:"budgetId"`
	UserID   string `json:"userId"`
	Category string `json:"category"`
	Limit    string `json:"limit"`
	Spent    string `json:"spent"`
	Currency string `json:"currency"`
}

func newEnvelope(kind string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return json.Marshal(Envelope{
		Kind:      kind,
		Payload:   body,
		Timestamp: time.Now(),
	})
}

func envelopeFromJSON(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
