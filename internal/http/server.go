// Package http exposes the JSON API over the service layer.
package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/security"
	"bilancio/internal/middleware/trace"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

// Store is the full storage surface the API needs: the slices consumed by the
// services plus the plain CRUD the handlers drive directly.
type Store interface {
	services.TransactionStore
	services.BudgetStore
	services.RecurringStore
	services.ReminderStore
	services.GoalStore

	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)

	InsertBudget(ctx context.Context, b core.Budget) error
	GetBudget(ctx context.Context, userID, id string) (core.Budget, error)
	ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
	UpdateBudget(ctx context.Context, b core.Budget) error
	DeleteBudget(ctx context.Context, userID, id string) error

	InsertRecurringDefinition(ctx context.Context, d core.RecurringDefinition) error
	ListRecurringDefinitions(ctx context.Context, userID string) ([]core.RecurringDefinition, error)
	DeleteRecurringDefinition(ctx context.Context, userID, id string) error

	InsertReminder(ctx context.Context, m core.Reminder) error
	ListReminders(ctx context.Context, userID string) ([]core.Reminder, error)
	DeleteReminder(ctx context.Context, userID, id string) error

	InsertGoal(ctx context.Context, g core.Goal) error
	ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
	DeleteGoal(ctx context.Context, userID, id string) error

	ListNotifications(ctx context.Context, userID string, limit int) ([]storage.Notification, error)
}

// Server wires the handlers, middleware, and shutdown plumbing around the
// embedded http.Server.
type Server struct {
	http.Server

	store        Store
	transactions *services.TransactionService
	recurring    *services.RecurringService
	reminders    *services.ReminderService
	goals        *services.GoalService

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once

	now func() time.Time
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, store Store,
	transactions *services.TransactionService,
	recurring *services.RecurringService,
	reminders *services.ReminderService,
	goals *services.GoalService,
) *Server {
	s := &Server{
		store:        store,
		transactions: transactions,
		recurring:    recurring,
		reminders:    reminders,
		goals:        goals,
		limiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		now:          time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("GET /api/budgets/{id}", s.handleGetBudget)
	mux.HandleFunc("PUT /api/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	mux.HandleFunc("POST /api/recurring", s.handleCreateRecurring)
	mux.HandleFunc("GET /api/recurring", s.handleListRecurring)
	mux.HandleFunc("GET /api/recurring/{id}", s.handleGetRecurring)
	mux.HandleFunc("DELETE /api/recurring/{id}", s.handleDeleteRecurring)
	mux.HandleFunc("POST /api/recurring/{id}/toggle", s.handleToggleRecurring)
	mux.HandleFunc("POST /api/recurring/{id}/advance", s.handleAdvanceRecurring)

	mux.HandleFunc("POST /api/reminders", s.handleCreateReminder)
	mux.HandleFunc("GET /api/reminders", s.handleListReminders)
	mux.HandleFunc("GET /api/reminders/{id}", s.handleGetReminder)
	mux.HandleFunc("DELETE /api/reminders/{id}", s.handleDeleteReminder)
	mux.HandleFunc("POST /api/reminders/{id}/pay", s.handlePayReminder)
	mux.HandleFunc("POST /api/reminders/{id}/unpay", s.handleUnpayReminder)

	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("GET /api/goals/{id}", s.handleGetGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)
	mux.HandleFunc("POST /api/goals/{id}/contribute", s.handleContributeGoal)

	mux.HandleFunc("GET /api/notifications", s.handleListNotifications)

	screen := security.NewScreen()
	traced := trace.NewMiddleware(screen.ClientIP)
	limited := s.limiter.Middleware(screen.ClientIP, nil)

	s.Server = http.Server{
		Addr:    addr,
		Handler: traced.Middleware(screen.Middleware(limited(mux))),
	}
	return s
}

// Shutdown drains in-flight requests and stops the limiter's cleanup
// goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	items, err := s.store.ListNotifications(r.Context(), userID(r), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []storage.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": items})
}
