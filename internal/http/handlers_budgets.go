package http

import (
	"net/http"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

type budgetRequest struct {
	Category  *string `json:"category"`
	Amount    *string `json:"amount"`
	Currency  *string `json:"currency"`
	Period    *string `json:"period"`
	StartDate *string `json:"startDate"`
}

// apply overlays the request fields on b. Spent is never writable through
// the API; only the ledger adjusts it.
func (req budgetRequest) apply(b core.Budget) (core.Budget, error) {
	if req.Category != nil {
		b.Category = *req.Category
	}
	if req.Amount != nil {
		amount, err := core.ParseAmount(*req.Amount)
		if err != nil {
			return core.Budget{}, err
		}
		b.Amount = amount
	}
	if req.Currency != nil {
		b.Currency = *req.Currency
	}
	if req.Period != nil {
		b.Period = core.BudgetPeriod(*req.Period)
	}
	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate)
		if err != nil {
			return core.Budget{}, err
		}
		b.StartDate = start
	}
	return b, nil
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	now := s.now()
	b := core.Budget{
		ID:        uuid.NewString(),
		UserID:    userID(r),
		Currency:  "EUR",
		Period:    core.PeriodMonthly,
		StartDate: now,
		CreatedAt: now,
	}
	b, err := req.apply(b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := b.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.store.InsertBudget(r.Context(), b); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"budget": b})
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListBudgets(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []core.Budget{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": items})
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.store.GetBudget(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budget": b})
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	b, err := s.store.GetBudget(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err = req.apply(b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := b.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.store.UpdateBudget(r.Context(), b); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budget": b})
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteBudget(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
