package http

import (
	"net/http"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

type recurringRequest struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Category    string `json:"categoryId"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	def := core.RecurringDefinition{
		ID:          uuid.NewString(),
		UserID:      userID(r),
		Type:        core.TransactionType(req.Type),
		Amount:      amount,
		Currency:    req.Currency,
		Category:    req.Category,
		Description: req.Description,
		Frequency:   core.Frequency(req.Frequency),
		StartDate:   start,
		// The first occurrence fires on the start date itself.
		NextDueDate: start,
		IsActive:    true,
	}
	if def.Currency == "" {
		def.Currency = "EUR"
	}
	if req.EndDate != "" {
		end, err := parseDate(req.EndDate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		def.EndDate = end
	}
	if err := def.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.store.InsertRecurringDefinition(r.Context(), def); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"recurring": def})
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListRecurringDefinitions(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []core.RecurringDefinition{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"recurring": items})
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request) {
	def, err := s.store.GetRecurringDefinition(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recurring": def})
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRecurringDefinition(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleRecurring(w http.ResponseWriter, r *http.Request) {
	def, err := s.recurring.ToggleActive(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recurring": def})
}

func (s *Server) handleAdvanceRecurring(w http.ResponseWriter, r *http.Request) {
	def, err := s.recurring.Advance(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recurring": def})
}
