package http

import (
	"net/http"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

type goalRequest struct {
	Name         string `json:"name"`
	TargetAmount string `json:"targetAmount"`
	Currency     string `json:"currency"`
	Deadline     string `json:"deadline"`
	Category     string `json:"categoryId"`
	Icon         string `json:"icon"`
	Color        string `json:"color"`
}

type contributionRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	target, err := core.ParseAmount(req.TargetAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	g := core.Goal{
		ID:           uuid.NewString(),
		UserID:       userID(r),
		Name:         req.Name,
		TargetAmount: target,
		Currency:     req.Currency,
		Category:     req.Category,
		Icon:         req.Icon,
		Color:        req.Color,
		CreatedAt:    s.now(),
	}
	if g.Currency == "" {
		g.Currency = "EUR"
	}
	if req.Deadline != "" {
		deadline, err := parseDate(req.Deadline)
		if err != nil {
			writeError(w, r, err)
			return
		}
		g.Deadline = deadline
	}
	if err := g.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.store.InsertGoal(r.Context(), g); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"goal": g})
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListGoals(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []core.Goal{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": items})
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.GetGoal(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"goal": g})
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteGoal(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleContributeGoal(w http.ResponseWriter, r *http.Request) {
	var req contributionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	// Contributions may be negative to back out a mistake, so the amount is
	// parsed directly rather than through ParseAmount's positivity check.
	amount, err := decimalFromString(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	g, err := s.goals.Contribute(r.Context(), userID(r), r.PathValue("id"), amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"goal": g})
}
