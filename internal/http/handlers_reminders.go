package http

import (
	"net/http"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

type reminderRequest struct {
	Title        string `json:"title"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	DueDate      string `json:"dueDate"`
	Category     string `json:"categoryId"`
	IsRecurring  bool   `json:"isRecurring"`
	Frequency    string `json:"frequency"`
	NotifyBefore int    `json:"notifyBefore"`
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	m := core.Reminder{
		ID:           uuid.NewString(),
		UserID:       userID(r),
		Title:        req.Title,
		Amount:       amount,
		Currency:     req.Currency,
		DueDate:      due,
		Category:     req.Category,
		IsRecurring:  req.IsRecurring,
		Frequency:    core.Frequency(req.Frequency),
		NotifyBefore: req.NotifyBefore,
		CreatedAt:    s.now(),
	}
	if m.Currency == "" {
		m.Currency = "EUR"
	}
	if err := m.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.store.InsertReminder(r.Context(), m); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"reminder": m})
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListReminders(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []core.Reminder{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reminders": items})
}

func (s *Server) handleGetReminder(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.GetReminder(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reminder": m})
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteReminder(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePayReminder(w http.ResponseWriter, r *http.Request) {
	m, err := s.reminders.MarkPaid(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reminder": m})
}

func (s *Server) handleUnpayReminder(w http.ResponseWriter, r *http.Request) {
	m, err := s.reminders.MarkUnpaid(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reminder": m})
}
