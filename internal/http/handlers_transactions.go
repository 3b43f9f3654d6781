package http

import (
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

// transactionRequest is the wire shape for create and update. Amounts travel
// as strings so clients never push float rounding into the ledger; omitted
// fields stay nil and leave the stored value untouched on update.
type transactionRequest struct {
	Type        *string  `json:"type"`
	Amount      *string  `json:"amount"`
	Currency    *string  `json:"currency"`
	Category    *string  `json:"categoryId"`
	Description *string  `json:"description"`
	Date        *string  `json:"date"`
	IsRecurring *bool    `json:"isRecurring"`
	Tags        []string `json:"tags"`
}

func (req transactionRequest) toInput() (services.TransactionInput, error) {
	in := services.TransactionInput{
		Currency:    req.Currency,
		Category:    req.Category,
		Description: req.Description,
		IsRecurring: req.IsRecurring,
		Tags:        req.Tags,
	}
	if req.Type != nil {
		t := core.TransactionType(*req.Type)
		in.Type = &t
	}
	if req.Amount != nil {
		amount, err := core.ParseAmount(*req.Amount)
		if err != nil {
			return services.TransactionInput{}, err
		}
		in.Amount = &amount
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return services.TransactionInput{}, err
		}
		in.Date = &date
	}
	return in, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := s.transactions.Create(r.Context(), userID(r), in)
	writeMaybeDegraded(w, r, http.StatusCreated, "transaction", t, err)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListTransactions(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": items})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.transactions.Get(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transaction": t})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := s.transactions.Update(r.Context(), userID(r), r.PathValue("id"), in)
	writeMaybeDegraded(w, r, http.StatusOK, "transaction", t, err)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	err := s.transactions.Delete(r.Context(), userID(r), r.PathValue("id"))
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeMaybeDegraded(w, r, http.StatusOK, "deleted", true, err)
}
