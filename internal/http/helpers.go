package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

const maxBodyBytes = 1 << 20

// userID resolves the acting user from the X-User-ID header. The API is
// single-tenant by default; absent the header everything belongs to one
// shared account.
func userID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-User-ID")); id != "" {
		return id
	}
	return "default"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer func() { _, _ = io.Copy(io.Discard, body) }()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// writeError maps domain errors onto HTTP status codes: missing entities are
// 404, validation failures 422, everything else 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidFrequency),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrEmptyUser),
		errors.Is(err, core.ErrInvalidInput):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "error", err,
			"method", r.Method, "path", r.URL.Path)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

// writeMaybeDegraded reports a write that reached the primary store. When the
// follow-up ledger adjustment failed the entity is still returned with the
// success status, carrying a warning so clients can surface the stale
// aggregate.
func writeMaybeDegraded(w http.ResponseWriter, r *http.Request, status int, key string, v any, err error) {
	if err == nil {
		writeJSON(w, status, map[string]any{key: v})
		return
	}
	if errors.Is(err, core.ErrConsistency) {
		slog.WarnContext(r.Context(), "Write succeeded with stale budget aggregate", "error", err)
		writeJSON(w, status, map[string]any{
			key:       v,
			"warning": "budget totals may be temporarily out of date",
		})
		return
	}
	writeError(w, r, err)
}

// decimalFromString parses a signed decimal amount, accepting both comma and
// dot separators. Zero is rejected; negative values are allowed.
func decimalFromString(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, core.ErrInvalidAmount
	}
	if d.IsZero() {
		return decimal.Zero, core.ErrInvalidAmount
	}
	return d, nil
}

// parseDate accepts a bare date or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", core.ErrInvalidInput, s)
	}
	return t, nil
}
