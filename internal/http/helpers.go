package http

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps ledger errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case services.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeAPIError logs server faults and hides their detail from the client.
func (s *Server) writeAPIError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		requestEvents(r).LogError(r.Context(), "Ledger operation failed", err, op, nil)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func templateFuncs(unit currency.Unit) template.FuncMap {
	return template.FuncMap{
		"money": func(d decimal.Decimal) string { return core.FormatMoney(d, unit) },
		"fixed": func(d decimal.Decimal) string { return d.StringFixed(2) },
	}
}

// requestEvents logs through the request-scoped logger so entries carry the
// request ID.
func requestEvents(r *http.Request) *log.StructuredLogger {
	return log.NewStructuredLogger(log.FromContext(r.Context()))
}

func (s *Server) today() string {
	return time.Now().Format(core.DateLayout)
}
