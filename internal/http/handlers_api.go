package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type recordsResponse struct {
	Records []core.Record `json:"records"`
	Count   int           `json:"count"`
	Version uint64        `json:"version"`
}

type summaryResponse struct {
	Total          decimal.Decimal        `json:"total"`
	TotalFormatted string                 `json:"total_formatted"`
	Count          int                    `json:"count"`
	Top            *core.CategoryTotal    `json:"top,omitempty"`
	ByCategory     core.CategoryAggregate `json:"by_category"`
	ByDate         core.TemporalAggregate `json:"by_date"`
	Theme          string                 `json:"theme"`
	Version        uint64                 `json:"version"`
}

func (s *Server) handleAPIListRecords(w http.ResponseWriter, r *http.Request) {
	c, err := parseFilter(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid filter: " + err.Error()})
		return
	}
	records, err := s.ledger.List(r.Context(), c)
	if err != nil {
		s.writeAPIError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, recordsResponse{Records: records, Count: len(records), Version: s.ledger.Version()})
}

func (s *Server) handleAPIGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.ledger.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAPIError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleAPICreateRecord(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeRecordInput(w, r)
	if !ok {
		return
	}
	rec, err := s.ledger.Create(r.Context(), in)
	if err != nil {
		s.writeAPIError(w, r, log.OpCreate, err)
		return
	}
	w.Header().Set("Location", "/api/records/"+rec.ID)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleAPIUpdateRecord(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeRecordInput(w, r)
	if !ok {
		return
	}
	rec, err := s.ledger.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeAPIError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleAPIDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeAPIError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	c, err := parseFilter(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid filter: " + err.Error()})
		return
	}
	d, err := s.ledger.Dashboard(r.Context(), c)
	if err != nil {
		s.writeAPIError(w, r, log.OpList, err)
		return
	}
	theme, err := s.ledger.Theme(r.Context())
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Using default theme", log.FieldError, err)
	}

	resp := summaryResponse{
		Total:          d.Summary.Total,
		TotalFormatted: core.FormatMoney(d.Summary.Total, s.currency),
		Count:          d.Summary.Count,
		ByCategory:     d.ByCategory,
		ByDate:         d.ByDate,
		Theme:          theme.Name,
		Version:        s.ledger.Version(),
	}
	if d.Summary.HasTop {
		top := d.Summary.Top
		resp.Top = &top
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeRecordInput writes 400 for an unreadable body and 422 for invalid
// fields. ok is false when a response has been written.
func decodeRecordInput(w http.ResponseWriter, r *http.Request) (core.RecordInput, bool) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return core.RecordInput{}, false
	}
	in, err := p.RecordInput()
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return core.RecordInput{}, false
	}
	return in, true
}
