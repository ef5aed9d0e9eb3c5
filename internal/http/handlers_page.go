package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/chart"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

type formView struct {
	ID       string
	Date     string
	Amount   string
	Category string
	Notes    string
}

type rowView struct {
	core.Record
	EditURL string
}

type pageData struct {
	Theme      string
	Filter     url.Values
	FilterQS   string
	Categories []core.Category
	Dashboard  services.Dashboard
	Rows       []rowView
	Form       formView
	Editing    bool
	Error      string
	HomeURL    string
	PieURL     string
	LineURL    string
	ExportURL  string
	PieSize    services.ChartSize
	LineSize   services.ChartSize
}

func withQuery(path string, q url.Values) string {
	if enc := q.Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	c, err := parseFilter(r.URL.Query())
	if err != nil {
		http.Error(w, "invalid filter: "+err.Error(), http.StatusBadRequest)
		return
	}

	form := formView{}
	if id := r.URL.Query().Get("edit"); id != "" {
		rec, err := s.ledger.Get(r.Context(), id)
		switch {
		case err == nil:
			form = formView{ID: rec.ID, Date: rec.Date, Amount: rec.Amount.String(), Category: rec.Category.String(), Notes: rec.Notes}
		case errors.Is(err, core.ErrNotFound):
			s.renderPage(w, r, http.StatusNotFound, c, formView{}, "That expense no longer exists.")
			return
		default:
			requestEvents(r).LogError(r.Context(), "Failed to load record for editing", err, log.OpRead, log.LogFields{log.FieldRecordID: id})
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}
	s.renderPage(w, r, http.StatusOK, c, form, "")
}

// renderPage draws the full page for filter c with the form prefilled.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, c core.FilterCriteria, form formView, formErr string) {
	ctx := r.Context()
	d, err := s.ledger.Dashboard(ctx, c)
	if err != nil {
		requestEvents(r).LogError(ctx, "Dashboard load failed", err, log.OpList, log.NewFields().WithFilter(c))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	theme, err := s.ledger.Theme(ctx)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Using default theme", log.FieldError, err)
	}

	version, err := s.ledger.StateVersion(ctx)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Using local ledger version", log.FieldError, err)
	}

	fq := filterQuery(c)
	chartQ := filterQuery(c)
	chartQ.Set("theme", theme.Name)
	chartQ.Set("v", version)

	data := pageData{
		Theme:      theme.Name,
		Filter:     fq,
		FilterQS:   fq.Encode(),
		Categories: core.Categories(),
		Dashboard:  d,
		Form:       form,
		Editing:    form.ID != "",
		Error:      formErr,
		HomeURL:    withQuery("/", fq),
		PieURL:     withQuery("/charts/pie.png", chartQ),
		LineURL:    withQuery("/charts/line.png", chartQ),
		ExportURL:  withQuery("/export.csv", fq),
		PieSize:    s.ledger.ChartSize(services.ChartPie),
		LineSize:   s.ledger.ChartSize(services.ChartLine),
	}
	if data.Form.Date == "" {
		data.Form.Date = s.today()
	}
	for _, rec := range d.Records {
		eq := filterQuery(c)
		eq.Set("edit", rec.ID)
		data.Rows = append(data.Rows, rowView{Record: rec, EditURL: withQuery("/", eq)})
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		requestEvents(r).LogError(ctx, "Index template execution failed", err, log.OpRender, log.LogFields{"template": "index.html"})
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// returnFilter recovers the selection a form was submitted from. A tampered
// value falls back to no filter.
func returnFilter(raw string) core.FilterCriteria {
	q, err := url.ParseQuery(raw)
	if err != nil {
		return core.FilterCriteria{}
	}
	c, err := parseFilter(q)
	if err != nil {
		return core.FilterCriteria{}
	}
	return c
}

func redirectHome(w http.ResponseWriter, r *http.Request, c core.FilterCriteria) {
	http.Redirect(w, r, withQuery("/", filterQuery(c)), http.StatusSeeOther)
}

// handleSaveRecordForm creates a record, or updates one when the hidden id
// field is set.
func (s *Server) handleSaveRecordForm(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	c := returnFilter(p.Get("filter"))
	form := formView{
		ID:       p.Get("id"),
		Date:     p.Get("date"),
		Amount:   p.Get("amount"),
		Category: p.Get("category"),
		Notes:    p.Get("notes"),
	}

	in, err := p.RecordInput()
	if err == nil {
		if form.ID == "" {
			_, err = s.ledger.Create(r.Context(), in)
		} else {
			_, err = s.ledger.Update(r.Context(), form.ID, in)
		}
	}
	if err != nil {
		status := statusFor(err)
		msg := formMessage(err)
		if status == http.StatusInternalServerError {
			requestEvents(r).LogError(r.Context(), "Saving record failed", err, log.OpCreate, nil)
		}
		s.renderPage(w, r, status, c, form, msg)
		return
	}
	redirectHome(w, r, c)
}

// formMessage turns an error into something to show next to the form.
func formMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidDate):
		return "Please enter a valid date (YYYY-MM-DD)."
	case errors.Is(err, core.ErrInvalidAmount):
		return "Please enter an amount greater than zero."
	case errors.Is(err, core.ErrInvalidCategory):
		return "Please pick one of the listed categories."
	case errors.Is(err, core.ErrNotFound):
		return "That expense no longer exists."
	default:
		return "Saving failed, please try again."
	}
}

func (s *Server) handleDeleteRecordForm(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.ledger.Delete(r.Context(), id); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			requestEvents(r).LogError(r.Context(), "Deleting record failed", err, log.OpDelete, log.LogFields{log.FieldRecordID: id})
		}
		http.Error(w, http.StatusText(status), status)
		return
	}
	redirectHome(w, r, returnFilter(p.Get("filter")))
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	theme, err := s.ledger.ToggleTheme(r.Context())
	if err != nil {
		requestEvents(r).LogError(r.Context(), "Theme toggle failed", err, log.OpUpdate, nil)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Theme changed", log.FieldTheme, theme.Name)
	redirectHome(w, r, returnFilter(p.Get("filter")))
}

// themeFor honours an explicit ?theme= and otherwise uses the saved theme.
// Only an unknown explicit theme is an error; a failing store falls back to
// the default theme.
func (s *Server) themeFor(ctx context.Context, q url.Values) (chart.Theme, error) {
	if name := q.Get("theme"); name != "" {
		return chart.ParseTheme(name)
	}
	theme, err := s.ledger.Theme(ctx)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Using default theme", log.FieldError, err)
	}
	return theme, nil
}

func (s *Server) handleChart(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		c, err := parseFilter(q)
		if err != nil {
			http.Error(w, "invalid filter: "+err.Error(), http.StatusBadRequest)
			return
		}
		theme, err := s.themeFor(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		version, err := s.ledger.StateVersion(r.Context())
		if err != nil {
			requestEvents(r).LogError(r.Context(), "Ledger version lookup failed", err, log.OpRender, log.LogFields{log.FieldChart: name})
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		key := chartKey(name, theme.Name, c, version)
		png, hit, err := s.charts.get(r.Context(), key, func(ctx context.Context, buf *bytes.Buffer) error {
			return s.ledger.Render(ctx, name, c, theme, buf)
		})
		if err != nil {
			requestEvents(r).LogError(r.Context(), "Chart request failed", err, log.OpRender, log.LogFields{log.FieldChart: name})
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		log.FromContext(r.Context()).DebugContext(r.Context(), "Chart served",
			log.FieldChart, name, log.FieldCacheHit, hit)

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		if hit {
			w.Header().Set("X-Cache", "HIT")
		} else {
			w.Header().Set("X-Cache", "MISS")
		}
		_, _ = w.Write(png)
	}
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	c, err := parseFilter(r.URL.Query())
	if err != nil {
		http.Error(w, "invalid filter: "+err.Error(), http.StatusBadRequest)
		return
	}
	var buf bytes.Buffer
	if err := s.ledger.ExportCSV(r.Context(), c, &buf); err != nil {
		requestEvents(r).LogError(r.Context(), "CSV export failed", err, log.OpExport, log.NewFields().WithFilter(c))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="expenses.csv"`)
	_, _ = w.Write(buf.Bytes())
}
