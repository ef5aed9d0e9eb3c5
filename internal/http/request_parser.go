package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// maxBodyBytes bounds record bodies; a record is a few hundred bytes.
const maxBodyBytes = 64 << 10

// parseFilter reads from, to, category, min, max and q from the query string.
func parseFilter(q url.Values) (core.FilterCriteria, error) {
	return core.ParseFilter(core.FilterParams{
		From:     q.Get("from"),
		To:       q.Get("to"),
		Category: q.Get("category"),
		Min:      q.Get("min"),
		Max:      q.Get("max"),
		Query:    sanitizeInput(q.Get("q")),
	})
}

// filterQuery is the inverse of parseFilter, for links that must keep the
// active selection.
func filterQuery(c core.FilterCriteria) url.Values {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set("from", c.From)
	set("to", c.To)
	if c.Category != nil {
		v.Set("category", c.Category.String())
	}
	if c.Min != nil {
		v.Set("min", c.Min.String())
	}
	if c.Max != nil {
		v.Set("max", c.Max.String())
	}
	set("q", strings.TrimSpace(c.Query))
	return v
}

// RequestBodyParser reads a JSON object or a form-encoded body once and
// exposes its fields by name.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
	}
	return p
}

// Parse decodes the body. JSON numbers are kept as written so amounts stay exact.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("decode JSON body: %w", err)
		}
		return p.err
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	if p.err != nil {
		p.err = fmt.Errorf("decode form body: %w", p.err)
	}
	return p.err
}

// Get returns a trimmed, control-character-free field value.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		return sanitizeInput(stringValue(p.jsonData[key]))
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// RecordInput validates the date, amount, category and notes fields.
// Errors wrap the core validation sentinels.
func (p *RequestBodyParser) RecordInput() (core.RecordInput, error) {
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.RecordInput{}, fmt.Errorf("amount %q: %w", p.Get("amount"), err)
	}
	category, err := core.ParseCategory(p.Get("category"))
	if err != nil {
		return core.RecordInput{}, err
	}
	in := core.RecordInput{
		Date:     p.Get("date"),
		Amount:   amount,
		Category: category,
		Notes:    p.Get("notes"),
	}
	if err := in.Validate(); err != nil {
		return core.RecordInput{}, err
	}
	return in, nil
}

// sanitizeInput trims and drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
