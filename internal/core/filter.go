package core

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// FilterCriteria is a transient query over records. Zero values impose no
// constraint: an empty string, a nil pointer.
type FilterCriteria struct {
	From     string // inclusive lower date bound, YYYY-MM-DD
	To       string // inclusive upper date bound, YYYY-MM-DD
	Category *Category
	Min      *decimal.Decimal // inclusive
	Max      *decimal.Decimal // inclusive
	Query    string           // case-insensitive substring of Notes
}

// FilterParams are raw filter inputs as typed by a user. Blank fields are
// unconstrained.
type FilterParams struct {
	From, To, Category, Min, Max, Query string
}

// ParseFilter validates p into criteria. Errors wrap the matching sentinel so
// callers can report them as bad input.
func ParseFilter(p FilterParams) (FilterCriteria, error) {
	c := FilterCriteria{
		From:  strings.TrimSpace(p.From),
		To:    strings.TrimSpace(p.To),
		Query: p.Query,
	}
	if c.From != "" {
		if err := ValidateDate(c.From); err != nil {
			return FilterCriteria{}, fmt.Errorf("from: %w", err)
		}
	}
	if c.To != "" {
		if err := ValidateDate(c.To); err != nil {
			return FilterCriteria{}, fmt.Errorf("to: %w", err)
		}
	}
	if s := strings.TrimSpace(p.Category); s != "" && !strings.EqualFold(s, "all") {
		cat, err := ParseCategory(s)
		if err != nil {
			return FilterCriteria{}, err
		}
		c.Category = &cat
	}
	var err error
	if c.Min, err = ParseBound(p.Min); err != nil {
		return FilterCriteria{}, fmt.Errorf("min: %w", err)
	}
	if c.Max, err = ParseBound(p.Max); err != nil {
		return FilterCriteria{}, fmt.Errorf("max: %w", err)
	}
	return c, nil
}

// IsEmpty reports whether c constrains nothing.
func (c FilterCriteria) IsEmpty() bool {
	return c.From == "" && c.To == "" && c.Category == nil &&
		c.Min == nil && c.Max == nil && c.normalizedQuery() == ""
}

// Key returns a canonical representation of c, suitable as a cache key.
func (c FilterCriteria) Key() string {
	var b strings.Builder
	b.WriteString("from=")
	b.WriteString(c.From)
	b.WriteString("&to=")
	b.WriteString(c.To)
	b.WriteString("&category=")
	if c.Category != nil {
		b.WriteString(c.Category.String())
	}
	b.WriteString("&min=")
	if c.Min != nil {
		b.WriteString(c.Min.String())
	}
	b.WriteString("&max=")
	if c.Max != nil {
		b.WriteString(c.Max.String())
	}
	b.WriteString("&q=")
	b.WriteString(c.normalizedQuery())
	return b.String()
}

func (c FilterCriteria) normalizedQuery() string {
	return strings.ToLower(strings.TrimSpace(c.Query))
}

// Match reports whether r satisfies every active criterion.
func (c FilterCriteria) Match(r Record) bool {
	// Date bounds compare as strings: valid because dates are fixed-width and zero-padded.
	if c.From != "" && r.Date < c.From {
		return false
	}
	if c.To != "" && r.Date > c.To {
		return false
	}
	if c.Category != nil && r.Category != *c.Category {
		return false
	}
	if c.Min != nil && r.Amount.LessThan(*c.Min) {
		return false
	}
	if c.Max != nil && r.Amount.GreaterThan(*c.Max) {
		return false
	}
	if q := c.normalizedQuery(); q != "" && !strings.Contains(strings.ToLower(r.Notes), q) {
		return false
	}
	return true
}

// Select returns the records matching c, sorted by date. Records sharing a
// date keep their relative input order. The input slice is not modified.
func Select(records []Record, c FilterCriteria) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if c.Match(r) {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b Record) int {
		return strings.Compare(a.Date, b.Date)
	})
	return out
}
