package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id, date, amount string, c Category, notes string) Record {
	return Record{ID: id, Date: date, Amount: decimal.RequireFromString(amount), Category: c, Notes: notes}
}

func scenarioRecords() []Record {
	return []Record{
		rec("a", "2024-01-01", "100", Food, "groceries"),
		rec("b", "2024-01-01", "50", Travel, "Bus pass"),
		rec("c", "2024-01-02", "25", Food, ""),
	}
}

func ids(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func TestSelect_EmptyCriteriaSortsStable(t *testing.T) {
	records := []Record{
		rec("1", "2024-03-01", "1", Food, ""),
		rec("2", "2024-01-15", "1", Food, ""),
		rec("3", "2024-03-01", "1", Bills, ""),
		rec("4", "2024-01-15", "1", Other, ""),
		rec("5", "2023-12-31", "1", Other, ""),
	}
	got := Select(records, FilterCriteria{})
	assert.Equal(t, []string{"5", "2", "4", "1", "3"}, ids(got))
	// input untouched
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(records))
}

func TestSelect_Criteria(t *testing.T) {
	tests := []struct {
		name     string
		criteria FilterCriteria
		want     []string
	}{
		{"min bound", FilterCriteria{Min: ptr(decimal.NewFromInt(60))}, []string{"a"}},
		{"min inclusive", FilterCriteria{Min: ptr(decimal.NewFromInt(50))}, []string{"a", "b"}},
		{"max inclusive", FilterCriteria{Max: ptr(decimal.NewFromInt(50))}, []string{"b", "c"}},
		{"category bills", FilterCriteria{Category: ptr(Bills)}, []string{}},
		{"category food", FilterCriteria{Category: ptr(Food)}, []string{"a", "c"}},
		{"from inclusive", FilterCriteria{From: "2024-01-02"}, []string{"c"}},
		{"to inclusive", FilterCriteria{To: "2024-01-01"}, []string{"a", "b"}},
		{"query case insensitive", FilterCriteria{Query: "  BUS "}, []string{"b"}},
		{"query blank is no constraint", FilterCriteria{Query: "   "}, []string{"a", "b", "c"}},
		{"query misses empty notes", FilterCriteria{Query: "s"}, []string{"a", "b"}},
		{"combined", FilterCriteria{From: "2024-01-01", To: "2024-01-31", Category: ptr(Food), Max: ptr(decimal.NewFromInt(30))}, []string{"c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(scenarioRecords(), tt.criteria)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestSelect_EmptyInput(t *testing.T) {
	got := Select(nil, FilterCriteria{From: "2024-01-01"})
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterCriteria_KeyAndEmpty(t *testing.T) {
	assert.True(t, FilterCriteria{}.IsEmpty())
	assert.True(t, FilterCriteria{Query: "  "}.IsEmpty())
	assert.False(t, FilterCriteria{Min: ptr(decimal.Zero)}.IsEmpty())

	a := FilterCriteria{Query: "Bus", Category: ptr(Travel)}
	b := FilterCriteria{Query: " bus ", Category: ptr(Travel)}
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), FilterCriteria{}.Key())
}

func TestParseFilter(t *testing.T) {
	c, err := ParseFilter(FilterParams{})
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	c, err = ParseFilter(FilterParams{From: "2024-01-01", To: " 2024-01-31 ", Category: "travel", Min: "10", Max: "99,5", Query: "Bus"})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31", c.To)
	require.NotNil(t, c.Category)
	assert.Equal(t, Travel, *c.Category)
	assert.Equal(t, "99.5", c.Max.String())
	assert.Equal(t, []string{"b"}, ids(Select(scenarioRecords(), c)))

	c, err = ParseFilter(FilterParams{Category: "All"})
	require.NoError(t, err)
	assert.Nil(t, c.Category)

	tests := []struct {
		name string
		p    FilterParams
		want error
	}{
		{"bad from", FilterParams{From: "01/02/2024"}, ErrInvalidDate},
		{"bad to", FilterParams{To: "2024-02-30"}, ErrInvalidDate},
		{"bad category", FilterParams{Category: "Rent"}, ErrInvalidCategory},
		{"bad min", FilterParams{Min: "ten"}, ErrInvalidAmount},
		{"bad max", FilterParams{Max: "1.2.3"}, ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFilter(tt.p)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
