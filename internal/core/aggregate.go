package core

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// CategoryTotal is the summed amount of one category.
	CategoryTotal struct {
		Category Category        `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
	}

	// CategoryAggregate lists per-category sums in first-seen order. Only
	// categories present in the input appear.
	CategoryAggregate []CategoryTotal

	// DailyTotal is the summed amount of one calendar date.
	DailyTotal struct {
		Date   string          `json:"date"`
		Amount decimal.Decimal `json:"amount"`
	}

	// TemporalAggregate lists per-date sums in strictly increasing date order.
	// Dates without activity are absent.
	TemporalAggregate []DailyTotal
)

// AggregateByCategory sums amounts grouped by category.
func AggregateByCategory(records []Record) CategoryAggregate {
	out := CategoryAggregate{}
	index := make(map[Category]int)
	for _, r := range records {
		i, ok := index[r.Category]
		if !ok {
			index[r.Category] = len(out)
			out = append(out, CategoryTotal{Category: r.Category, Amount: r.Amount})
			continue
		}
		out[i].Amount = out[i].Amount.Add(r.Amount)
	}
	return out
}

// Total is the sum over all categories.
func (a CategoryAggregate) Total() decimal.Decimal {
	total := decimal.Zero
	for _, ct := range a {
		total = total.Add(ct.Amount)
	}
	return total
}

// Get returns the sum for c, if c is present.
func (a CategoryAggregate) Get(c Category) (decimal.Decimal, bool) {
	for _, ct := range a {
		if ct.Category == c {
			return ct.Amount, true
		}
	}
	return decimal.Zero, false
}

// Top returns the category with the largest sum. Ties go to the category seen first.
func (a CategoryAggregate) Top() (CategoryTotal, bool) {
	if len(a) == 0 {
		return CategoryTotal{}, false
	}
	top := a[0]
	for _, ct := range a[1:] {
		if ct.Amount.GreaterThan(top.Amount) {
			top = ct
		}
	}
	return top, true
}

// AggregateByDate sums amounts grouped by exact date, ascending.
func AggregateByDate(records []Record) TemporalAggregate {
	sums := make(map[string]decimal.Decimal)
	for _, r := range records {
		if cur, ok := sums[r.Date]; ok {
			sums[r.Date] = cur.Add(r.Amount)
		} else {
			sums[r.Date] = r.Amount
		}
	}
	out := make(TemporalAggregate, 0, len(sums))
	for date, amount := range sums {
		out = append(out, DailyTotal{Date: date, Amount: amount})
	}
	slices.SortFunc(out, func(a, b DailyTotal) int {
		return strings.Compare(a.Date, b.Date)
	})
	return out
}

// Total is the sum over all dates.
func (a TemporalAggregate) Total() decimal.Decimal {
	total := decimal.Zero
	for _, dt := range a {
		total = total.Add(dt.Amount)
	}
	return total
}

// Max returns the largest daily sum, or zero for an empty aggregate.
func (a TemporalAggregate) Max() decimal.Decimal {
	max := decimal.Zero
	for _, dt := range a {
		if dt.Amount.GreaterThan(max) {
			max = dt.Amount
		}
	}
	return max
}
