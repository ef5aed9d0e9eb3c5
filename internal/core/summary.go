package core

import "github.com/shopspring/decimal"

// Summary holds the headline figures of a filtered selection.
type Summary struct {
	Total  decimal.Decimal `json:"total"`
	Count  int             `json:"count"`
	Top    CategoryTotal   `json:"top"`
	HasTop bool            `json:"has_top"`
}

// Summarize reduces a Select result into its KPIs.
func Summarize(selected []Record) Summary {
	byCat := AggregateByCategory(selected)
	top, ok := byCat.Top()
	return Summary{
		Total:  byCat.Total(),
		Count:  len(selected),
		Top:    top,
		HasTop: ok,
	}
}
