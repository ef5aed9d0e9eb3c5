package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateDate(t *testing.T) {
	cases := []struct {
		d  string
		ok bool
	}{
		{"2025-01-01", true},
		{"2024-02-29", true},
		{"2025-12-31", true},
		{"", false},
		{"2025-13-01", false},
		{"2023-02-29", false},
		{"2025-1-01", false},
		{"01/02/2025", false},
		{"2025-01-01T00:00:00Z", false},
	}
	for i, tc := range cases {
		err := ValidateDate(tc.d)
		if tc.ok && err != nil {
			t.Fatalf("case %d (%q) expected ok, got %v", i, tc.d, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("case %d (%q) expected error", i, tc.d)
			}
			if !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("case %d expected ErrInvalidDate, got %v", i, err)
			}
		}
	}
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		got, err := ParseCategory(c.String())
		if err != nil || got != c {
			t.Fatalf("round trip %v: got %v err=%v", c, got, err)
		}
	}
	if got, err := ParseCategory("  shopping "); err != nil || got != Shopping {
		t.Fatalf("expected case-insensitive match, got %v err=%v", got, err)
	}
	if _, err := ParseCategory("Rent"); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if Category(42).Valid() {
		t.Fatalf("out-of-range category must not be valid")
	}
	if Category(42).String() != "Category(42)" {
		t.Fatalf("unexpected string for invalid category: %s", Category(42))
	}
}

func TestNewRecordValidate(t *testing.T) {
	good := RecordInput{
		Date:     "2025-01-01",
		Amount:   decimal.RequireFromString("12.50"),
		Category: Food,
		Notes:    "  lunch  ",
	}
	rec, err := NewRecord(good)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if rec.ID == "" {
		t.Fatalf("expected an assigned id")
	}
	if rec.Notes != "lunch" {
		t.Fatalf("expected trimmed notes, got %q", rec.Notes)
	}
	other, _ := NewRecord(good)
	if other.ID == rec.ID {
		t.Fatalf("ids must be unique")
	}

	bads := []struct {
		in   RecordInput
		want error
	}{
		{RecordInput{Date: "", Amount: decimal.NewFromInt(1), Category: Food}, ErrInvalidDate},
		{RecordInput{Date: "2025-01-01", Amount: decimal.Zero, Category: Food}, ErrInvalidAmount},
		{RecordInput{Date: "2025-01-01", Amount: decimal.NewFromInt(-3), Category: Food}, ErrInvalidAmount},
		{RecordInput{Date: "2025-01-01", Amount: decimal.NewFromInt(1), Category: Category(9)}, ErrInvalidCategory},
	}
	for i, tc := range bads {
		if _, err := NewRecord(tc.in); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}

	if err := (Record{Date: "2025-01-01", Amount: decimal.NewFromInt(1)}).Validate(); !errors.Is(err, ErrEmptyID) {
		t.Fatalf("expected ErrEmptyID, got %v", err)
	}
}

func TestWithInputKeepsID(t *testing.T) {
	rec, err := NewRecord(RecordInput{Date: "2025-01-01", Amount: decimal.NewFromInt(5), Category: Bills})
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	updated, err := rec.WithInput(RecordInput{Date: "2025-02-01", Amount: decimal.NewFromInt(7), Category: Travel, Notes: "train"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != rec.ID || updated.Date != "2025-02-01" || updated.Category != Travel || updated.Notes != "train" {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if _, err := rec.WithInput(RecordInput{Date: "bad", Amount: decimal.NewFromInt(1), Category: Food}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestCategoryJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		C Category `json:"c"`
	}{Travel})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"c":"Travel"}` {
		t.Fatalf("unexpected json: %s", b)
	}
	var out struct {
		C Category `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"c":"Bills"}`), &out); err != nil || out.C != Bills {
		t.Fatalf("unmarshal: %v %v", out.C, err)
	}
	if err := json.Unmarshal([]byte(`{"c":"Rent"}`), &out); err == nil {
		t.Fatalf("expected error for unknown category")
	}
}
