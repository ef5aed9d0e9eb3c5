package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the only accepted date format. Zero-padded and fixed width, so
// lexical order of two dates equals their chronological order.
const DateLayout = "2006-01-02"

const (
	Food Category = iota
	Travel
	Bills
	Shopping
	Other
)

type (
	// Category is one of the fixed expense categories.
	Category uint8

	// Record is one expense entry.
	Record struct {
		ID       string          `json:"id"`
		Date     string          `json:"date"`
		Amount   decimal.Decimal `json:"amount"`
		Category Category        `json:"category"`
		Notes    string          `json:"notes"`
	}

	// RecordInput carries the editable fields of a record, before validation.
	RecordInput struct {
		Date     string
		Amount   decimal.Decimal
		Category Category
		Notes    string
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCategory = errors.New("invalid category")
	ErrEmptyID         = errors.New("empty record id")
	ErrNotFound        = errors.New("record not found")
)

var categoryNames = [...]string{
	Food:     "Food",
	Travel:   "Travel",
	Bills:    "Bills",
	Shopping: "Shopping",
	Other:    "Other",
}

// Categories returns the closed category set in declaration order.
func Categories() []Category {
	return []Category{Food, Travel, Bills, Shopping, Other}
}

// Valid reports whether c belongs to the closed set.
func (c Category) Valid() bool {
	return int(c) < len(categoryNames)
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
	return categoryNames[c]
}

// ParseCategory converts a raw label into a Category. Matching ignores case
// and surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for i, name := range categoryNames {
		if strings.EqualFold(name, s) {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCategory, uint8(c))
	}
	return []byte(categoryNames[c]), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ValidateDate checks that s is a real calendar date in canonical YYYY-MM-DD form.
func ValidateDate(s string) error {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	// time.Parse accepts some non-canonical inputs; lexical ordering needs the canonical one.
	if t.Format(DateLayout) != s {
		return fmt.Errorf("%w: %q is not in YYYY-MM-DD form", ErrInvalidDate, s)
	}
	return nil
}

// Validate checks the editable fields.
func (in RecordInput) Validate() error {
	if err := ValidateDate(in.Date); err != nil {
		return err
	}
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !in.Category.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidCategory, uint8(in.Category))
	}
	return nil
}

// Validate checks every record invariant. Stores call it before writing.
func (r Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrEmptyID
	}
	return r.Input().Validate()
}

// Input returns the editable fields of r.
func (r Record) Input() RecordInput {
	return RecordInput{Date: r.Date, Amount: r.Amount, Category: r.Category, Notes: r.Notes}
}

// NewRecord validates in and assigns a fresh ID.
func NewRecord(in RecordInput) (Record, error) {
	in.Notes = strings.TrimSpace(in.Notes)
	if err := in.Validate(); err != nil {
		return Record{}, err
	}
	return Record{
		ID:       uuid.NewString(),
		Date:     in.Date,
		Amount:   in.Amount,
		Category: in.Category,
		Notes:    in.Notes,
	}, nil
}

// WithInput returns a copy of r with its editable fields replaced. The ID is kept.
func (r Record) WithInput(in RecordInput) (Record, error) {
	in.Notes = strings.TrimSpace(in.Notes)
	if err := in.Validate(); err != nil {
		return Record{}, err
	}
	r.Date = in.Date
	r.Amount = in.Amount
	r.Category = in.Category
	r.Notes = in.Notes
	return r, nil
}
