package core

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

var csvHeader = []string{"Date", "Amount", "Category", "Notes"}

// WriteCSV serializes records as CSV. Every field is quoted and embedded
// quotes are doubled; rows are separated by a single newline.
func WriteCSV(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	writeCSVRow(bw, csvHeader)
	for _, r := range records {
		bw.WriteByte('\n')
		writeCSVRow(bw, []string{r.Date, r.Amount.String(), r.Category.String(), r.Notes})
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func writeCSVRow(w *bufio.Writer, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(cell, `"`, `""`))
		w.WriteByte('"')
	}
}

// DecodeRecords reads a JSON array of records, the format the widget keeps in
// its storage slot. Amounts may be JSON numbers or strings. Every record is
// validated; the first invalid one aborts decoding.
func DecodeRecords(r io.Reader) ([]Record, error) {
	var out []Record
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	for i, rec := range out {
		rec.Notes = strings.TrimSpace(rec.Notes)
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", i, rec.ID, err)
		}
		out[i] = rec
	}
	if out == nil {
		out = []Record{}
	}
	return out, nil
}

// EncodeRecords writes records as an indented JSON array.
func EncodeRecords(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
