// Package bulk turns a stock adjustment CSV into validated rows and applies
// them to the inventory API as one batch.
//
// The expected columns are item_id, item_name, quantity_delta and reason.
// Column order does not matter and unknown columns are ignored.
package bulk

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Column names of the bulk adjustment CSV.
const (
	ColItemID        = "item_id"
	ColItemName      = "item_name"
	ColQuantityDelta = "quantity_delta"
	ColReason        = "reason"
)

// Columns lists the template columns in order.
var Columns = []string{ColItemID, ColItemName, ColQuantityDelta, ColReason}

// Row validation messages.
const (
	MsgItemIDRequired = "item_id required"
	MsgDeltaRequired  = "quantity_delta required (integer)"
)

// ErrEmptyCSV is returned when the input holds no data rows.
var ErrEmptyCSV = errors.New("CSV is empty")

// ParseError is a structural failure of the input (bad quoting, unreadable
// stream). No rows are produced when it occurs.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// ParsedRow is one data row. RowNumber counts the header as row 1.
// ClientError is set when ItemID is empty or QuantityDelta is nil.
type ParsedRow struct {
	RowNumber     int
	ItemID        string
	ItemName      string
	QuantityDelta *int
	Reason        string
	ClientError   string
}

// Valid reports whether the row passed client-side validation.
func (r ParsedRow) Valid() bool { return r.ClientError == "" }

// Parse reads a CSV with a header row and returns one row per data record in
// source order. Header names are matched after trimming and lower-casing.
// A byte order mark is honoured, so UTF-16 exports decode as well as UTF-8.
// Blank lines are skipped and records may have fewer or more fields than the
// header.
func Parse(r io.Reader) ([]ParsedRow, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyCSV
	}
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	field := func(rec []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []ParsedRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Err: err}
		}

		row := ParsedRow{
			RowNumber: len(rows) + 2,
			ItemID:    field(rec, ColItemID),
			ItemName:  field(rec, ColItemName),
			Reason:    field(rec, ColReason),
		}
		if n, ok := ParseDelta(field(rec, ColQuantityDelta)); ok {
			row.QuantityDelta = &n
		}

		switch {
		case row.ItemID == "":
			row.ClientError = MsgItemIDRequired
		case row.QuantityDelta == nil:
			row.ClientError = MsgDeltaRequired
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrEmptyCSV
	}
	return rows, nil
}

// Counts returns the number of valid and invalid rows.
func Counts(rows []ParsedRow) (valid, invalid int) {
	for _, r := range rows {
		if r.Valid() {
			valid++
		} else {
			invalid++
		}
	}
	return valid, invalid
}
