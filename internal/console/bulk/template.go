package bulk

import (
	"encoding/csv"
	"io"
)

// WriteTemplate writes an example CSV an operator can fill in.
func WriteTemplate(w io.Writer) error {
	cw := csv.NewWriter(w)
	records := [][]string{
		Columns,
		{"1", "Hammer", "+5", "recount"},
		{"3", "M4 Bolt", "-1,200", "stocktake"},
	}
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return cw.Error()
}
