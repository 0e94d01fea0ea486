package bulk

import "strconv"

// Status of a row in the upload table.
type Status string

const (
	StatusInvalid    Status = "invalid"
	StatusValid      Status = "valid"
	StatusApplied    Status = "applied"
	StatusRejected   Status = "rejected"
	StatusNotApplied Status = "not applied"
	StatusSkipped    Status = "skipped"
)

// RowStatus is one line of the status table.
type RowStatus struct {
	Row     ParsedRow
	Status  Status
	Message string
}

// Statuses overlays a submission result onto the parsed rows. With a nil
// result (or a dry run) rows are marked valid or invalid only.
func Statuses(rows []ParsedRow, res *Result) []RowStatus {
	serverErrs := make(map[int]string)
	if res != nil {
		for _, re := range res.RowErrors {
			serverErrs[re.RowNumber] = re.Message
		}
	}

	out := make([]RowStatus, 0, len(rows))
	for _, row := range rows {
		st := RowStatus{Row: row}
		switch {
		case !row.Valid():
			st.Status, st.Message = StatusInvalid, row.ClientError
		case res == nil || res.DryRun:
			st.Status = StatusValid
		case !res.submittedRows[row.RowNumber]:
			st.Status, st.Message = StatusSkipped, "item_id must be a numeric id"
		case serverErrs[row.RowNumber] != "":
			st.Status, st.Message = StatusRejected, serverErrs[row.RowNumber]
		case res.OK:
			st.Status = StatusApplied
		default:
			st.Status = StatusNotApplied
		}
		out = append(out, st)
	}
	return out
}

// Delta renders the parsed quantity with an explicit sign, or "" when absent.
func (s RowStatus) Delta() string {
	if s.Row.QuantityDelta == nil {
		return ""
	}
	d := *s.Row.QuantityDelta
	if d > 0 {
		return "+" + strconv.Itoa(d)
	}
	return strconv.Itoa(d)
}
