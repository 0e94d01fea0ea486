package bulk

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"

	"github.com/aussiebroadwan/stockroom/pkg/invsdk"
)

// Reason tags every transaction created by a CSV upload.
const Reason = "csv"

// Adjuster posts a batch of stock adjustments.
type Adjuster interface {
	BulkAdjustStock(ctx context.Context, req invsdk.BulkAdjustRequest) ([]invsdk.Transaction, error)
}

// RowError is a server-side rejection correlated back to a source row.
type RowError struct {
	RowNumber int
	ItemID    string
	Message   string
}

// Result is the outcome of Submit.
type Result struct {
	OK     bool
	DryRun bool
	// Applied is the number of transactions the API reported as created.
	Applied int
	// Submitted is the number of adjustments sent.
	Submitted int
	RowErrors []RowError
	// Message is the aggregated failure message when OK is false.
	Message string

	// submittedRows holds the row numbers that were part of the batch.
	submittedRows map[int]bool
}

// Unconfirmed is the number of submitted adjustments the API did not report
// back. The API answers with created transactions only, so a shortfall cannot
// be attributed to particular rows.
func (r *Result) Unconfirmed() int {
	if r == nil || !r.OK || r.Submitted <= r.Applied {
		return 0
	}
	return r.Submitted - r.Applied
}

// Submitter applies parsed rows to the API.
type Submitter struct {
	api    Adjuster
	logger *slog.Logger
}

func NewSubmitter(api Adjuster, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{api: api, logger: logger}
}

// Submit applies the valid rows as one batch. With dryRun set nothing is sent
// and the result reports zero applied rows.
//
// Rows with a client error or a non-numeric item id are left out of the batch.
// When no row qualifies no request is made. On failure the returned Result is
// still populated: Message carries the aggregated error and RowErrors maps any
// per-adjustment errors back to source rows.
func (s *Submitter) Submit(ctx context.Context, rows []ParsedRow, dryRun bool) (*Result, error) {
	if dryRun {
		return &Result{OK: true, DryRun: true}, nil
	}

	var (
		batch     []invsdk.Adjustment
		batchRows []ParsedRow
	)
	for _, row := range rows {
		if !row.Valid() {
			continue
		}
		id, err := strconv.ParseInt(row.ItemID, 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		batch = append(batch, invsdk.Adjustment{Item: id, Delta: *row.QuantityDelta, Note: row.Reason})
		batchRows = append(batchRows, row)
	}

	res := &Result{Submitted: len(batch), submittedRows: make(map[int]bool, len(batchRows))}
	for _, row := range batchRows {
		res.submittedRows[row.RowNumber] = true
	}
	if len(batch) == 0 {
		res.OK = true
		return res, nil
	}

	txs, err := s.api.BulkAdjustStock(ctx, invsdk.BulkAdjustRequest{Adjustments: batch, Reason: Reason})
	if err != nil {
		res.Message = err.Error()

		var verr *invsdk.ValidationError
		if errors.As(err, &verr) {
			for i, msg := range verr.IndexedErrors("adjustments") {
				if i < 0 || i >= len(batchRows) {
					continue
				}
				res.RowErrors = append(res.RowErrors, RowError{
					RowNumber: batchRows[i].RowNumber,
					ItemID:    batchRows[i].ItemID,
					Message:   msg,
				})
			}
			sort.Slice(res.RowErrors, func(a, b int) bool {
				return res.RowErrors[a].RowNumber < res.RowErrors[b].RowNumber
			})
		}
		s.logger.Warn("bulk adjustment rejected", "submitted", len(batch), "row_errors", len(res.RowErrors), "error", err)
		return res, err
	}

	res.OK = true
	res.Applied = len(txs)
	if n := res.Unconfirmed(); n > 0 {
		s.logger.Warn("bulk adjustment partially confirmed", "submitted", res.Submitted, "applied", res.Applied)
	}
	s.logger.Info("bulk adjustment applied", "applied", res.Applied)
	return res, nil
}
