package bulk

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/stockroom/pkg/invsdk"
	"github.com/aussiebroadwan/stockroom/pkg/slogx"
)

type fakeAdjuster struct {
	calls []invsdk.BulkAdjustRequest
	txs   []invsdk.Transaction
	err   error
}

func (f *fakeAdjuster) BulkAdjustStock(_ context.Context, req invsdk.BulkAdjustRequest) ([]invsdk.Transaction, error) {
	f.calls = append(f.calls, req)
	return f.txs, f.err
}

func mustParse(t *testing.T, in string) []ParsedRow {
	t.Helper()
	rows, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	return rows
}

const mixedCSV = "item_id,item_name,quantity_delta,reason\n" +
	"1,Hammer,5,recount\n" +
	",Nameless,3,\n" +
	"abc,Widget,2,\n" +
	"3,M4 Bolt,-2,\n"

func TestSubmitDryRun(t *testing.T) {
	t.Parallel()

	api := &fakeAdjuster{}
	res, err := NewSubmitter(api, slogx.Discard()).Submit(context.Background(), mustParse(t, mixedCSV), true)
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Zero(t, res.Applied)
	require.Empty(t, res.RowErrors)
	require.Empty(t, api.calls)
}

func TestSubmitApply(t *testing.T) {
	t.Parallel()

	api := &fakeAdjuster{txs: []invsdk.Transaction{{ID: 10, Item: 1, Delta: 5}, {ID: 11, Item: 3, Delta: -2}}}
	rows := mustParse(t, mixedCSV)
	res, err := NewSubmitter(api, slogx.Discard()).Submit(context.Background(), rows, false)
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Equal(t, 2, res.Applied)
	require.Equal(t, 2, res.Submitted)
	require.Zero(t, res.Unconfirmed())
	require.Empty(t, res.RowErrors)

	require.Len(t, api.calls, 1)
	want := invsdk.BulkAdjustRequest{
		Reason: Reason,
		Adjustments: []invsdk.Adjustment{
			{Item: 1, Delta: 5, Note: "recount"},
			{Item: 3, Delta: -2, Note: ""},
		},
	}
	if diff := cmp.Diff(want, api.calls[0]); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}

	statuses := Statuses(rows, res)
	got := make([]Status, 0, len(statuses))
	for _, s := range statuses {
		got = append(got, s.Status)
	}
	require.Equal(t, []Status{StatusApplied, StatusInvalid, StatusSkipped, StatusApplied}, got)
	require.Equal(t, "+5", statuses[0].Delta())
	require.Equal(t, "-2", statuses[3].Delta())
	require.Equal(t, MsgItemIDRequired, statuses[1].Message)
}

func TestSubmitSingleRow(t *testing.T) {
	t.Parallel()

	api := &fakeAdjuster{txs: []invsdk.Transaction{{ID: 1, Item: 1, Delta: 5}}}
	res, err := NewSubmitter(api, slogx.Discard()).Submit(context.Background(),
		mustParse(t, "item_id,quantity_delta\n1,5\n"), false)
	require.NoError(t, err)
	want := &Result{OK: true, Applied: 1, Submitted: 1}
	if diff := cmp.Diff(want, res, cmpopts.IgnoreUnexported(Result{})); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitNothingValid(t *testing.T) {
	t.Parallel()

	api := &fakeAdjuster{}
	res, err := NewSubmitter(api, slogx.Discard()).Submit(context.Background(),
		mustParse(t, "item_id,quantity_delta\n,5\nx,1\n"), false)
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Zero(t, res.Submitted)
	require.Empty(t, api.calls)
}

func TestSubmitPartialConfirmation(t *testing.T) {
	t.Parallel()

	api := &fakeAdjuster{txs: []invsdk.Transaction{{ID: 10, Item: 1, Delta: 5}}}
	res, err := NewSubmitter(api, slogx.Discard()).Submit(context.Background(), mustParse(t, mixedCSV), false)
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Equal(t, 1, res.Unconfirmed())
}

func TestSubmitValidationError(t *testing.T) {
	t.Parallel()

	api := &fakeAdjuster{err: &invsdk.ValidationError{
		StatusCode: 400,
		Fields: map[string]any{
			"adjustments": []any{
				map[string]any{},
				map[string]any{"item": []any{`Invalid pk "3" - object does not exist.`}},
			},
		},
	}}
	rows := mustParse(t, mixedCSV)
	res, err := NewSubmitter(api, slogx.Discard()).Submit(context.Background(), rows, false)

	var verr *invsdk.ValidationError
	require.ErrorAs(t, err, &verr)
	require.False(t, res.OK)
	require.Zero(t, res.Applied)
	require.Equal(t, err.Error(), res.Message)
	require.True(t, strings.HasPrefix(res.Message, "Validation failed: adjustments: "))

	want := []RowError{{RowNumber: 5, ItemID: "3", Message: `Invalid pk "3" - object does not exist.`}}
	if diff := cmp.Diff(want, res.RowErrors); diff != "" {
		t.Fatalf("row errors mismatch (-want +got):\n%s", diff)
	}

	statuses := Statuses(rows, res)
	require.Equal(t, StatusNotApplied, statuses[0].Status)
	require.Equal(t, StatusRejected, statuses[3].Status)
	require.Equal(t, want[0].Message, statuses[3].Message)
}

func TestSubmitTransportError(t *testing.T) {
	t.Parallel()

	netErr := &invsdk.NetworkError{Op: "POST /api/inventory/items/bulk_adjust_stock/", Err: errors.New("connection refused")}
	api := &fakeAdjuster{err: netErr}
	res, err := NewSubmitter(api, slogx.Discard()).Submit(context.Background(), mustParse(t, mixedCSV), false)
	require.ErrorIs(t, err, netErr)
	require.False(t, res.OK)
	require.Empty(t, res.RowErrors)
	require.Contains(t, res.Message, "connection refused")
}

func TestStatusesPreview(t *testing.T) {
	t.Parallel()

	rows := mustParse(t, mixedCSV)
	for _, res := range []*Result{nil, {OK: true, DryRun: true}} {
		statuses := Statuses(rows, res)
		require.Len(t, statuses, len(rows))
		require.Equal(t, StatusValid, statuses[0].Status)
		require.Equal(t, StatusInvalid, statuses[1].Status)
		require.Equal(t, StatusValid, statuses[2].Status)
	}
}
