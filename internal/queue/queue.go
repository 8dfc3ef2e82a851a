// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package queue

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/content-engine/pkg/types"
)

// maxCellLen is the backing store's cell size limit. Error logs are
// truncated to fit.
const maxCellLen = 50000

// Table is the raw tabular store the adapter sits on: the full grid of cell
// values, and single-cell writes addressed by row number and column index.
// Row numbers are 1-based and include the header row.
type Table interface {
	ReadAll(ctx context.Context) ([][]string, error)
	WriteCell(ctx context.Context, rowNumber, col int, value string) error
}

// StoreError reports a failed read or write against the backing table. The
// adapter performs no retry; retry policy belongs to the caller.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("queue store: %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// Adapter reads and writes queue items over a Table. All writes are
// independent single-cell updates; there is no batching and no row locking.
type Adapter struct {
	table Table
	out   io.Writer
}

// NewAdapter wraps a table. Progress messages go to w.
func NewAdapter(table Table, w io.Writer) *Adapter {
	if w == nil {
		w = io.Discard
	}
	return &Adapter{table: table, out: w}
}

// ListItems reads the entire table and maps each data row into a QueueItem.
// The header row is skipped. Rows shorter than the schema width map their
// missing columns to empty strings rather than failing.
func (a *Adapter) ListItems(ctx context.Context) ([]types.QueueItem, error) {
	rows, err := a.table.ReadAll(ctx)
	if err != nil {
		return nil, &StoreError{Op: "read table", Err: err}
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	items := make([]types.QueueItem, 0, len(rows)-1)
	for i, row := range rows[1:] {
		items = append(items, mapRow(i+2, row))
	}
	return items, nil
}

// SelectPending keeps only items whose status cell matches "Pending"
// (case-insensitive, whitespace-trimmed), preserving row order: ascending
// row number is the queue's FIFO order.
func SelectPending(items []types.QueueItem) []types.QueueItem {
	var pending []types.QueueItem
	for _, item := range items {
		if types.IsPending(item.Status) {
			pending = append(pending, item)
		}
	}
	return pending
}

// WriteField writes one field's value to the single cell addressed by the
// item's row number and the field's column binding.
func (a *Adapter) WriteField(ctx context.Context, item types.QueueItem, f Field, value string) error {
	col, err := Column(f)
	if err != nil {
		return &StoreError{Op: "resolve column", Err: err}
	}
	if err := a.table.WriteCell(ctx, item.RowNumber, col, value); err != nil {
		return &StoreError{Op: fmt.Sprintf("write %s row %d", f, item.RowNumber), Err: err}
	}
	return nil
}

// SetStatus records a state transition. It is called at every transition so
// external observers polling the store always see current progress.
func (a *Adapter) SetStatus(ctx context.Context, item types.QueueItem, status types.Status) error {
	if err := a.WriteField(ctx, item, FieldStatus, string(status)); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "[row %d] status -> %s\n", item.RowNumber, status)
	return nil
}

// SaveQuestionData persists the question-research digest.
func (a *Adapter) SaveQuestionData(ctx context.Context, item types.QueueItem, digest string) error {
	return a.WriteField(ctx, item, FieldQuestionData, digest)
}

// SaveCompetitiveData persists the combined competitive research text.
func (a *Adapter) SaveCompetitiveData(ctx context.Context, item types.QueueItem, text string) error {
	return a.WriteField(ctx, item, FieldCompetitiveData, text)
}

// SaveDocRef persists the published document reference.
func (a *Adapter) SaveDocRef(ctx context.Context, item types.QueueItem, ref string) error {
	return a.WriteField(ctx, item, FieldDocRef, ref)
}

// SaveOptimizationDate persists the run date in ISO format (2026-08-30).
func (a *Adapter) SaveOptimizationDate(ctx context.Context, item types.QueueItem, day time.Time) error {
	value := day.Format("2006-01-02")
	if err := a.WriteField(ctx, item, FieldOptimizationDate, value); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "[row %d] optimization date -> %s\n", item.RowNumber, value)
	return nil
}

// SaveError writes the failure message (truncated to the cell limit) to the
// error field and sets status Error.
func (a *Adapter) SaveError(ctx context.Context, item types.QueueItem, msg string) error {
	if len(msg) > maxCellLen {
		msg = msg[:maxCellLen]
	}
	if err := a.WriteField(ctx, item, FieldErrorLog, msg); err != nil {
		return err
	}
	return a.SetStatus(ctx, item, types.StatusError)
}

// ResetItem moves a terminal item back to Pending and clears its error log.
// This is the human requeue action, not part of the pipeline's own state
// machine.
func (a *Adapter) ResetItem(ctx context.Context, item types.QueueItem) error {
	if err := a.WriteField(ctx, item, FieldErrorLog, ""); err != nil {
		return err
	}
	return a.SetStatus(ctx, item, types.StatusPending)
}

// mapRow resolves a flat row into a typed item by fixed column position.
func mapRow(rowNumber int, row []string) types.QueueItem {
	cell := func(f Field) string {
		idx := columns[f]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	return types.QueueItem{
		RowNumber: rowNumber,

		Title:  cell(FieldTitle),
		URL:    cell(FieldURL),
		PostID: cell(FieldPostID),

		TargetKeyword:     cell(FieldTargetKeyword),
		SecondaryKeywords: cell(FieldSecondaryKeywords),
		Tier:              cell(FieldTier),
		Platform:          types.PlatformCategory(cell(FieldPlatform)),
		Section:           cell(FieldSection),
		PostType:          cell(FieldPostType),
		Description:       cell(FieldDescription),
		Notes:             cell(FieldNotes),

		Google: types.SearchMetrics{
			Impressions: cell(FieldGoogleImpressions),
			Clicks:      cell(FieldGoogleClicks),
			CTR:         cell(FieldGoogleCTR),
			Position:    cell(FieldGooglePosition),
		},
		Bing: types.SearchMetrics{
			Impressions: cell(FieldBingImpressions),
			Clicks:      cell(FieldBingClicks),
			CTR:         cell(FieldBingCTR),
			Position:    cell(FieldBingPosition),
		},

		QuestionData:   cell(FieldQuestionData),
		KeywordMetrics: cell(FieldKeywordData),
		Competitive:    cell(FieldCompetitiveData),

		Status:           cell(FieldStatus),
		DocRef:           cell(FieldDocRef),
		ErrorLog:         cell(FieldErrorLog),
		OptimizationDate: cell(FieldOptimizationDate),
	}
}
