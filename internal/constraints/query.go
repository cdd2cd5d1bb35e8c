package constraints

import (
	"context"
	"time"

	"github.com/canonica-labs/canonica-validate/internal/engine"
	"github.com/canonica-labs/canonica-validate/internal/errors"
	"github.com/canonica-labs/canonica-validate/internal/validationctx"
)

// runSingleRow submits sql, expects at most one batch with at most one row,
// and returns that row's columns and values. ok is false when the result set
// is empty, signalling the caller should return Skipped per the universal
// execution protocol.
func runSingleRow(ctx context.Context, session engine.Session, sql string) (columns []string, row []any, ok bool, err error) {
	start := time.Now()
	df, err := session.SQL(ctx, sql)
	if err != nil {
		return nil, nil, false, errors.NewConstraintEvaluationError("failed to prepare query", err)
	}
	batches, err := session.Collect(ctx, df)
	if collector := validationctx.Collector(ctx); collector != nil {
		collector.RecordQuery(sql, time.Since(start).Milliseconds())
	}
	if err != nil {
		return nil, nil, false, errors.NewConstraintEvaluationError("query execution failed", err)
	}
	for _, batch := range batches {
		if batch.RowCount() == 0 {
			continue
		}
		return batch.Columns, batch.Rows[0], true, nil
	}
	return nil, nil, false, nil
}

// runRows submits sql and returns every row across every returned batch. An
// empty result (no batches, or every batch has zero rows) reports ok=false.
func runRows(ctx context.Context, session engine.Session, sql string) (columns []string, rows [][]any, ok bool, err error) {
	start := time.Now()
	df, err := session.SQL(ctx, sql)
	if err != nil {
		return nil, nil, false, errors.NewConstraintEvaluationError("failed to prepare query", err)
	}
	batches, err := session.Collect(ctx, df)
	if collector := validationctx.Collector(ctx); collector != nil {
		collector.RecordQuery(sql, time.Since(start).Milliseconds())
	}
	if err != nil {
		return nil, nil, false, errors.NewConstraintEvaluationError("query execution failed", err)
	}
	for _, batch := range batches {
		if len(columns) == 0 {
			columns = batch.Columns
		}
		rows = append(rows, batch.Rows...)
	}
	if len(rows) == 0 {
		return columns, nil, false, nil
	}
	return columns, rows, true, nil
}

// cellByName looks up a column's value in a row by name, given the result
// set's column list.
func cellByName(columns []string, row []any, name string) (any, bool) {
	for i, c := range columns {
		if c == name {
			return row[i], true
		}
	}
	return nil, false
}

// toFloat64 downcasts a named result cell to float64 via the engine's
// numeric downcast chain.
func toFloat64(columns []string, row []any, name string) (float64, error) {
	v, ok := cellByName(columns, row, name)
	if !ok {
		return 0, errors.NewInternalError("expected column "+name+" in result set", nil)
	}
	return engine.DowncastNumeric(name, v)
}

// toInt64 downcasts a named result cell to an integer count.
func toInt64(columns []string, row []any, name string) (int64, error) {
	f, err := toFloat64(columns, row, name)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// toFloat64Nullable downcasts a named cell, returning ok=false when the
// underlying value is nil (SQL NULL) rather than erroring.
func toFloat64Nullable(columns []string, row []any, name string) (value float64, ok bool, err error) {
	v, found := cellByName(columns, row, name)
	if !found || v == nil {
		return 0, false, nil
	}
	f, err := engine.DowncastNumeric(name, v)
	if err != nil {
		return 0, false, err
	}
	return f, true, nil
}
