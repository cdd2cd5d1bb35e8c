package constraints

import (
	"context"
	"fmt"

	"github.com/canonica-labs/canonica-validate/internal/engine"
	"github.com/canonica-labs/canonica-validate/internal/errors"
	"github.com/canonica-labs/canonica-validate/internal/sqlsafe"
	"github.com/canonica-labs/canonica-validate/internal/validationctx"
)

type temporalMode string

const (
	temporalBeforeAfter    temporalMode = "before_after"
	temporalBusinessHours  temporalMode = "business_hours"
	temporalDateRange      temporalMode = "date_range"
	temporalMaxTimeGap     temporalMode = "max_time_gap"
	temporalEventSequence  temporalMode = "event_sequence"
)

// TemporalOrdering validates chronological relationships within a table.
type TemporalOrdering struct {
	mode temporalMode

	beforeColumn, afterColumn string
	allowEqual                bool
	toleranceSeconds          int64

	timestampColumn string
	startTime, endTime string
	weekdaysOnly    bool
	tz              string

	minDate, maxDate string

	groupByColumn  string
	maxGapSeconds  int64

	eventColumn, eventTimestampColumn string
	expectedSequence                  []string
}

func NewBeforeAfter(beforeColumn, afterColumn string, allowEqual bool, toleranceSeconds int64) (*TemporalOrdering, error) {
	if err := sqlsafe.ValidateIdentifier(beforeColumn); err != nil {
		return nil, err
	}
	if err := sqlsafe.ValidateIdentifier(afterColumn); err != nil {
		return nil, err
	}
	return &TemporalOrdering{mode: temporalBeforeAfter, beforeColumn: beforeColumn, afterColumn: afterColumn, allowEqual: allowEqual, toleranceSeconds: toleranceSeconds}, nil
}

// NewBusinessHours checks that timestampColumn falls within [startTime,
// endTime] each day. tz, if non-empty, converts the column to that IANA zone
// before extracting the time-of-day; an empty tz evaluates the column as
// stored, with no conversion.
func NewBusinessHours(timestampColumn, startTime, endTime string, weekdaysOnly bool, tz string) (*TemporalOrdering, error) {
	if err := sqlsafe.ValidateIdentifier(timestampColumn); err != nil {
		return nil, err
	}
	return &TemporalOrdering{mode: temporalBusinessHours, timestampColumn: timestampColumn, startTime: startTime, endTime: endTime, weekdaysOnly: weekdaysOnly, tz: tz}, nil
}

func NewDateRange(timestampColumn, minDate, maxDate string) (*TemporalOrdering, error) {
	if err := sqlsafe.ValidateIdentifier(timestampColumn); err != nil {
		return nil, err
	}
	return &TemporalOrdering{mode: temporalDateRange, timestampColumn: timestampColumn, minDate: minDate, maxDate: maxDate}, nil
}

func NewMaxTimeGap(timestampColumn, groupByColumn string, maxGapSeconds int64) (*TemporalOrdering, error) {
	if err := sqlsafe.ValidateIdentifier(timestampColumn); err != nil {
		return nil, err
	}
	if groupByColumn != "" {
		if err := sqlsafe.ValidateIdentifier(groupByColumn); err != nil {
			return nil, err
		}
	}
	if maxGapSeconds <= 0 {
		return nil, errors.NewConfigurationError("max time gap must be positive")
	}
	return &TemporalOrdering{mode: temporalMaxTimeGap, timestampColumn: timestampColumn, groupByColumn: groupByColumn, maxGapSeconds: maxGapSeconds}, nil
}

// NewEventSequence is accepted for API completeness but always reports
// Skipped("not implemented") — the engine has no ordered pattern matching.
func NewEventSequence(eventColumn, timestampColumn string, expectedSequence []string) (*TemporalOrdering, error) {
	if err := sqlsafe.ValidateIdentifier(eventColumn); err != nil {
		return nil, err
	}
	if err := sqlsafe.ValidateIdentifier(timestampColumn); err != nil {
		return nil, err
	}
	return &TemporalOrdering{mode: temporalEventSequence, eventColumn: eventColumn, eventTimestampColumn: timestampColumn, expectedSequence: expectedSequence}, nil
}

func (t *TemporalOrdering) Name() string { return "temporal_ordering" }

func (t *TemporalOrdering) Column() (string, bool) {
	switch t.mode {
	case temporalBusinessHours, temporalDateRange, temporalMaxTimeGap:
		return t.timestampColumn, true
	default:
		return "", false
	}
}

func (t *TemporalOrdering) Metadata() Metadata {
	return Metadata{
		Description: fmt.Sprintf("Checks temporal ordering mode %s", t.mode),
		Custom:      map[string]string{"constraint_type": "temporal_ordering", "mode": string(t.mode)},
	}
}

func (t *TemporalOrdering) Evaluate(ctx context.Context, session engine.Session) Result {
	switch t.mode {
	case temporalBeforeAfter:
		return t.evaluateBeforeAfter(ctx, session)
	case temporalBusinessHours:
		return t.evaluateBusinessHours(ctx, session)
	case temporalDateRange:
		return t.evaluateDateRange(ctx, session)
	case temporalMaxTimeGap:
		return t.evaluateMaxTimeGap(ctx, session)
	case temporalEventSequence:
		return Skipped("not implemented")
	default:
		return Failure("unsupported temporal mode")
	}
}

func (t *TemporalOrdering) evaluateBeforeAfter(ctx context.Context, session engine.Session) Result {
	before, err := sqlsafe.EscapeIdentifier(t.beforeColumn)
	if err != nil {
		return Failure(err.Error())
	}
	after, err := sqlsafe.EscapeIdentifier(t.afterColumn)
	if err != nil {
		return Failure(err.Error())
	}
	table := validationctx.TableName(ctx)

	cmp := ">="
	if !t.allowEqual {
		cmp = ">"
	}
	sql := fmt.Sprintf(
		`SELECT COUNT(CASE WHEN %s %s %s + INTERVAL '%d seconds' THEN 1 END) AS compliant, COUNT(*) AS total
		 FROM %s WHERE %s IS NOT NULL AND %s IS NOT NULL`,
		after, cmp, before, t.toleranceSeconds, table, before, after)

	return t.ratioResult(ctx, session, sql)
}

func (t *TemporalOrdering) evaluateBusinessHours(ctx context.Context, session engine.Session) Result {
	col, err := sqlsafe.EscapeIdentifier(t.timestampColumn)
	if err != nil {
		return Failure(err.Error())
	}
	table := validationctx.TableName(ctx)

	localExpr := col
	dowExpr := col
	if t.tz != "" {
		tzLiteral, err := sqlsafe.EscapeStringLiteral(t.tz, "tz")
		if err != nil {
			return Failure(err.Error())
		}
		localExpr = fmt.Sprintf("(%s AT TIME ZONE %s)", col, tzLiteral)
		dowExpr = localExpr
	}

	weekdayCond := ""
	if t.weekdaysOnly {
		weekdayCond = fmt.Sprintf(" AND ISODOW(%s) BETWEEN 1 AND 5", dowExpr)
	}

	sql := fmt.Sprintf(
		`SELECT COUNT(CASE WHEN CAST(%s AS TIME) BETWEEN TIME '%s' AND TIME '%s'%s THEN 1 END) AS compliant, COUNT(*) AS total
		 FROM %s WHERE %s IS NOT NULL`,
		localExpr, t.startTime, t.endTime, weekdayCond, table, col)

	return t.ratioResult(ctx, session, sql)
}

func (t *TemporalOrdering) evaluateDateRange(ctx context.Context, session engine.Session) Result {
	col, err := sqlsafe.EscapeIdentifier(t.timestampColumn)
	if err != nil {
		return Failure(err.Error())
	}
	table := validationctx.TableName(ctx)

	cond := "1=1"
	if t.minDate != "" {
		cond += fmt.Sprintf(" AND %s >= TIMESTAMP '%s'", col, t.minDate)
	}
	if t.maxDate != "" {
		cond += fmt.Sprintf(" AND %s <= TIMESTAMP '%s'", col, t.maxDate)
	}

	sql := fmt.Sprintf(
		`SELECT COUNT(CASE WHEN %s THEN 1 END) AS compliant, COUNT(*) AS total
		 FROM %s WHERE %s IS NOT NULL`,
		cond, table, col)

	return t.ratioResult(ctx, session, sql)
}

func (t *TemporalOrdering) evaluateMaxTimeGap(ctx context.Context, session engine.Session) Result {
	col, err := sqlsafe.EscapeIdentifier(t.timestampColumn)
	if err != nil {
		return Failure(err.Error())
	}
	table := validationctx.TableName(ctx)

	partition := ""
	if t.groupByColumn != "" {
		group, err := sqlsafe.EscapeIdentifier(t.groupByColumn)
		if err != nil {
			return Failure(err.Error())
		}
		partition = fmt.Sprintf("PARTITION BY %s ", group)
	}

	sql := fmt.Sprintf(
		`WITH gaps AS (
		   SELECT %s, EXTRACT(EPOCH FROM (%s - LAG(%s) OVER (%sORDER BY %s))) AS gap_seconds
		   FROM %s WHERE %s IS NOT NULL
		 )
		 SELECT COUNT(CASE WHEN gap_seconds IS NULL OR gap_seconds <= %d THEN 1 END) AS compliant, COUNT(*) AS total
		 FROM gaps`,
		col, col, col, partition, col, table, col, t.maxGapSeconds)

	return t.ratioResult(ctx, session, sql)
}

func (t *TemporalOrdering) ratioResult(ctx context.Context, session engine.Session, sql string) Result {
	columns, row, ok, err := runSingleRow(ctx, session, sql)
	if err != nil {
		return Failure(err.Error())
	}
	if !ok {
		return Skipped("No data to validate")
	}
	total, err := toInt64(columns, row, "total")
	if err != nil {
		return Failure(err.Error())
	}
	if total == 0 {
		return Skipped("No data to validate")
	}
	compliant, err := toInt64(columns, row, "compliant")
	if err != nil {
		return Failure(err.Error())
	}

	rate := float64(compliant) / float64(total)
	if compliant == total {
		return SuccessWithMetric(rate, "")
	}
	return FailureWithMetric(rate, fmt.Sprintf("%d of %d rows violate the temporal ordering constraint", total-compliant, total))
}
