package constraints

import (
	"context"
	"fmt"

	"github.com/canonica-labs/canonica-validate/internal/engine"
	"github.com/canonica-labs/canonica-validate/internal/errors"
	"github.com/canonica-labs/canonica-validate/internal/sqlsafe"
	"github.com/canonica-labs/canonica-validate/internal/validationctx"
)

// StatisticType is a scalar statistic computable over one column.
type StatisticType struct {
	kind       string
	percentile float64
}

var (
	StatMin      = StatisticType{kind: "min"}
	StatMax      = StatisticType{kind: "max"}
	StatMean     = StatisticType{kind: "mean"}
	StatSum      = StatisticType{kind: "sum"}
	StatStdDev   = StatisticType{kind: "stddev"}
	StatVariance = StatisticType{kind: "variance"}
	StatMedian   = StatisticType{kind: "median"}
)

// StatPercentile builds a percentile statistic; p must be in [0, 1].
func StatPercentile(p float64) StatisticType { return StatisticType{kind: "percentile", percentile: p} }

func (s StatisticType) sqlExpression(column string) string {
	switch s.kind {
	case "min":
		return fmt.Sprintf("MIN(%s)", column)
	case "max":
		return fmt.Sprintf("MAX(%s)", column)
	case "mean":
		return fmt.Sprintf("AVG(%s)", column)
	case "sum":
		return fmt.Sprintf("CAST(SUM(%s) AS DOUBLE)", column)
	case "stddev":
		return fmt.Sprintf("STDDEV(%s)", column)
	case "variance":
		return fmt.Sprintf("VARIANCE(%s)", column)
	case "median":
		return fmt.Sprintf("APPROX_QUANTILE(%s, 0.5)", column)
	case "percentile":
		return fmt.Sprintf("APPROX_QUANTILE(%s, %v)", column, s.percentile)
	default:
		return ""
	}
}

func (s StatisticType) Name() string {
	switch s.kind {
	case "min":
		return "minimum"
	case "max":
		return "maximum"
	case "mean":
		return "mean"
	case "sum":
		return "sum"
	case "stddev":
		return "standard deviation"
	case "variance":
		return "variance"
	case "median":
		return "median"
	case "percentile":
		if s.percentile == 0.5 {
			return "median"
		}
		return "percentile"
	default:
		return "?"
	}
}

func (s StatisticType) constraintName() string {
	switch s.kind {
	case "stddev":
		return "standard_deviation"
	default:
		return s.kind
	}
}

func (s StatisticType) String() string {
	if s.kind == "percentile" {
		return fmt.Sprintf("%s(%v)", s.Name(), s.percentile)
	}
	return s.Name()
}

// Statistics checks a single statistic on one column against an assertion.
type Statistics struct {
	column    string
	statistic StatisticType
	assertion Assertion
}

// NewStatistics builds a statistical constraint.
func NewStatistics(column string, statistic StatisticType, assertion Assertion) (*Statistics, error) {
	if err := sqlsafe.ValidateIdentifier(column); err != nil {
		return nil, err
	}
	if statistic.kind == "percentile" && (statistic.percentile < 0 || statistic.percentile > 1) {
		return nil, errors.NewSecurityError("percentile must be between 0.0 and 1.0")
	}
	return &Statistics{column: column, statistic: statistic, assertion: assertion}, nil
}

func (s *Statistics) Name() string        { return s.statistic.constraintName() }
func (s *Statistics) Column() (string, bool) { return s.column, true }

func (s *Statistics) Metadata() Metadata {
	custom := map[string]string{
		"assertion":       s.assertion.String(),
		"statistic_type":  s.statistic.String(),
		"constraint_type": "statistical",
	}
	if s.statistic.kind == "percentile" {
		custom["percentile"] = fmt.Sprintf("%v", s.statistic.percentile)
	}
	return Metadata{
		Columns:     []string{s.column},
		Description: fmt.Sprintf("Checks that %s of %s %s", s.statistic.Name(), s.column, s.assertion.String()),
		Custom:      custom,
	}
}

func (s *Statistics) Evaluate(ctx context.Context, session engine.Session) Result {
	escaped, err := sqlsafe.EscapeIdentifier(s.column)
	if err != nil {
		return Failure(err.Error())
	}

	table := validationctx.TableName(ctx)
	sql := fmt.Sprintf("SELECT %s AS stat_value FROM %s", s.statistic.sqlExpression(escaped), table)

	columns, row, ok, err := runSingleRow(ctx, session, sql)
	if err != nil {
		return Failure(err.Error())
	}
	if !ok {
		return Skipped("No data to validate")
	}

	value, present, err := toFloat64Nullable(columns, row, "stat_value")
	if err != nil {
		return Failure(err.Error())
	}
	if !present {
		return Failure(fmt.Sprintf("%s is null (no non-null values)", s.statistic.Name()))
	}

	if s.assertion.Satisfies(value) {
		return SuccessWithMetric(value, "")
	}
	return FailureWithMetric(value, fmt.Sprintf("%s %v does not %s", s.statistic.Name(), value, s.assertion.String()))
}
