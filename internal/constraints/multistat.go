package constraints

import (
	"context"
	"fmt"
	"strings"

	"github.com/canonica-labs/canonica-validate/internal/engine"
	"github.com/canonica-labs/canonica-validate/internal/sqlsafe"
	"github.com/canonica-labs/canonica-validate/internal/validationctx"
)

// StatAssertion pairs a statistic with the assertion it must satisfy.
type StatAssertion struct {
	Statistic StatisticType
	Assertion Assertion
}

// MultiStatistics folds several statistics over one column into a single
// SELECT with sibling aggregates. This is the hot path: every static-shape
// statistics check should route through it instead of one query per
// statistic.
type MultiStatistics struct {
	column     string
	statistics []StatAssertion
}

// NewMultiStatistics builds a multi-statistic constraint.
func NewMultiStatistics(column string, statistics []StatAssertion) (*MultiStatistics, error) {
	if err := sqlsafe.ValidateIdentifier(column); err != nil {
		return nil, err
	}
	for _, sa := range statistics {
		if sa.Statistic.kind == "percentile" && (sa.Statistic.percentile < 0 || sa.Statistic.percentile > 1) {
			return nil, fmt.Errorf("percentile must be between 0.0 and 1.0")
		}
	}
	return &MultiStatistics{column: column, statistics: statistics}, nil
}

func (m *MultiStatistics) Name() string        { return "multi_statistical" }
func (m *MultiStatistics) Column() (string, bool) { return m.column, true }

func (m *MultiStatistics) Metadata() Metadata {
	names := make([]string, len(m.statistics))
	for i, sa := range m.statistics {
		names[i] = sa.Statistic.Name()
	}
	return Metadata{
		Columns:     []string{m.column},
		Description: fmt.Sprintf("Checks %s of %s in a single scan", strings.Join(names, ", "), m.column),
		Custom: map[string]string{
			"constraint_type": "multi_statistical",
			"statistics":      strings.Join(names, ","),
		},
	}
}

func (m *MultiStatistics) Evaluate(ctx context.Context, session engine.Session) Result {
	if len(m.statistics) == 0 {
		return Skipped("No statistics to validate")
	}

	escaped, err := sqlsafe.EscapeIdentifier(m.column)
	if err != nil {
		return Failure(err.Error())
	}

	parts := make([]string, len(m.statistics))
	for i, sa := range m.statistics {
		parts[i] = fmt.Sprintf("%s AS stat_%d", sa.Statistic.sqlExpression(escaped), i)
	}

	table := validationctx.TableName(ctx)
	sql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(parts, ", "), table)

	columns, row, ok, err := runSingleRow(ctx, session, sql)
	if err != nil {
		return Failure(err.Error())
	}
	if !ok {
		return Skipped("No data to validate")
	}

	var failures []string
	var firstMetric *float64

	for i, sa := range m.statistics {
		name := fmt.Sprintf("stat_%d", i)
		value, present, err := toFloat64Nullable(columns, row, name)
		if err != nil {
			failures = append(failures, fmt.Sprintf("failed to compute %s", sa.Statistic.Name()))
			continue
		}
		if !present {
			failures = append(failures, fmt.Sprintf("%s is null", sa.Statistic.Name()))
			continue
		}
		if firstMetric == nil {
			v := value
			firstMetric = &v
		}
		if !sa.Assertion.Satisfies(value) {
			failures = append(failures, fmt.Sprintf("%s is %v which does not %s", sa.Statistic.Name(), value, sa.Assertion.String()))
		}
	}

	if len(failures) == 0 {
		metric := 0.0
		if firstMetric != nil {
			metric = *firstMetric
		}
		return SuccessWithMetric(metric, "")
	}
	return Failure(strings.Join(failures, "; "))
}
