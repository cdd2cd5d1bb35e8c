package constraints

import (
	"context"
	"fmt"
	"strings"

	"github.com/canonica-labs/canonica-validate/internal/engine"
	"github.com/canonica-labs/canonica-validate/internal/errors"
	"github.com/canonica-labs/canonica-validate/internal/sqlsafe"
	"github.com/canonica-labs/canonica-validate/internal/validationctx"
)

// Completeness checks the non-null ratio of one or more columns against a
// threshold, combining per-column verdicts with a LogicalOperator when more
// than one column is targeted.
type Completeness struct {
	columns   ColumnSpec
	threshold float64
	operator  LogicalOperator
}

// NewCompleteness builds a completeness constraint. threshold must be in
// [0, 1]; operator combines multiple columns and is ignored for a single
// column.
func NewCompleteness(columns ColumnSpec, threshold float64, operator LogicalOperator) (*Completeness, error) {
	if threshold < 0 || threshold > 1 {
		return nil, errors.NewConfigurationError("completeness threshold must be between 0.0 and 1.0")
	}
	if err := operator.Validate(len(columns.Columns())); err != nil {
		return nil, errors.NewConfigurationError(err.Error())
	}
	return &Completeness{columns: columns, threshold: threshold, operator: operator}, nil
}

// Complete builds a constraint requiring 100% completeness.
func Complete(columns ColumnSpec) (*Completeness, error) {
	return NewCompleteness(columns, 1.0, All())
}

func (c *Completeness) Name() string { return "completeness" }

func (c *Completeness) Column() (string, bool) {
	cols := c.columns.Columns()
	if len(cols) == 1 {
		return cols[0], true
	}
	return "", false
}

func (c *Completeness) Metadata() Metadata {
	cols := c.columns.Columns()
	noun := "column"
	operatorDesc := ""
	if len(cols) > 1 {
		noun = "columns"
		operatorDesc = fmt.Sprintf(" (%s)", c.operator.String())
	}
	custom := map[string]string{
		"threshold":       fmt.Sprintf("%v", c.threshold),
		"constraint_type": "data_quality",
	}
	if len(cols) > 1 {
		custom["operator"] = c.operator.String()
	}
	return Metadata{
		Columns:     cols,
		Description: fmt.Sprintf("Checks that %s%s have at least %.1f%% completeness", noun, operatorDesc, c.threshold*100),
		Custom:      custom,
	}
}

func (c *Completeness) Evaluate(ctx context.Context, session engine.Session) Result {
	cols := c.columns.Columns()
	if len(cols) == 0 {
		return Skipped("No columns to validate")
	}

	type columnOutcome struct {
		name       string
		ratio      float64
		nonNull    int64
		total      int64
		satisfied  bool
		skipAllNil bool
	}
	outcomes := make([]columnOutcome, 0, len(cols))

	for _, col := range cols {
		if err := sqlsafe.ValidateIdentifier(col); err != nil {
			return Failure(err.Error())
		}
		escaped, err := sqlsafe.EscapeIdentifier(col)
		if err != nil {
			return Failure(err.Error())
		}

		table := validationctx.TableName(ctx)
		sql := fmt.Sprintf("SELECT COUNT(*) AS total_count, COUNT(%s) AS non_null_count FROM %s", escaped, table)

		columns, row, ok, err := runSingleRow(ctx, session, sql)
		if err != nil {
			return Failure(err.Error())
		}
		if !ok {
			return Skipped("No data to validate")
		}

		total, err := toInt64(columns, row, "total_count")
		if err != nil {
			return Failure(err.Error())
		}
		if total == 0 {
			return Skipped("No data to validate")
		}
		nonNull, err := toInt64(columns, row, "non_null_count")
		if err != nil {
			return Failure(err.Error())
		}

		ratio := float64(nonNull) / float64(total)
		outcomes = append(outcomes, columnOutcome{
			name:      col,
			ratio:     ratio,
			nonNull:   nonNull,
			total:     total,
			satisfied: ratio >= c.threshold,
		})
	}

	if len(outcomes) == 1 {
		o := outcomes[0]
		if o.satisfied {
			return SuccessWithMetric(o.ratio, "")
		}
		return FailureWithMetric(o.ratio, fmt.Sprintf(
			"Column '%s' completeness %.2f%% is below threshold %.2f%%", o.name, o.ratio*100, c.threshold*100))
	}

	satisfied := 0
	var avgRatio float64
	var failingCols []string
	for _, o := range outcomes {
		avgRatio += o.ratio
		if o.satisfied {
			satisfied++
		} else {
			failingCols = append(failingCols, o.name)
		}
	}
	avgRatio /= float64(len(outcomes))

	if c.operator.Combine(satisfied, len(outcomes)) {
		return SuccessWithMetric(avgRatio, "")
	}
	return FailureWithMetric(avgRatio, fmt.Sprintf(
		"Columns below threshold %.2f%%: %s", c.threshold*100, strings.Join(failingCols, ", ")))
}
