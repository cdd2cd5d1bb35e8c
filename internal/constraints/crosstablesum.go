package constraints

import (
	"context"
	"fmt"
	"strings"

	"github.com/canonica-labs/canonica-validate/internal/engine"
	"github.com/canonica-labs/canonica-validate/internal/errors"
	"github.com/canonica-labs/canonica-validate/internal/sqlsafe"
)

// CrossTableSum compares grouped (or scalar) sums between two tables.
type CrossTableSum struct {
	leftTable, leftColumn   string
	rightTable, rightColumn string
	groupBy                 []string
	tolerance               float64
}

// NewCrossTableSum builds a cross-table sum constraint from two qualified
// "table.column" amount columns and an optional group-by key list.
func NewCrossTableSum(leftQualified, rightQualified string, groupBy []string, tolerance float64) (*CrossTableSum, error) {
	leftTable, leftCol, err := splitQualifiedColumn(leftQualified)
	if err != nil {
		return nil, err
	}
	rightTable, rightCol, err := splitQualifiedColumn(rightQualified)
	if err != nil {
		return nil, err
	}
	if tolerance < 0 {
		return nil, errors.NewConfigurationError("cross-table sum tolerance must be non-negative")
	}
	for _, col := range groupBy {
		if err := sqlsafe.ValidateIdentifier(col); err != nil {
			return nil, err
		}
	}
	return &CrossTableSum{
		leftTable: leftTable, leftColumn: leftCol,
		rightTable: rightTable, rightColumn: rightCol,
		groupBy: append([]string(nil), groupBy...), tolerance: tolerance,
	}, nil
}

func (c *CrossTableSum) Name() string        { return "cross_table_sum" }
func (c *CrossTableSum) Column() (string, bool) { return "", false }

func (c *CrossTableSum) Metadata() Metadata {
	return Metadata{
		Columns: []string{c.leftColumn, c.rightColumn},
		Description: fmt.Sprintf("Checks that sums of %s.%s and %s.%s agree within tolerance %v",
			c.leftTable, c.leftColumn, c.rightTable, c.rightColumn, c.tolerance),
		Custom: map[string]string{"constraint_type": "cross_table_sum"},
	}
}

func (c *CrossTableSum) Evaluate(ctx context.Context, session engine.Session) Result {
	leftTable, err := sqlsafe.EscapeIdentifier(c.leftTable)
	if err != nil {
		return Failure(err.Error())
	}
	leftCol, err := sqlsafe.EscapeIdentifier(c.leftColumn)
	if err != nil {
		return Failure(err.Error())
	}
	rightTable, err := sqlsafe.EscapeIdentifier(c.rightTable)
	if err != nil {
		return Failure(err.Error())
	}
	rightCol, err := sqlsafe.EscapeIdentifier(c.rightColumn)
	if err != nil {
		return Failure(err.Error())
	}

	if len(c.groupBy) == 0 {
		return c.evaluateScalar(ctx, session, leftTable, leftCol, rightTable, rightCol)
	}

	escapedGroups := make([]string, len(c.groupBy))
	for i, g := range c.groupBy {
		escaped, err := sqlsafe.EscapeIdentifier(g)
		if err != nil {
			return Failure(err.Error())
		}
		escapedGroups[i] = escaped
	}
	groupList := strings.Join(escapedGroups, ", ")

	joinConds := make([]string, len(escapedGroups))
	for i, g := range escapedGroups {
		joinConds[i] = fmt.Sprintf("l.%s = r.%s", g, g)
	}

	sql := fmt.Sprintf(
		`WITH left_sums AS (SELECT %s, SUM(%s) AS total FROM %s GROUP BY %s),
		      right_sums AS (SELECT %s, SUM(%s) AS total FROM %s GROUP BY %s)
		 SELECT COUNT(*) AS mismatched FROM left_sums l FULL OUTER JOIN right_sums r ON %s
		 WHERE ABS(COALESCE(l.total, 0) - COALESCE(r.total, 0)) > %v`,
		groupList, leftCol, leftTable, groupList,
		groupList, rightCol, rightTable, groupList,
		strings.Join(joinConds, " AND "), c.tolerance)

	columns, row, ok, err := runSingleRow(ctx, session, sql)
	if err != nil {
		return Failure(err.Error())
	}
	if !ok {
		return Skipped("No data to validate")
	}
	mismatched, err := toInt64(columns, row, "mismatched")
	if err != nil {
		return Failure(err.Error())
	}
	if mismatched == 0 {
		return SuccessWithMetric(0, "")
	}
	return FailureWithMetric(float64(mismatched), fmt.Sprintf("%d groups differ by more than tolerance %v", mismatched, c.tolerance))
}

func (c *CrossTableSum) evaluateScalar(ctx context.Context, session engine.Session, leftTable, leftCol, rightTable, rightCol string) Result {
	sql := fmt.Sprintf(
		`SELECT (SELECT CAST(SUM(%s) AS DOUBLE) FROM %s) AS left_total, (SELECT CAST(SUM(%s) AS DOUBLE) FROM %s) AS right_total`,
		leftCol, leftTable, rightCol, rightTable)

	columns, row, ok, err := runSingleRow(ctx, session, sql)
	if err != nil {
		return Failure(err.Error())
	}
	if !ok {
		return Skipped("No data to validate")
	}
	left, leftOK, err := toFloat64Nullable(columns, row, "left_total")
	if err != nil {
		return Failure(err.Error())
	}
	right, rightOK, err := toFloat64Nullable(columns, row, "right_total")
	if err != nil {
		return Failure(err.Error())
	}
	if !leftOK || !rightOK {
		return Skipped("No data to validate")
	}

	diff := left - right
	if diff < 0 {
		diff = -diff
	}
	if diff <= c.tolerance {
		return SuccessWithMetric(0, "")
	}
	return FailureWithMetric(1, fmt.Sprintf("totals differ by %v, exceeding tolerance %v", diff, c.tolerance))
}
