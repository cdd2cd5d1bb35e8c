package constraints

import (
	"context"
	"fmt"
	"strings"

	"github.com/canonica-labs/canonica-validate/internal/engine"
	"github.com/canonica-labs/canonica-validate/internal/errors"
	"github.com/canonica-labs/canonica-validate/internal/sqlsafe"
)

// ForeignKey validates referential integrity: every value in a child
// table's column must exist in a parent table's column. Null child values
// count as violations unless AllowNulls(true) is set.
type ForeignKey struct {
	childTable, childColumn   string
	parentTable, parentColumn string
	allowNulls                bool
	maxViolationsReported     int
}

func splitQualifiedColumn(qualified string) (table, column string, err error) {
	parts := strings.Split(qualified, ".")
	if len(parts) != 2 {
		return "", "", errors.NewConfigurationError(
			fmt.Sprintf("foreign key column must be qualified (table.column): '%s'", qualified))
	}
	if err := sqlsafe.ValidateIdentifier(parts[0]); err != nil {
		return "", "", err
	}
	if err := sqlsafe.ValidateIdentifier(parts[1]); err != nil {
		return "", "", err
	}
	return parts[0], parts[1], nil
}

// NewForeignKey builds a foreign key constraint from two qualified column
// names, e.g. NewForeignKey("orders.customer_id", "customers.id").
func NewForeignKey(childQualified, parentQualified string) (*ForeignKey, error) {
	childTable, childCol, err := splitQualifiedColumn(childQualified)
	if err != nil {
		return nil, err
	}
	parentTable, parentCol, err := splitQualifiedColumn(parentQualified)
	if err != nil {
		return nil, err
	}
	return &ForeignKey{
		childTable: childTable, childColumn: childCol,
		parentTable: parentTable, parentColumn: parentCol,
		maxViolationsReported: 100,
	}, nil
}

func (f *ForeignKey) AllowNulls(allow bool) *ForeignKey {
	f.allowNulls = allow
	return f
}

func (f *ForeignKey) MaxViolationsReported(max int) *ForeignKey {
	f.maxViolationsReported = max
	return f
}

func (f *ForeignKey) Name() string        { return "foreign_key" }
func (f *ForeignKey) Column() (string, bool) { return "", false }

func (f *ForeignKey) Metadata() Metadata {
	return Metadata{
		Columns: []string{f.childColumn, f.parentColumn},
		Description: fmt.Sprintf("Checks that %s.%s values exist in %s.%s",
			f.childTable, f.childColumn, f.parentTable, f.parentColumn),
		Custom: map[string]string{"constraint_type": "foreign_key"},
	}
}

// Evaluate ignores the ambient table_name: both sides of the join are fully
// qualified by the constraint's own construction.
func (f *ForeignKey) Evaluate(ctx context.Context, session engine.Session) Result {
	childTable, err := sqlsafe.EscapeIdentifier(f.childTable)
	if err != nil {
		return Failure(err.Error())
	}
	childCol, err := sqlsafe.EscapeIdentifier(f.childColumn)
	if err != nil {
		return Failure(err.Error())
	}
	parentTable, err := sqlsafe.EscapeIdentifier(f.parentTable)
	if err != nil {
		return Failure(err.Error())
	}
	parentCol, err := sqlsafe.EscapeIdentifier(f.parentColumn)
	if err != nil {
		return Failure(err.Error())
	}

	nullCondition := ""
	if f.allowNulls {
		nullCondition = fmt.Sprintf(" AND %s.%s IS NOT NULL", childTable, childCol)
	}

	sql := fmt.Sprintf(
		`SELECT COUNT(*) AS total_violations, COUNT(DISTINCT %s.%s) AS unique_violations
		 FROM %s LEFT JOIN %s ON %s.%s = %s.%s
		 WHERE %s.%s IS NULL%s`,
		childTable, childCol,
		childTable, parentTable, childTable, childCol, parentTable, parentCol,
		parentTable, parentCol, nullCondition)

	columns, row, ok, err := runSingleRow(ctx, session, sql)
	if err != nil {
		return Failure(err.Error())
	}
	if !ok {
		return Skipped("No data to validate")
	}
	violations, err := toInt64(columns, row, "total_violations")
	if err != nil {
		return Failure(err.Error())
	}

	if violations == 0 {
		return SuccessWithMetric(0, "")
	}

	message := fmt.Sprintf("%d rows in %s.%s have no matching value in %s.%s",
		violations, f.childTable, f.childColumn, f.parentTable, f.parentColumn)

	if f.maxViolationsReported > 0 {
		if examples, exErr := f.collectViolationExamples(ctx, session, childTable, childCol, parentTable, parentCol, nullCondition); exErr == nil && len(examples) > 0 {
			message = fmt.Sprintf("%s (examples: %s)", message, strings.Join(examples, ", "))
		}
	}

	return FailureWithMetric(float64(violations), message)
}

func (f *ForeignKey) collectViolationExamples(ctx context.Context, session engine.Session, childTable, childCol, parentTable, parentCol, nullCondition string) ([]string, error) {
	sql := fmt.Sprintf(
		`SELECT DISTINCT %s.%s AS violating_value
		 FROM %s LEFT JOIN %s ON %s.%s = %s.%s
		 WHERE %s.%s IS NULL%s
		 LIMIT %d`,
		childTable, childCol,
		childTable, parentTable, childTable, childCol, parentTable, parentCol,
		parentTable, parentCol, nullCondition, f.maxViolationsReported)

	columns, rows, ok, err := runRows(ctx, session, sql)
	if err != nil || !ok {
		return nil, err
	}
	examples := make([]string, 0, len(rows))
	for _, row := range rows {
		v, _ := cellByName(columns, row, "violating_value")
		examples = append(examples, fmt.Sprintf("%v", v))
	}
	return examples, nil
}
