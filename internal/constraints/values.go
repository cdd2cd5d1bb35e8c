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

// DataType is a value-shape expected of a column, checked by regex match
// ratio against the pattern fixed per type.
type DataType string

const (
	DataTypeInteger   DataType = "integer"
	DataTypeFloat     DataType = "float"
	DataTypeBoolean   DataType = "boolean"
	DataTypeDate      DataType = "date"
	DataTypeTimestamp DataType = "timestamp"
	DataTypeString    DataType = "string"
)

func (d DataType) pattern() string {
	switch d {
	case DataTypeInteger:
		return `^-?\d+$`
	case DataTypeFloat:
		return `^-?\d*\.?\d+([eE][+-]?\d+)?$`
	case DataTypeBoolean:
		return `^(true|false|TRUE|FALSE|True|False|0|1)$`
	case DataTypeDate:
		return `^\d{4}-\d{2}-\d{2}$`
	case DataTypeTimestamp:
		return `^\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2}`
	default:
		return `.*`
	}
}

// DataTypeCheck checks that at least threshold of a column's non-null
// values conform to a fixed regex per DataType.
type DataTypeCheck struct {
	column    string
	dataType  DataType
	threshold float64
}

func NewDataTypeCheck(column string, dataType DataType, threshold float64) (*DataTypeCheck, error) {
	if err := sqlsafe.ValidateIdentifier(column); err != nil {
		return nil, err
	}
	if threshold < 0 || threshold > 1 {
		return nil, errors.NewConfigurationError("data type threshold must be between 0.0 and 1.0")
	}
	return &DataTypeCheck{column: column, dataType: dataType, threshold: threshold}, nil
}

func (c *DataTypeCheck) Name() string        { return "data_type" }
func (c *DataTypeCheck) Column() (string, bool) { return c.column, true }

func (c *DataTypeCheck) Metadata() Metadata {
	return Metadata{
		Columns:     []string{c.column},
		Description: fmt.Sprintf("Checks that at least %.1f%% of values in '%s' conform to %s type", c.threshold*100, c.column, c.dataType),
		Custom: map[string]string{
			"data_type":       string(c.dataType),
			"threshold":       fmt.Sprintf("%v", c.threshold),
			"constraint_type": "data_type",
		},
	}
}

func (c *DataTypeCheck) Evaluate(ctx context.Context, session engine.Session) Result {
	escaped, err := sqlsafe.EscapeIdentifier(c.column)
	if err != nil {
		return Failure(err.Error())
	}
	pattern, err := sqlsafe.ValidateRegexPattern(c.dataType.pattern())
	if err != nil {
		return Failure(err.Error())
	}

	table := validationctx.TableName(ctx)
	sql := fmt.Sprintf(
		`SELECT COUNT(CASE WHEN REGEXP_MATCHES(CAST(%s AS VARCHAR), '%s') THEN 1 END) AS matches, COUNT(*) AS total FROM %s WHERE %s IS NOT NULL`,
		escaped, pattern, table, escaped)

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
		return Skipped("No non-null data to validate")
	}
	matches, err := toInt64(columns, row, "matches")
	if err != nil {
		return Failure(err.Error())
	}

	ratio := float64(matches) / float64(total)
	if ratio >= c.threshold {
		return SuccessWithMetric(ratio, "")
	}
	return FailureWithMetric(ratio, fmt.Sprintf("Data type conformance %v is below threshold %v", ratio, c.threshold))
}

// Containment checks that every non-null value in a column belongs to a
// fixed allowed set.
type Containment struct {
	column        string
	allowedValues []string
}

func NewContainment(column string, allowedValues []string) (*Containment, error) {
	if err := sqlsafe.ValidateIdentifier(column); err != nil {
		return nil, err
	}
	if len(allowedValues) == 0 {
		return nil, errors.NewConfigurationError("containment requires at least one allowed value")
	}
	return &Containment{column: column, allowedValues: allowedValues}, nil
}

func (c *Containment) Name() string        { return "containment" }
func (c *Containment) Column() (string, bool) { return c.column, true }

func (c *Containment) Metadata() Metadata {
	return Metadata{
		Columns:     []string{c.column},
		Description: fmt.Sprintf("Checks that '%s' values are contained in a fixed set", c.column),
		Custom:      map[string]string{"constraint_type": "containment"},
	}
}

func (c *Containment) Evaluate(ctx context.Context, session engine.Session) Result {
	escaped, err := sqlsafe.EscapeIdentifier(c.column)
	if err != nil {
		return Failure(err.Error())
	}

	literals := make([]string, len(c.allowedValues))
	for i, v := range c.allowedValues {
		literals[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}

	table := validationctx.TableName(ctx)
	sql := fmt.Sprintf(
		`SELECT COUNT(CASE WHEN %s IN (%s) THEN 1 END) AS valid_values, COUNT(*) AS total FROM %s WHERE %s IS NOT NULL`,
		escaped, strings.Join(literals, ", "), table, escaped)

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
		return Skipped("No non-null data to validate")
	}
	valid, err := toInt64(columns, row, "valid_values")
	if err != nil {
		return Failure(err.Error())
	}

	if valid == total {
		return SuccessWithMetric(1.0, "")
	}
	ratio := float64(valid) / float64(total)
	return FailureWithMetric(ratio, fmt.Sprintf("%d of %d values are not in the allowed set", total-valid, total))
}

// ValidityKind is a named predicate template the ValidityCheck constraint
// evaluates against every row.
type ValidityKind string

const (
	ValidityNonNegative ValidityKind = "non_negative"
	ValidityNonEmpty    ValidityKind = "non_empty"
	ValidityPastDate    ValidityKind = "past_date"
)

func (k ValidityKind) predicate(column string) string {
	switch k {
	case ValidityNonNegative:
		return fmt.Sprintf("%s >= 0", column)
	case ValidityNonEmpty:
		return fmt.Sprintf("LENGTH(%s) > 0", column)
	case ValidityPastDate:
		return fmt.Sprintf("%s < CURRENT_DATE", column)
	default:
		return "1=1"
	}
}

// ValidityCheck asserts every non-null row in a column satisfies a fixed
// predicate template (numeric non-negativity, non-empty string length, or a
// temporal past-date bound); pass iff the validity rate is exactly 1.0.
type ValidityCheck struct {
	column string
	kind   ValidityKind
}

func NewValidityCheck(column string, kind ValidityKind) (*ValidityCheck, error) {
	if err := sqlsafe.ValidateIdentifier(column); err != nil {
		return nil, err
	}
	return &ValidityCheck{column: column, kind: kind}, nil
}

func (v *ValidityCheck) Name() string        { return string(v.kind) }
func (v *ValidityCheck) Column() (string, bool) { return v.column, true }

func (v *ValidityCheck) Metadata() Metadata {
	return Metadata{
		Columns:     []string{v.column},
		Description: fmt.Sprintf("Checks that '%s' satisfies %s", v.column, v.kind),
		Custom:      map[string]string{"constraint_type": "validity"},
	}
}

func (v *ValidityCheck) Evaluate(ctx context.Context, session engine.Session) Result {
	escaped, err := sqlsafe.EscapeIdentifier(v.column)
	if err != nil {
		return Failure(err.Error())
	}
	predicate := v.kind.predicate(escaped)

	table := validationctx.TableName(ctx)
	sql := fmt.Sprintf(
		`SELECT COUNT(CASE WHEN %s THEN 1 END) AS valid_count, COUNT(*) AS total FROM %s WHERE %s IS NOT NULL`,
		predicate, table, escaped)

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
		return Skipped("No non-null data to validate")
	}
	valid, err := toInt64(columns, row, "valid_count")
	if err != nil {
		return Failure(err.Error())
	}

	rate := float64(valid) / float64(total)
	if rate == 1.0 {
		return SuccessWithMetric(rate, "")
	}
	return FailureWithMetric(rate, fmt.Sprintf("%d of %d rows fail %s", total-valid, total, v.kind))
}
