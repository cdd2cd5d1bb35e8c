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

// NullHandling determines how a composite key with NULL members is treated
// by UniqueWithNulls.
type NullHandling string

const (
	NullInclude NullHandling = "include"
	NullExclude NullHandling = "exclude"
)

// UniquenessType selects whether every tuple must be distinct, or whether
// tuples containing a NULL member are handled specially.
type UniquenessType struct {
	kind         string
	nullHandling NullHandling
}

// FullUniqueness requires distinct_tuples/total_tuples to meet threshold,
// counting every row (including those with NULL key members) as a tuple.
func FullUniqueness() UniquenessType { return UniquenessType{kind: "full"} }

// UniqueWithNulls applies nullHandling before computing the ratio: Exclude
// drops any tuple with a NULL member from both numerator and denominator;
// Include applies no NULL filter and runs the same query as FullUniqueness,
// so with a single key column NULL is not counted as a distinct value.
func UniqueWithNulls(nullHandling NullHandling) UniquenessType {
	return UniquenessType{kind: "with_nulls", nullHandling: nullHandling}
}

// Uniqueness checks that a composite key made of one or more ordered
// columns is distinct across rows, per a chosen UniquenessType.
type Uniqueness struct {
	columns   []string
	uType     UniquenessType
	threshold float64
}

// NewUniqueness builds a uniqueness constraint over an ordered column list
// used as a composite key. FullUniqueness{1.0} over a single column is the
// primary-key check.
func NewUniqueness(columns []string, uType UniquenessType, threshold float64) (*Uniqueness, error) {
	if len(columns) == 0 {
		return nil, errors.NewConfigurationError("uniqueness requires at least one column")
	}
	for _, col := range columns {
		if err := sqlsafe.ValidateIdentifier(col); err != nil {
			return nil, err
		}
	}
	if threshold < 0 || threshold > 1 {
		return nil, errors.NewConfigurationError("uniqueness threshold must be between 0.0 and 1.0")
	}
	return &Uniqueness{columns: append([]string(nil), columns...), uType: uType, threshold: threshold}, nil
}

func (u *Uniqueness) Name() string { return "uniqueness" }

func (u *Uniqueness) Column() (string, bool) {
	if len(u.columns) == 1 {
		return u.columns[0], true
	}
	return "", false
}

func (u *Uniqueness) Metadata() Metadata {
	return Metadata{
		Columns: u.columns,
		Description: fmt.Sprintf("Checks that (%s) is unique with at least %.1f%% distinctness",
			strings.Join(u.columns, ", "), u.threshold*100),
		Custom: map[string]string{"constraint_type": "uniqueness"},
	}
}

func (u *Uniqueness) Evaluate(ctx context.Context, session engine.Session) Result {
	escaped := make([]string, len(u.columns))
	for i, col := range u.columns {
		e, err := sqlsafe.EscapeIdentifier(col)
		if err != nil {
			return Failure(err.Error())
		}
		escaped[i] = e
	}
	columnList := strings.Join(escaped, ", ")
	table := validationctx.TableName(ctx)

	var sql string
	switch {
	case u.uType.kind == "with_nulls" && u.uType.nullHandling == NullExclude:
		notNullConds := make([]string, len(escaped))
		for i, e := range escaped {
			notNullConds[i] = fmt.Sprintf("%s IS NOT NULL", e)
		}
		whereClause := strings.Join(notNullConds, " AND ")
		sql = fmt.Sprintf(
			`SELECT COUNT(*) AS total_tuples, COUNT(DISTINCT (%s)) AS distinct_tuples
			 FROM %s WHERE %s`,
			columnList, table, whereClause)
	default:
		sql = fmt.Sprintf(
			`SELECT COUNT(*) AS total_tuples, COUNT(DISTINCT (%s)) AS distinct_tuples FROM %s`,
			columnList, table)
	}

	cols, row, ok, err := runSingleRow(ctx, session, sql)
	if err != nil {
		return Failure(err.Error())
	}
	if !ok {
		return Skipped("No data to validate")
	}
	total, err := toInt64(cols, row, "total_tuples")
	if err != nil {
		return Failure(err.Error())
	}
	if total == 0 {
		return Skipped("No data to validate")
	}
	distinct, err := toInt64(cols, row, "distinct_tuples")
	if err != nil {
		return Failure(err.Error())
	}

	ratio := float64(distinct) / float64(total)
	if ratio >= u.threshold {
		return SuccessWithMetric(ratio, "")
	}
	return FailureWithMetric(ratio, fmt.Sprintf(
		"Uniqueness ratio %.4f over (%s) is below threshold %.4f", ratio, strings.Join(u.columns, ", "), u.threshold))
}
