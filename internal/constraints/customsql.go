package constraints

import (
	"context"
	"fmt"

	"github.com/canonica-labs/canonica-validate/internal/engine"
	"github.com/canonica-labs/canonica-validate/internal/sqlguard"
	"github.com/canonica-labs/canonica-validate/internal/sqlsafe"
	"github.com/canonica-labs/canonica-validate/internal/validationctx"
)

// CustomSQL validates a user-supplied row predicate expression (not a full
// statement) against every row of the ambient table.
type CustomSQL struct {
	expression string
	hint       string
}

// NewCustomSQL validates the predicate expression through §4.1 expression
// validation, then pre-parses it with sqlguard to reject multi-statement or
// disguised-statement input, at construction time, before it is ever
// embedded in a query.
func NewCustomSQL(expression, hint string) (*CustomSQL, error) {
	if err := sqlsafe.ValidateSQLExpression(expression); err != nil {
		return nil, err
	}
	if err := sqlguard.CheckPredicateShape(expression); err != nil {
		return nil, err
	}
	return &CustomSQL{expression: expression, hint: hint}, nil
}

func (c *CustomSQL) Name() string        { return "custom_sql" }
func (c *CustomSQL) Column() (string, bool) { return "", false }

func (c *CustomSQL) Metadata() Metadata {
	return Metadata{
		Description: fmt.Sprintf("Checks custom predicate: %s", c.expression),
		Custom:      map[string]string{"constraint_type": "custom_sql"},
	}
}

func (c *CustomSQL) Evaluate(ctx context.Context, session engine.Session) Result {
	table := validationctx.TableName(ctx)
	sql := fmt.Sprintf(
		`SELECT COUNT(CASE WHEN %s THEN 1 END) AS satisfied, COUNT(*) AS total FROM %s`,
		c.expression, table)

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
	satisfied, err := toInt64(columns, row, "satisfied")
	if err != nil {
		return Failure(err.Error())
	}

	rate := float64(satisfied) / float64(total)
	if satisfied == total {
		return SuccessWithMetric(rate, "")
	}
	message := fmt.Sprintf("%d of %d rows fail predicate '%s'", total-satisfied, total, c.expression)
	if c.hint != "" {
		message = fmt.Sprintf("%s (%s)", message, c.hint)
	}
	return FailureWithMetric(rate, message)
}
