// Package sqlguard pre-parses a custom-SQL predicate expression before it
// reaches §4.1 validation, rejecting anything that is not a single bare
// expression: multiple statements, or a full SELECT/DML statement disguised
// as a predicate. It wraps the expression in a throwaway SELECT and parses
// that with the dolthub/vitess SQL parser (a MySQL-dialect parser, not the
// query engine's own), so a syntactically invalid predicate is caught before
// it is ever embedded in a real query.
package sqlguard

import (
	"fmt"
	"strings"

	"github.com/dolthub/vitess/go/vt/sqlparser"

	"github.com/canonica-labs/canonica-validate/internal/errors"
)

// CheckPredicateShape rejects multi-statement input and anything that does
// not parse as a single boolean expression once wrapped in a SELECT.
func CheckPredicateShape(expr string) error {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return errors.NewConfigurationError("custom SQL expression is empty")
	}

	probe := fmt.Sprintf("SELECT CASE WHEN %s THEN 1 END", expr)

	stmts, err := sqlparser.SplitStatementToPieces(probe)
	if err != nil {
		return errors.NewSecurityError("expression failed statement split: " + err.Error())
	}
	if len(stmts) > 1 {
		return errors.NewSecurityError("expression contains multiple statements")
	}

	if _, err := sqlparser.Parse(probe); err != nil {
		return errors.NewSecurityError("expression is not a valid SQL predicate: " + err.Error())
	}
	return nil
}
