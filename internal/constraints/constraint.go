// Package constraints defines the uniform contract every data-quality check
// implements, plus the shared data model (results, assertions, column
// specs) consumed by the validator and report layers.
package constraints

import (
	"context"
	"fmt"
	"math"

	"github.com/canonica-labs/canonica-validate/internal/engine"
)

// Status is the outcome of evaluating a constraint.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
	StatusSkipped Status = "SKIPPED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusSuccess, StatusFailure, StatusSkipped:
		return true
	default:
		return false
	}
}

// Result is what a constraint returns after evaluation. Metric is advisory:
// it is never itself the pass/fail decision.
type Result struct {
	Status  Status
	Metric  *float64
	Message string
}

func Success(message string) Result { return Result{Status: StatusSuccess, Message: message} }

func SuccessWithMetric(metric float64, message string) Result {
	m := metric
	return Result{Status: StatusSuccess, Metric: &m, Message: message}
}

func Failure(message string) Result { return Result{Status: StatusFailure, Message: message} }

func FailureWithMetric(metric float64, message string) Result {
	m := metric
	return Result{Status: StatusFailure, Metric: &m, Message: message}
}

func Skipped(message string) Result { return Result{Status: StatusSkipped, Message: message} }

// Metadata describes a constraint for reporting and grouping.
type Metadata struct {
	Columns     []string
	Description string
	Custom      map[string]string
}

// Constraint is the uniform contract: a predicate over a registered table,
// compiled to SQL, returning a Result.
type Constraint interface {
	// Name is a short stable kind name, e.g. "completeness", "foreign_key".
	Name() string
	// Column returns the single targeted column, if the constraint has one.
	Column() (string, bool)
	Metadata() Metadata
	// Evaluate may suspend on engine submission; it must be side-effect-free
	// other than the SQL it submits.
	Evaluate(ctx context.Context, session engine.Session) Result
}

// ColumnSpec carries either exactly one column name or an ordered list,
// for constraints that may target one or many columns.
type ColumnSpec struct {
	single []string
}

func OneColumn(name string) ColumnSpec     { return ColumnSpec{single: []string{name}} }
func ManyColumns(names []string) ColumnSpec { return ColumnSpec{single: append([]string(nil), names...)} }

func (c ColumnSpec) Columns() []string { return c.single }
func (c ColumnSpec) IsEmpty() bool     { return len(c.single) == 0 }

// LogicalOperator determines how per-column sub-verdicts combine in a
// multi-column constraint.
type LogicalOperator struct {
	kind string
	k    int
}

func All() LogicalOperator  { return LogicalOperator{kind: "all"} }
func Any() LogicalOperator  { return LogicalOperator{kind: "any"} }
func AtLeast(k int) LogicalOperator { return LogicalOperator{kind: "at_least", k: k} }
func Exactly(k int) LogicalOperator { return LogicalOperator{kind: "exactly", k: k} }
func AtMost(k int) LogicalOperator  { return LogicalOperator{kind: "at_most", k: k} }

// Validate checks the k ≥ 0 and k ≤ numColumns invariant for bounded
// operators; All/Any are always valid.
func (op LogicalOperator) Validate(numColumns int) error {
	switch op.kind {
	case "all", "any":
		return nil
	case "at_least", "exactly", "at_most":
		if op.k < 0 || op.k > numColumns {
			return fmt.Errorf("logical operator %s(%d) out of range for %d columns", op.kind, op.k, numColumns)
		}
		return nil
	default:
		return fmt.Errorf("unknown logical operator")
	}
}

// Combine applies the operator to the count of columns that individually
// satisfied their predicate, out of total columns evaluated.
func (op LogicalOperator) Combine(satisfied, total int) bool {
	switch op.kind {
	case "all":
		return satisfied == total
	case "any":
		return satisfied > 0
	case "at_least":
		return satisfied >= op.k
	case "exactly":
		return satisfied == op.k
	case "at_most":
		return satisfied <= op.k
	default:
		return false
	}
}

func (op LogicalOperator) String() string {
	switch op.kind {
	case "at_least", "exactly", "at_most":
		return fmt.Sprintf("%s(%d)", op.kind, op.k)
	default:
		return op.kind
	}
}

// Assertion is a closed-form predicate on a real number used to judge a
// computed metric. NaN never satisfies any assertion.
type Assertion struct {
	kind   string
	x, y   float64
}

func Equals(x float64) Assertion               { return Assertion{kind: "eq", x: x} }
func GreaterThan(x float64) Assertion           { return Assertion{kind: "gt", x: x} }
func GreaterThanOrEqual(x float64) Assertion    { return Assertion{kind: "gte", x: x} }
func LessThan(x float64) Assertion              { return Assertion{kind: "lt", x: x} }
func LessThanOrEqual(x float64) Assertion       { return Assertion{kind: "lte", x: x} }

// Between requires lo <= hi; panics on construction otherwise, matching the
// builder-time validation failure policy for malformed assertions.
func Between(lo, hi float64) Assertion {
	if lo > hi {
		panic(fmt.Sprintf("assertion Between requires lo <= hi, got lo=%v hi=%v", lo, hi))
	}
	return Assertion{kind: "between", x: lo, y: hi}
}

// Satisfies evaluates the assertion deterministically; NaN is never
// considered satisfying.
func (a Assertion) Satisfies(value float64) bool {
	if math.IsNaN(value) {
		return false
	}
	switch a.kind {
	case "eq":
		return value == a.x
	case "gt":
		return value > a.x
	case "gte":
		return value >= a.x
	case "lt":
		return value < a.x
	case "lte":
		return value <= a.x
	case "between":
		return value >= a.x && value <= a.y
	default:
		return false
	}
}

func (a Assertion) String() string {
	switch a.kind {
	case "eq":
		return fmt.Sprintf("== %v", a.x)
	case "gt":
		return fmt.Sprintf("> %v", a.x)
	case "gte":
		return fmt.Sprintf(">= %v", a.x)
	case "lt":
		return fmt.Sprintf("< %v", a.x)
	case "lte":
		return fmt.Sprintf("<= %v", a.x)
	case "between":
		return fmt.Sprintf("between %v and %v", a.x, a.y)
	default:
		return "?"
	}
}
