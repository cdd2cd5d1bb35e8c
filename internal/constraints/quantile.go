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

// QuantileMethod controls how a quantile is computed.
type QuantileMethod struct {
	kind      string
	threshold int
}

var (
	QuantileApproximate = QuantileMethod{kind: "approximate"}
	// QuantileExact requests an exact quantile, computed with the engine's
	// PERCENTILE_CONT; there is no fallback to the approximate function.
	QuantileExact = QuantileMethod{kind: "exact"}
)

// QuantileAuto picks Exact when row_count <= threshold, else Approximate.
// The caller always supplies the threshold; no constructor in this package
// applies a default. This is a performance knob, not a correctness contract.
func QuantileAuto(threshold int) QuantileMethod { return QuantileMethod{kind: "auto", threshold: threshold} }

func (m QuantileMethod) sqlFunction(rowCount int64) string {
	switch m.kind {
	case "exact":
		return "PERCENTILE_CONT"
	case "auto":
		if rowCount <= int64(m.threshold) {
			return "PERCENTILE_CONT"
		}
		return "APPROX_QUANTILE"
	default:
		return "APPROX_QUANTILE"
	}
}

// QuantileCheck is a single quantile-and-assertion pair.
type QuantileCheck struct {
	Quantile  float64
	Assertion Assertion
}

func NewQuantileCheck(quantile float64, assertion Assertion) (QuantileCheck, error) {
	if quantile < 0 || quantile > 1 {
		return QuantileCheck{}, errors.NewConfigurationError("quantile must be between 0.0 and 1.0")
	}
	return QuantileCheck{Quantile: quantile, Assertion: assertion}, nil
}

// Quantile validates one or more quantiles of a column, optionally asserting
// the sequence of quantile values is monotonic.
type Quantile struct {
	column    string
	checks    []QuantileCheck
	monotonic bool
	strict    bool
	method    QuantileMethod
}

// NewQuantile checks a single quantile. Use NewMultiQuantile for several at
// once, or NewMonotonicQuantile for a monotonicity assertion over a
// sequence.
func NewQuantile(column string, check QuantileCheck, method QuantileMethod) (*Quantile, error) {
	return NewMultiQuantile(column, []QuantileCheck{check}, method)
}

func NewMultiQuantile(column string, checks []QuantileCheck, method QuantileMethod) (*Quantile, error) {
	if err := sqlsafe.ValidateIdentifier(column); err != nil {
		return nil, err
	}
	if len(checks) == 0 {
		return nil, errors.NewConfigurationError("at least one quantile check is required")
	}
	return &Quantile{column: column, checks: checks, method: method}, nil
}

// NewMonotonicQuantile asserts the sequence of quantile values is
// non-decreasing (or strictly increasing when strict is true).
func NewMonotonicQuantile(column string, quantiles []float64, strict bool, method QuantileMethod) (*Quantile, error) {
	if err := sqlsafe.ValidateIdentifier(column); err != nil {
		return nil, err
	}
	if len(quantiles) < 2 {
		return nil, errors.NewConfigurationError("monotonic quantile check requires at least two quantiles")
	}
	checks := make([]QuantileCheck, len(quantiles))
	for i, q := range quantiles {
		if q < 0 || q > 1 {
			return nil, errors.NewConfigurationError("quantile must be between 0.0 and 1.0")
		}
		checks[i] = QuantileCheck{Quantile: q}
	}
	return &Quantile{column: column, checks: checks, monotonic: true, strict: strict, method: method}, nil
}

func (q *Quantile) Name() string {
	if q.monotonic {
		return "quantile_monotonic"
	}
	if len(q.checks) == 1 {
		if q.checks[0].Quantile == 0.5 {
			return "median"
		}
		return "percentile"
	}
	return "quantile"
}

func (q *Quantile) Column() (string, bool) { return q.column, true }

func (q *Quantile) Metadata() Metadata {
	return Metadata{
		Columns:     []string{q.column},
		Description: fmt.Sprintf("Checks quantile(s) of %s", q.column),
		Custom: map[string]string{
			"constraint_type": "quantile",
			"monotonic":       fmt.Sprintf("%v", q.monotonic),
		},
	}
}

func (q *Quantile) Evaluate(ctx context.Context, session engine.Session) Result {
	escaped, err := sqlsafe.EscapeIdentifier(q.column)
	if err != nil {
		return Failure(err.Error())
	}
	table := validationctx.TableName(ctx)

	rowCount, ok, err := q.countRows(ctx, session, table)
	if err != nil {
		return Failure(err.Error())
	}
	if !ok {
		return Skipped("No data to validate")
	}

	fn := q.method.sqlFunction(rowCount)
	parts := make([]string, len(q.checks))
	for i, c := range q.checks {
		parts[i] = fmt.Sprintf("%s(%s, %v) AS q_%d", fn, escaped, c.Quantile, i)
	}

	sql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(parts, ", "), table)
	columns, row, ok, err := runSingleRow(ctx, session, sql)
	if err != nil {
		return Failure(err.Error())
	}
	if !ok {
		return Skipped("No data to validate")
	}

	values := make([]float64, len(q.checks))
	for i := range q.checks {
		v, present, err := toFloat64Nullable(columns, row, fmt.Sprintf("q_%d", i))
		if err != nil {
			return Failure(err.Error())
		}
		if !present {
			return Failure(fmt.Sprintf("quantile %v is null", q.checks[i].Quantile))
		}
		values[i] = v
	}

	if q.monotonic {
		for i := 1; i < len(values); i++ {
			if q.strict && values[i] <= values[i-1] {
				return FailureWithMetric(values[i], fmt.Sprintf("quantile sequence is not strictly increasing at index %d", i))
			}
			if !q.strict && values[i] < values[i-1] {
				return FailureWithMetric(values[i], fmt.Sprintf("quantile sequence is not non-decreasing at index %d", i))
			}
		}
		return SuccessWithMetric(values[0], "")
	}

	var failures []string
	for i, c := range q.checks {
		if !c.Assertion.Satisfies(values[i]) {
			failures = append(failures, fmt.Sprintf("quantile %v is %v which does not %s", c.Quantile, values[i], c.Assertion.String()))
		}
	}
	if len(failures) == 0 {
		return SuccessWithMetric(values[0], "")
	}
	return Failure(strings.Join(failures, "; "))
}

func (q *Quantile) countRows(ctx context.Context, session engine.Session, table string) (int64, bool, error) {
	sql := fmt.Sprintf("SELECT COUNT(*) AS row_count FROM %s", table)
	columns, row, ok, err := runSingleRow(ctx, session, sql)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}
	count, err := toInt64(columns, row, "row_count")
	if err != nil {
		return 0, false, err
	}
	if count == 0 {
		return 0, false, nil
	}
	return count, true, nil
}
