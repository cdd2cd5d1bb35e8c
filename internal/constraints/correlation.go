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

// CorrelationType is the statistic computed between two columns.
type CorrelationType struct {
	kind           string
	bins           int
	customSQL      string
}

var (
	CorrelationPearson    = CorrelationType{kind: "pearson"}
	CorrelationSpearman   = CorrelationType{kind: "spearman"}
	CorrelationKendallTau = CorrelationType{kind: "kendall_tau"}
	CorrelationCovariance = CorrelationType{kind: "covariance"}
)

func CorrelationMutualInformation(bins int) CorrelationType {
	return CorrelationType{kind: "mutual_information", bins: bins}
}

// CorrelationCustom builds a custom correlation type from a SQL snippet with
// {column1}/{column2} placeholders. The expression is validated by §4.1
// before substitution.
func CorrelationCustom(sqlExpression string) (CorrelationType, error) {
	if err := sqlsafe.ValidateSQLExpression(sqlExpression); err != nil {
		return CorrelationType{}, err
	}
	return CorrelationType{kind: "custom", customSQL: sqlExpression}, nil
}

func (c CorrelationType) name() string {
	switch c.kind {
	case "pearson":
		return "Pearson correlation"
	case "spearman":
		return "Spearman correlation"
	case "kendall_tau":
		return "Kendall's tau"
	case "mutual_information":
		return "mutual information"
	case "covariance":
		return "covariance"
	default:
		return "custom correlation"
	}
}

func (c CorrelationType) constraintName() string {
	switch c.kind {
	case "pearson":
		return "correlation"
	case "spearman":
		return "spearman_correlation"
	case "kendall_tau":
		return "kendall_correlation"
	case "mutual_information":
		return "mutual_information"
	case "covariance":
		return "covariance"
	default:
		return "custom_correlation"
	}
}

// correlationMode selects the shape of the Correlation constraint:
// Pairwise (assertion), Range (min/max), or Independence (max |corr|).
type correlationMode string

const (
	modePairwise     correlationMode = "pairwise"
	modeRange        correlationMode = "range"
	modeIndependence correlationMode = "independence"
)

// Correlation validates the relationship between two columns.
type Correlation struct {
	mode            correlationMode
	column1, column2 string
	corrType        CorrelationType
	assertion       Assertion
	min, max        float64
	maxCorrelation  float64
}

func validateCorrelationColumns(column1, column2 string) error {
	if err := sqlsafe.ValidateIdentifier(column1); err != nil {
		return err
	}
	return sqlsafe.ValidateIdentifier(column2)
}

// NewPairwiseCorrelation checks a correlation type against an assertion.
func NewPairwiseCorrelation(column1, column2 string, corrType CorrelationType, assertion Assertion) (*Correlation, error) {
	if err := validateCorrelationColumns(column1, column2); err != nil {
		return nil, err
	}
	return &Correlation{mode: modePairwise, column1: column1, column2: column2, corrType: corrType, assertion: assertion}, nil
}

// NewRangeCorrelation checks min <= corr <= max.
func NewRangeCorrelation(column1, column2 string, corrType CorrelationType, min, max float64) (*Correlation, error) {
	if err := validateCorrelationColumns(column1, column2); err != nil {
		return nil, err
	}
	if min > max {
		return nil, errors.NewConfigurationError("correlation range requires min <= max")
	}
	return &Correlation{mode: modeRange, column1: column1, column2: column2, corrType: corrType, min: min, max: max}, nil
}

// NewIndependenceCorrelation asserts |corr| <= maxCorrelation.
func NewIndependenceCorrelation(column1, column2 string, corrType CorrelationType, maxCorrelation float64) (*Correlation, error) {
	if err := validateCorrelationColumns(column1, column2); err != nil {
		return nil, err
	}
	return &Correlation{mode: modeIndependence, column1: column1, column2: column2, corrType: corrType, maxCorrelation: maxCorrelation}, nil
}

func (c *Correlation) Name() string        { return c.corrType.constraintName() }
func (c *Correlation) Column() (string, bool) { return "", false }

func (c *Correlation) Metadata() Metadata {
	return Metadata{
		Columns:     []string{c.column1, c.column2},
		Description: fmt.Sprintf("Checks %s between '%s' and '%s'", c.corrType.name(), c.column1, c.column2),
		Custom: map[string]string{
			"constraint_type": "correlation",
			"correlation_type": c.corrType.kind,
		},
	}
}

func (c *Correlation) Evaluate(ctx context.Context, session engine.Session) Result {
	if c.corrType.kind == "kendall_tau" {
		return Skipped("not implemented")
	}

	col1, err := sqlsafe.EscapeIdentifier(c.column1)
	if err != nil {
		return Failure(err.Error())
	}
	col2, err := sqlsafe.EscapeIdentifier(c.column2)
	if err != nil {
		return Failure(err.Error())
	}
	table := validationctx.TableName(ctx)

	var expr string
	switch c.corrType.kind {
	case "pearson":
		expr = fmt.Sprintf("CORR(%s, %s)", col1, col2)
	case "covariance":
		expr = fmt.Sprintf("COVAR_POP(%s, %s)", col1, col2)
	case "spearman":
		sql := fmt.Sprintf(
			`WITH ranked AS (SELECT RANK() OVER (ORDER BY %s) AS r1, RANK() OVER (ORDER BY %s) AS r2 FROM %s WHERE %s IS NOT NULL AND %s IS NOT NULL)
			 SELECT CORR(r1, r2) AS corr_value FROM ranked`,
			col1, col2, table, col1, col2)
		return c.evaluateExpr(ctx, session, sql)
	case "mutual_information":
		sql := fmt.Sprintf(
			`WITH buckets AS (SELECT NTILE(%d) OVER (ORDER BY %s) AS b1, NTILE(%d) OVER (ORDER BY %s) AS b2 FROM %s WHERE %s IS NOT NULL AND %s IS NOT NULL),
			      joint AS (SELECT b1, b2, COUNT(*)::DOUBLE AS c FROM buckets GROUP BY b1, b2),
			      m1 AS (SELECT b1, COUNT(*)::DOUBLE AS c FROM buckets GROUP BY b1),
			      m2 AS (SELECT b2, COUNT(*)::DOUBLE AS c FROM buckets GROUP BY b2),
			      total AS (SELECT COUNT(*)::DOUBLE AS n FROM buckets)
			 SELECT SUM((j.c / t.n) * LN((j.c * t.n) / (m1.c * m2.c))) AS corr_value
			 FROM joint j JOIN m1 ON j.b1 = m1.b1 JOIN m2 ON j.b2 = m2.b2 CROSS JOIN total t`,
			c.corrType.bins, col1, c.corrType.bins, col2, table, col1, col2)
		return c.evaluateExpr(ctx, session, sql)
	case "custom":
		substituted := strings.NewReplacer("{column1}", col1, "{column2}", col2).Replace(c.corrType.customSQL)
		if err := sqlsafe.ValidateSQLExpression(substituted); err != nil {
			return Failure(err.Error())
		}
		expr = substituted
	default:
		return Failure("unsupported correlation type")
	}

	sql := fmt.Sprintf("SELECT %s AS corr_value FROM %s", expr, table)
	return c.evaluateExpr(ctx, session, sql)
}

func (c *Correlation) evaluateExpr(ctx context.Context, session engine.Session, sql string) Result {
	columns, row, ok, err := runSingleRow(ctx, session, sql)
	if err != nil {
		return Failure(err.Error())
	}
	if !ok {
		return Skipped("No data to validate")
	}
	value, present, err := toFloat64Nullable(columns, row, "corr_value")
	if err != nil {
		return Failure(err.Error())
	}
	if !present {
		return Skipped("No data to validate")
	}

	switch c.mode {
	case modePairwise:
		if c.assertion.Satisfies(value) {
			return SuccessWithMetric(value, "")
		}
		return FailureWithMetric(value, fmt.Sprintf("%s %v does not %s", c.corrType.name(), value, c.assertion.String()))
	case modeRange:
		if value >= c.min && value <= c.max {
			return SuccessWithMetric(value, "")
		}
		return FailureWithMetric(value, fmt.Sprintf("%s %v is outside range [%v, %v]", c.corrType.name(), value, c.min, c.max))
	case modeIndependence:
		abs := value
		if abs < 0 {
			abs = -abs
		}
		if abs <= c.maxCorrelation {
			return SuccessWithMetric(value, "")
		}
		return FailureWithMetric(value, fmt.Sprintf("%s magnitude %v exceeds independence threshold %v", c.corrType.name(), abs, c.maxCorrelation))
	default:
		return Failure("unsupported correlation mode")
	}
}
