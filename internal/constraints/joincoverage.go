package constraints

import (
	"context"
	"fmt"
	"strings"

	"github.com/canonica-labs/canonica-validate/internal/engine"
	"github.com/canonica-labs/canonica-validate/internal/errors"
	"github.com/canonica-labs/canonica-validate/internal/sqlsafe"
)

// JoinType names a SQL join variety. It is recorded on a JoinCoverage;
// coverage itself is always measured with a LEFT JOIN from the base side,
// whichever JoinType is given.
type JoinType string

const (
	JoinInner JoinType = "inner"
	JoinLeft  JoinType = "left"
	JoinRight JoinType = "right"
	JoinFull  JoinType = "full"
)

// CoverageDirection selects which side's row count is the denominator.
type CoverageDirection string

const (
	LeftToRight  CoverageDirection = "left_to_right"
	RightToLeft  CoverageDirection = "right_to_left"
	Bidirectional CoverageDirection = "bidirectional"
)

// JoinCoverage measures the fraction of one table's rows that find a match
// in another, via an equi-join on one or more column pairs.
type JoinCoverage struct {
	leftTable, rightTable string
	leftCols, rightCols   []string
	joinType              JoinType
	direction             CoverageDirection
	min, max              float64
}

func NewJoinCoverage(leftTable, rightTable string, leftCols, rightCols []string, joinType JoinType, direction CoverageDirection, min, max float64) (*JoinCoverage, error) {
	if err := sqlsafe.ValidateIdentifier(leftTable); err != nil {
		return nil, err
	}
	if err := sqlsafe.ValidateIdentifier(rightTable); err != nil {
		return nil, err
	}
	if len(leftCols) == 0 || len(leftCols) != len(rightCols) {
		return nil, errors.NewConfigurationError("join coverage requires matching non-empty left/right column lists")
	}
	for _, col := range leftCols {
		if err := sqlsafe.ValidateIdentifier(col); err != nil {
			return nil, err
		}
	}
	for _, col := range rightCols {
		if err := sqlsafe.ValidateIdentifier(col); err != nil {
			return nil, err
		}
	}
	if min > max {
		return nil, errors.NewConfigurationError("join coverage requires min <= max")
	}
	return &JoinCoverage{
		leftTable: leftTable, rightTable: rightTable,
		leftCols: append([]string(nil), leftCols...), rightCols: append([]string(nil), rightCols...),
		joinType: joinType, direction: direction, min: min, max: max,
	}, nil
}

func (j *JoinCoverage) Name() string        { return "join_coverage" }
func (j *JoinCoverage) Column() (string, bool) { return "", false }

func (j *JoinCoverage) Metadata() Metadata {
	return Metadata{
		Description: fmt.Sprintf("Checks join coverage between %s and %s is within [%v, %v]", j.leftTable, j.rightTable, j.min, j.max),
		Custom:      map[string]string{"constraint_type": "join_coverage"},
	}
}

func (j *JoinCoverage) Evaluate(ctx context.Context, session engine.Session) Result {
	leftTable, err := sqlsafe.EscapeIdentifier(j.leftTable)
	if err != nil {
		return Failure(err.Error())
	}
	rightTable, err := sqlsafe.EscapeIdentifier(j.rightTable)
	if err != nil {
		return Failure(err.Error())
	}

	joinConds := make([]string, len(j.leftCols))
	for i := range j.leftCols {
		lc, err := sqlsafe.EscapeIdentifier(j.leftCols[i])
		if err != nil {
			return Failure(err.Error())
		}
		rc, err := sqlsafe.EscapeIdentifier(j.rightCols[i])
		if err != nil {
			return Failure(err.Error())
		}
		joinConds[i] = fmt.Sprintf("l.%s = r.%s", lc, rc)
	}
	onClause := strings.Join(joinConds, " AND ")

	ltrRatio, ltrErr := j.coverageRatio(ctx, session, leftTable, rightTable, onClause, true)
	if ltrErr != nil {
		return Failure(ltrErr.Error())
	}

	switch j.direction {
	case LeftToRight:
		return j.verdict(ltrRatio)
	case RightToLeft:
		rtlRatio, err := j.coverageRatio(ctx, session, leftTable, rightTable, onClause, false)
		if err != nil {
			return Failure(err.Error())
		}
		return j.verdict(rtlRatio)
	case Bidirectional:
		rtlRatio, err := j.coverageRatio(ctx, session, leftTable, rightTable, onClause, false)
		if err != nil {
			return Failure(err.Error())
		}
		combined := ltrRatio
		if rtlRatio < combined {
			combined = rtlRatio
		}
		if ltrRatio >= j.min && ltrRatio <= j.max && rtlRatio >= j.min && rtlRatio <= j.max {
			return SuccessWithMetric(combined, "")
		}
		return FailureWithMetric(combined, fmt.Sprintf("bidirectional coverage left->right=%v right->left=%v not both within [%v, %v]", ltrRatio, rtlRatio, j.min, j.max))
	default:
		return Failure("unsupported coverage direction")
	}
}

// coverageRatio returns (matched base-side rows) / (total base-side rows).
// forward=true measures left-table coverage against the right table;
// forward=false measures right-table coverage against the left table.
func (j *JoinCoverage) coverageRatio(ctx context.Context, session engine.Session, leftTable, rightTable, onClause string, forward bool) (float64, error) {
	baseTable, otherTable := leftTable, rightTable
	baseAlias, otherAlias := "l", "r"
	if !forward {
		baseTable, otherTable = rightTable, leftTable
		baseAlias, otherAlias = "r", "l"
	}

	sql := fmt.Sprintf(
		`SELECT COUNT(*) AS total, COUNT(%s.*) AS matched
		 FROM %s %s LEFT JOIN %s %s ON %s`,
		otherAlias, baseTable, baseAlias, otherTable, otherAlias, onClause)

	columns, row, ok, err := runSingleRow(ctx, session, sql)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	total, err := toInt64(columns, row, "total")
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	matched, err := toInt64(columns, row, "matched")
	if err != nil {
		return 0, err
	}
	return float64(matched) / float64(total), nil
}

func (j *JoinCoverage) verdict(ratio float64) Result {
	if ratio >= j.min && ratio <= j.max {
		return SuccessWithMetric(ratio, "")
	}
	return FailureWithMetric(ratio, fmt.Sprintf("join coverage %v is outside [%v, %v]", ratio, j.min, j.max))
}
