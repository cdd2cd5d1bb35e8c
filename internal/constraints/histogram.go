package constraints

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/canonica-labs/canonica-validate/internal/engine"
	"github.com/canonica-labs/canonica-validate/internal/sqlsafe"
	"github.com/canonica-labs/canonica-validate/internal/validationctx"
)

// HistogramBucket is one distinct value and its frequency.
type HistogramBucket struct {
	Value string
	Count int64
	Ratio float64
}

// Histogram computes value -> count for a column, ordered by frequency
// descending (ties broken by ascending value string).
type Histogram struct {
	Buckets    []HistogramBucket
	Distinct   int64
	NullCount  int64
	TotalCount int64
}

// NonNullTotal is the denominator ratios are computed over.
func (h Histogram) NonNullTotal() int64 { return h.TotalCount - h.NullCount }

// MostCommonRatio is the ratio of the highest-frequency bucket, or 0 if
// there are no buckets.
func (h Histogram) MostCommonRatio() float64 {
	if len(h.Buckets) == 0 {
		return 0
	}
	return h.Buckets[0].Ratio
}

// LeastCommonRatio is the ratio of the lowest-frequency bucket, or 0 if
// there are no buckets.
func (h Histogram) LeastCommonRatio() float64 {
	if len(h.Buckets) == 0 {
		return 0
	}
	return h.Buckets[len(h.Buckets)-1].Ratio
}

// Entropy is -sum(r*ln(r)) over buckets with nonzero ratio.
func (h Histogram) Entropy() float64 {
	var e float64
	for _, b := range h.Buckets {
		if b.Ratio > 0 {
			e -= b.Ratio * math.Log(b.Ratio)
		}
	}
	return e
}

// FollowsPowerLaw reports whether the top-n buckets together account for at
// least ratio t of the non-null total.
func (h Histogram) FollowsPowerLaw(n int, t float64) bool {
	if n > len(h.Buckets) {
		n = len(h.Buckets)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += h.Buckets[i].Ratio
	}
	return sum >= t
}

// IsRoughlyUniform reports max_ratio/min_ratio <= t; false if any bucket has
// a zero ratio (a true zero-frequency bucket cannot be "roughly uniform").
func (h Histogram) IsRoughlyUniform(t float64) bool {
	if len(h.Buckets) == 0 {
		return false
	}
	maxRatio, minRatio := h.Buckets[0].Ratio, h.Buckets[0].Ratio
	for _, b := range h.Buckets {
		if b.Ratio == 0 {
			return false
		}
		if b.Ratio > maxRatio {
			maxRatio = b.Ratio
		}
		if b.Ratio < minRatio {
			minRatio = b.Ratio
		}
	}
	return maxRatio/minRatio <= t
}

// HistogramConstraint computes a column's Histogram and evaluates a
// user-supplied predicate over it. The default emitted metric is entropy.
type HistogramConstraint struct {
	column  string
	assert  func(Histogram) (bool, string)
}

// NewHistogramConstraint builds a histogram constraint. assertion receives
// the computed Histogram and returns whether it passes, plus an optional
// failure message.
func NewHistogramConstraint(column string, assertion func(Histogram) (bool, string)) (*HistogramConstraint, error) {
	if err := sqlsafe.ValidateIdentifier(column); err != nil {
		return nil, err
	}
	return &HistogramConstraint{column: column, assert: assertion}, nil
}

func (h *HistogramConstraint) Name() string        { return "histogram" }
func (h *HistogramConstraint) Column() (string, bool) { return h.column, true }

func (h *HistogramConstraint) Metadata() Metadata {
	return Metadata{
		Columns:     []string{h.column},
		Description: fmt.Sprintf("Computes the value distribution of '%s'", h.column),
		Custom:      map[string]string{"constraint_type": "histogram"},
	}
}

func (h *HistogramConstraint) Evaluate(ctx context.Context, session engine.Session) Result {
	escaped, err := sqlsafe.EscapeIdentifier(h.column)
	if err != nil {
		return Failure(err.Error())
	}

	table := validationctx.TableName(ctx)
	bucketSQL := fmt.Sprintf(
		`SELECT CAST(%s AS VARCHAR) AS bucket_value, COUNT(*) AS bucket_count FROM %s WHERE %s IS NOT NULL GROUP BY CAST(%s AS VARCHAR)`,
		escaped, table, escaped, escaped)

	columns, rows, ok, err := runRows(ctx, session, bucketSQL)
	if err != nil {
		return Failure(err.Error())
	}

	totalSQL := fmt.Sprintf(`SELECT COUNT(*) AS total, COUNT(%s) AS non_null FROM %s`, escaped, table)
	totalCols, totalRow, totalOK, err := runSingleRow(ctx, session, totalSQL)
	if err != nil {
		return Failure(err.Error())
	}
	if !totalOK {
		return Skipped("No data to validate")
	}
	total, err := toInt64(totalCols, totalRow, "total")
	if err != nil {
		return Failure(err.Error())
	}
	if total == 0 {
		return Skipped("No data to validate")
	}
	nonNull, err := toInt64(totalCols, totalRow, "non_null")
	if err != nil {
		return Failure(err.Error())
	}
	nullCount := total - nonNull

	var buckets []HistogramBucket
	if ok {
		for _, row := range rows {
			val, _ := cellByName(columns, row, "bucket_value")
			count, err := toInt64(columns, row, "bucket_count")
			if err != nil {
				return Failure(err.Error())
			}
			buckets = append(buckets, HistogramBucket{Value: fmt.Sprintf("%v", val), Count: count})
		}
	}

	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Value < buckets[j].Value
	})

	if nonNull > 0 {
		for i := range buckets {
			buckets[i].Ratio = float64(buckets[i].Count) / float64(nonNull)
		}
	}

	hist := Histogram{
		Buckets:    buckets,
		Distinct:   int64(len(buckets)),
		NullCount:  nullCount,
		TotalCount: total,
	}

	passed, message := true, ""
	if h.assert != nil {
		passed, message = h.assert(hist)
	}

	entropy := hist.Entropy()
	if passed {
		return SuccessWithMetric(entropy, message)
	}
	return FailureWithMetric(entropy, message)
}
