package metrics

import "encoding/json"

func marshalVariant(name string, value any) ([]byte, error) {
	return json.Marshal(map[string]any{name: value})
}

// MetricValue is a tagged union over the value kinds the wire format
// carries. Vector and Map kinds are intentionally absent: they are skipped
// during conversion to the wire format rather than represented here.
type MetricValue struct {
	Double    *float64
	Long      *int64
	String    *string
	Boolean   *bool
	Histogram *Histogram
}

// DoubleValue wraps a float64 metric value.
func DoubleValue(v float64) MetricValue { return MetricValue{Double: &v} }

// LongValue wraps an int64 metric value.
func LongValue(v int64) MetricValue { return MetricValue{Long: &v} }

// StringValue wraps a string metric value.
func StringValue(v string) MetricValue { return MetricValue{String: &v} }

// BooleanValue wraps a bool metric value.
func BooleanValue(v bool) MetricValue { return MetricValue{Boolean: &v} }

// HistogramValue wraps a Histogram metric value.
func HistogramValue(h Histogram) MetricValue { return MetricValue{Histogram: &h} }

// HistogramBucket is one bucket of a Histogram's distribution.
type HistogramBucket struct {
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
	Count      int64   `json:"count"`
}

// Histogram is the wire representation of a distribution summary.
type Histogram struct {
	Buckets    []HistogramBucket `json:"buckets"`
	TotalCount int64             `json:"total_count"`
	Min        float64           `json:"min"`
	Max        float64           `json:"max"`
	Mean       float64           `json:"mean"`
	StdDev     float64           `json:"std_dev"`
}

// MarshalJSON renders MetricValue as the tagged-object shape the wire
// format expects: exactly one of Double/Long/String/Boolean/Histogram keyed
// by its variant name.
func (v MetricValue) MarshalJSON() ([]byte, error) {
	switch {
	case v.Double != nil:
		return marshalVariant("Double", *v.Double)
	case v.Long != nil:
		return marshalVariant("Long", *v.Long)
	case v.String != nil:
		return marshalVariant("String", *v.String)
	case v.Boolean != nil:
		return marshalVariant("Boolean", *v.Boolean)
	case v.Histogram != nil:
		return marshalVariant("Histogram", *v.Histogram)
	default:
		return []byte("null"), nil
	}
}

// WireMetadata carries the optional descriptive fields attached to a
// metric batch entry.
type WireMetadata struct {
	DatasetName string            `json:"dataset_name,omitempty"`
	StartTime   string            `json:"start_time,omitempty"`
	EndTime     string            `json:"end_time,omitempty"`
	TermVersion string            `json:"term_version,omitempty"`
	Custom      map[string]string `json:"custom,omitempty"`
}

// WireResultKey is the wire representation of a ResultKey.
type WireResultKey struct {
	DatasetDate int64             `json:"dataset_date"`
	Tags        map[string]string `json:"tags"`
}

// WireMetric is one entry of a metrics upload batch.
type WireMetric struct {
	ResultKey        WireResultKey          `json:"result_key"`
	Metrics          map[string]MetricValue `json:"metrics"`
	Metadata         WireMetadata           `json:"metadata"`
	ValidationResult any                    `json:"validation_result"`
}

// UploadRequest is the POST /v1/metrics request body.
type UploadRequest struct {
	Metrics []WireMetric `json:"metrics"`
}

// UploadResponse is the POST /v1/metrics response body.
type UploadResponse struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}

// ToWireResultKey converts a ResultKey to its wire shape.
func (k ResultKey) ToWireResultKey() WireResultKey {
	return WireResultKey{DatasetDate: k.TimestampMillis, Tags: k.Tags}
}
