// Package jsonfmt renders a report.Report as JSON, preserving the field
// ordering declared on the struct.
package jsonfmt

import (
	"encoding/json"

	"github.com/canonica-labs/canonica-validate/internal/report"
)

// Format marshals r to indented JSON.
func Format(r report.Report) (string, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compact marshals r to single-line JSON, used when the report is embedded
// in another envelope rather than printed standalone.
func Compact(r report.Report) (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
