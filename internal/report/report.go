// Package report builds the serialisable root result of a validation run and
// hands it to one of several formatters. The report itself carries no
// presentation logic; human, JSON, and markdown formatting live in
// sub-packages so a caller only pays for the formatter it imports.
package report

import "github.com/canonica-labs/canonica-validate/internal/validator"

// IssueView is one non-Success check outcome, carried at the presentation
// layer so formatters don't need to import the constraints package directly.
type IssueView struct {
	CheckName string   `json:"check_name"`
	Table     string   `json:"table"`
	Level     string   `json:"level"`
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	Metric    *float64 `json:"metric,omitempty"`
}

// Report is the serialisable root of a validation run: a source list, a
// pass/fail/skip tally, and the full issue list behind it.
type Report struct {
	Sources []string    `json:"sources"`
	Passed  int         `json:"passed"`
	Failed  int         `json:"failed"`
	Skipped int         `json:"skipped"`
	Success bool        `json:"success"`
	Issues  []IssueView `json:"issues"`
}

// FromOutcome adapts a validator.Outcome plus the sources it ran against into
// a Report. Sources is supplied separately because the validator does not
// expose its registry ordering.
func FromOutcome(outcome validator.Outcome, sources []string) Report {
	issues := make([]IssueView, 0, len(outcome.Report.Issues))
	for _, issue := range outcome.Report.Issues {
		issues = append(issues, IssueView{
			CheckName: issue.CheckName,
			Table:     issue.Table,
			Level:     string(issue.Level),
			Status:    string(issue.Status),
			Message:   issue.Message,
			Metric:    issue.Metric,
		})
	}
	return Report{
		Sources: sources,
		Passed:  outcome.Report.Passed,
		Failed:  outcome.Report.Failed,
		Skipped: outcome.Report.Skipped,
		Success: outcome.Success,
		Issues:  issues,
	}
}

// Total is the number of checks the report accounts for.
func (r Report) Total() int {
	return r.Passed + r.Failed + r.Skipped
}
