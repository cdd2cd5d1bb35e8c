// Package markdown renders a report.Report as a GitHub-flavoured markdown
// document, suitable for posting as a PR comment or CI job summary.
package markdown

import (
	"fmt"

	"github.com/canonica-labs/canonica-validate/internal/report"
)

// Format renders r as a markdown document with a summary table and an issue
// list.
func Format(r report.Report) string {
	var out string
	out += "# Validation Report\n\n"
	if r.Success {
		out += "**Result:** :white_check_mark: PASS\n\n"
	} else {
		out += "**Result:** :x: FAIL\n\n"
	}

	out += fmt.Sprintf("**Sources:** %s\n\n", formatSources(r.Sources))

	out += "| Passed | Failed | Skipped | Total |\n"
	out += "|---|---|---|---|\n"
	out += fmt.Sprintf("| %d | %d | %d | %d |\n\n", r.Passed, r.Failed, r.Skipped, r.Total())

	if len(r.Issues) == 0 {
		return out
	}

	out += "## Issues\n\n"
	out += "| Level | Status | Table | Check | Message |\n"
	out += "|---|---|---|---|---|\n"
	for _, issue := range r.Issues {
		out += fmt.Sprintf("| %s | %s | %s | %s | %s |\n", issue.Level, issue.Status, issue.Table, issue.CheckName, escapePipes(issue.Message))
	}
	return out
}

func formatSources(sources []string) string {
	if len(sources) == 0 {
		return "_none_"
	}
	joined := sources[0]
	for _, s := range sources[1:] {
		joined += ", " + s
	}
	return joined
}

func escapePipes(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '|' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
