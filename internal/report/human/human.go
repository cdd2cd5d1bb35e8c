// Package human renders a report.Report as plain text for terminal output,
// in the teacher's Explain-style line-by-line string-builder shape.
package human

import (
	"fmt"

	"github.com/canonica-labs/canonica-validate/internal/report"
)

const (
	ansiReset = "\x1b[0m"
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiDim   = "\x1b[2m"
)

// Options controls human formatting.
type Options struct {
	Colour    bool
	MaxIssues int // 0 means unlimited
}

// Format renders r as a multi-line human-readable summary.
func Format(r report.Report, opts Options) string {
	var out string
	out += "Validation Report\n"
	out += fmt.Sprintf("Sources: %s\n", formatSources(r.Sources))
	out += fmt.Sprintf("Result: %s\n", statusLine(r.Success, opts.Colour))
	out += fmt.Sprintf("Passed: %d  Failed: %d  Skipped: %d  Total: %d\n", r.Passed, r.Failed, r.Skipped, r.Total())

	if len(r.Issues) == 0 {
		return out
	}

	out += "\nIssues:\n"
	shown := r.Issues
	truncated := 0
	if opts.MaxIssues > 0 && len(shown) > opts.MaxIssues {
		truncated = len(shown) - opts.MaxIssues
		shown = shown[:opts.MaxIssues]
	}
	for _, issue := range shown {
		out += fmt.Sprintf("  %s [%s] %s.%s: %s\n", levelTag(issue.Level, opts.Colour), issue.Status, issue.Table, issue.CheckName, issue.Message)
	}
	if truncated > 0 {
		out += fmt.Sprintf("  ... %d more issue(s) omitted\n", truncated)
	}
	return out
}

func formatSources(sources []string) string {
	if len(sources) == 0 {
		return "(none)"
	}
	joined := sources[0]
	for _, s := range sources[1:] {
		joined += ", " + s
	}
	return joined
}

func statusLine(success bool, colour bool) string {
	if success {
		return colourize("PASS", ansiGreen, colour)
	}
	return colourize("FAIL", ansiRed, colour)
}

func levelTag(level string, colour bool) string {
	switch level {
	case "error":
		return colourize("ERROR", ansiRed, colour)
	case "warning":
		return colourize("WARN", ansiYellow, colour)
	default:
		return colourize("INFO", ansiDim, colour)
	}
}

func colourize(text, code string, colour bool) string {
	if !colour {
		return text
	}
	return code + text + ansiReset
}
