package markdown

import (
	"strings"
	"testing"

	"github.com/canonica-labs/canonica-validate/internal/report"
)

func TestFormat_IncludesSummaryTableAndIssues(t *testing.T) {
	r := report.Report{
		Sources: []string{"orders"},
		Passed:  1,
		Failed:  1,
		Success: false,
		Issues: []report.IssueView{
			{CheckName: "c1", Table: "orders", Level: "error", Status: "FAILURE", Message: "a | b"},
		},
	}
	out := Format(r)
	if !strings.Contains(out, ":x: FAIL") {
		t.Fatalf("expected FAIL marker, got %q", out)
	}
	if !strings.Contains(out, "| 1 | 1 | 0 | 2 |") {
		t.Fatalf("expected summary row, got %q", out)
	}
	if !strings.Contains(out, "a \\| b") {
		t.Fatalf("expected escaped pipe in issue message, got %q", out)
	}
}

func TestFormat_SuccessOmitsIssuesSection(t *testing.T) {
	r := report.Report{Success: true, Passed: 3}
	out := Format(r)
	if !strings.Contains(out, ":white_check_mark: PASS") {
		t.Fatalf("expected PASS marker, got %q", out)
	}
	if strings.Contains(out, "## Issues") {
		t.Fatal("expected no issues section when there are no issues")
	}
}
