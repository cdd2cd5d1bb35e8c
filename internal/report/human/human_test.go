package human

import (
	"strings"
	"testing"

	"github.com/canonica-labs/canonica-validate/internal/report"
)

func sampleReport() report.Report {
	return report.Report{
		Sources: []string{"orders", "payments"},
		Passed:  1,
		Failed:  2,
		Skipped: 0,
		Success: false,
		Issues: []report.IssueView{
			{CheckName: "c1", Table: "orders", Level: "error", Status: "FAILURE", Message: "below threshold"},
			{CheckName: "c2", Table: "payments", Level: "warning", Status: "FAILURE", Message: "drifted"},
		},
	}
}

func TestFormat_NoColourOmitsEscapeCodes(t *testing.T) {
	out := Format(sampleReport(), Options{Colour: false})
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no ANSI escapes, got %q", out)
	}
	if !strings.Contains(out, "FAIL") {
		t.Fatalf("expected FAIL status line, got %q", out)
	}
}

func TestFormat_ColourAddsEscapeCodes(t *testing.T) {
	out := Format(sampleReport(), Options{Colour: true})
	if !strings.Contains(out, ansiRed) {
		t.Fatalf("expected red escape code, got %q", out)
	}
}

func TestFormat_TruncatesToMaxIssues(t *testing.T) {
	out := Format(sampleReport(), Options{MaxIssues: 1})
	if !strings.Contains(out, "1 more issue(s) omitted") {
		t.Fatalf("expected truncation note, got %q", out)
	}
}

func TestFormat_EmptySourcesShowsNone(t *testing.T) {
	r := report.Report{Success: true}
	out := Format(r, Options{})
	if !strings.Contains(out, "Sources: (none)") {
		t.Fatalf("expected (none) sources line, got %q", out)
	}
}
