package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/canonica-labs/canonica-validate/internal/config"
	"github.com/canonica-labs/canonica-validate/internal/metrics"
	"github.com/canonica-labs/canonica-validate/internal/report"
	"github.com/canonica-labs/canonica-validate/internal/report/human"
	"github.com/canonica-labs/canonica-validate/internal/report/jsonfmt"
	"github.com/canonica-labs/canonica-validate/internal/report/markdown"
	"github.com/canonica-labs/canonica-validate/internal/sqlsafe"
	"github.com/canonica-labs/canonica-validate/internal/validator"
)

// errExitFailure signals that the suite ran to completion but reported a
// failing outcome. main.go exits non-zero on any error, but does not print
// this sentinel's message since the report was already printed to stdout.
var errExitFailure = errors.New("validation suite reported failure")

func newRunCommand(configPath *string) *cobra.Command {
	var (
		suitePath  string
		format     string
		colour     bool
		maxIssues  int
		webhookURL string
		webhookKey string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a validation suite and print the resulting report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(cmd.Context(), runOptions{
				configPath: *configPath,
				suitePath:  suitePath,
				format:     format,
				colour:     colour,
				maxIssues:  maxIssues,
				webhookURL: webhookURL,
				webhookKey: webhookKey,
			})
		},
	}

	cmd.Flags().StringVar(&suitePath, "suite", "", "path to a suite YAML file (required)")
	cmd.Flags().StringVar(&format, "format", "human", "report format: human, json, or markdown")
	cmd.Flags().BoolVar(&colour, "colour", true, "enable ANSI colour in human output")
	cmd.Flags().IntVar(&maxIssues, "max-issues", 0, "truncate human output to at most N issues (0 = unlimited)")
	cmd.Flags().StringVar(&webhookURL, "webhook-url", "", "optional webhook URL to alert on failure")
	cmd.Flags().StringVar(&webhookKey, "webhook-secret", "", "optional HMAC secret for webhook signing")
	_ = cmd.MarkFlagRequired("suite")

	return cmd
}

type runOptions struct {
	configPath string
	suitePath  string
	format     string
	colour     bool
	maxIssues  int
	webhookURL string
	webhookKey string
}

func runSuite(ctx context.Context, opts runOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	suite, err := loadSuiteFile(opts.suitePath)
	if err != nil {
		return err
	}

	session, err := buildEngineSession(ctx, cfg.Engine)
	if err != nil {
		return err
	}
	defer session.Close()

	v := validator.New(validator.Config{
		MaxConcurrentValidations: cfg.Validator.MaxConcurrentValidations,
		MemoryBudgetMB:           cfg.Validator.MemoryBudgetMB,
		ValidationTimeoutSeconds: cfg.Validator.ValidationTimeoutSeconds,
		EnableQueryOptimization:  cfg.Validator.EnableQueryOptimization,
	})

	sourceNames := make([]string, 0, len(suite.Sources))
	for _, source := range suite.Sources {
		if err := sqlsafe.ValidateIdentifier(source.Name); err != nil {
			return err
		}
		if err := v.RegisterSource(source.Name, source.Description); err != nil {
			return err
		}
		sourceNames = append(sourceNames, source.Name)
		if source.CSVPath == "" {
			continue
		}
		escapedName, err := sqlsafe.EscapeIdentifier(source.Name)
		if err != nil {
			return err
		}
		escapedPath, err := sqlsafe.EscapeStringLiteral(source.CSVPath, "csv_path")
		if err != nil {
			return err
		}
		createView := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM read_csv_auto(%s)", escapedName, escapedPath)
		df, err := session.SQL(ctx, createView)
		if err != nil {
			return fmt.Errorf("failed to register source %q: %w", source.Name, err)
		}
		if _, err := session.Collect(ctx, df); err != nil {
			return fmt.Errorf("failed to register source %q: %w", source.Name, err)
		}
	}

	for _, check := range suite.Checks {
		constraint, err := buildConstraint(check)
		if err != nil {
			return err
		}
		if err := v.AddCheck(validator.GradedCheck{
			Name:       check.Name,
			Table:      check.Table,
			Constraint: constraint,
			Level:      levelFromString(check.Level),
		}); err != nil {
			return err
		}
	}

	outcome, err := v.Validate(ctx, session)
	if err != nil {
		return err
	}

	rep := report.FromOutcome(outcome, sourceNames)
	rendered, err := renderReport(rep, opts)
	if err != nil {
		return err
	}
	fmt.Println(rendered)

	if opts.webhookURL != "" {
		if err := sendAlert(ctx, rep, opts); err != nil {
			fmt.Fprintf(os.Stderr, "canonica-validate: failed to send alert: %v\n", err)
		}
	}

	if !outcome.Success {
		return errExitFailure
	}
	return nil
}

func renderReport(rep report.Report, opts runOptions) (string, error) {
	switch strings.ToLower(opts.format) {
	case "json":
		return jsonfmt.Format(rep)
	case "markdown", "md":
		return markdown.Format(rep), nil
	default:
		return human.Format(rep, human.Options{Colour: opts.colour, MaxIssues: opts.maxIssues}), nil
	}
}

func sendAlert(ctx context.Context, rep report.Report, opts runOptions) error {
	client, err := metrics.NewWebhookClient(metrics.WebhookConfig{
		URL:            opts.webhookURL,
		Secret:         opts.webhookKey,
		IncludeDetails: true,
	})
	if err != nil {
		return err
	}

	status := "success"
	if !rep.Success {
		status = "error"
	}
	summary := metrics.AlertSummary{
		TotalChecks: rep.Total(),
		Passed:      rep.Passed,
		Failed:      rep.Failed,
		Status:      status,
	}
	details := make([]metrics.AlertDetail, 0, len(rep.Issues))
	for _, issue := range rep.Issues {
		details = append(details, metrics.AlertDetail{
			Check:   issue.CheckName,
			Level:   issue.Level,
			Message: issue.Message,
			Metric:  issue.Metric,
		})
	}
	payload := metrics.NewAlertPayload(summary, details, strings.Join(rep.Sources, ","), "production", time.Now())
	return client.Send(ctx, payload)
}

