// Package validator orchestrates constraint evaluation across one or more
// registered sources: it owns the source registry, the graded check list,
// and the bounded-concurrency executor that runs checks against an engine
// session and folds their outcomes into a ValidationReport.
package validator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/canonica-labs/canonica-validate/internal/constraints"
	"github.com/canonica-labs/canonica-validate/internal/engine"
	"github.com/canonica-labs/canonica-validate/internal/errors"
	"github.com/canonica-labs/canonica-validate/internal/validationctx"
	"golang.org/x/sync/errgroup"
)

// Level grades the severity a check's failure is reported at.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// GradedCheck pairs a named constraint with the table it targets and the
// severity its failure should be reported at.
type GradedCheck struct {
	Name       string
	Table      string
	Constraint constraints.Constraint
	Level      Level
}

// Config bounds the executor's resource usage. Values outside their
// documented ranges fail construction via NewConfig.
type Config struct {
	MaxConcurrentValidations int
	MemoryBudgetMB           int
	ValidationTimeoutSeconds int
	EnableQueryOptimization  bool
}

// DefaultConfig returns the validator's baseline operating envelope.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentValidations: 4,
		MemoryBudgetMB:           512,
		ValidationTimeoutSeconds: 300,
		EnableQueryOptimization:  true,
	}
}

// NewConfig validates the bounds spec.md §4.5 places on each field.
func NewConfig(maxConcurrent, memoryBudgetMB, timeoutSeconds int, enableQueryOptimization bool) (Config, error) {
	if maxConcurrent < 1 || maxConcurrent > 64 {
		return Config{}, errors.NewConfigurationError("max_concurrent_validations must be between 1 and 64")
	}
	if memoryBudgetMB < 64 || memoryBudgetMB > 16384 {
		return Config{}, errors.NewConfigurationError("memory_budget_mb must be between 64 and 16384")
	}
	if timeoutSeconds < 30 || timeoutSeconds > 3600 {
		return Config{}, errors.NewConfigurationError("validation_timeout_seconds must be between 30 and 3600")
	}
	return Config{
		MaxConcurrentValidations: maxConcurrent,
		MemoryBudgetMB:           memoryBudgetMB,
		ValidationTimeoutSeconds: timeoutSeconds,
		EnableQueryOptimization:  enableQueryOptimization,
	}, nil
}

// Validator owns a source registry and a graded check list, and runs them
// against a single engine session.
type Validator struct {
	mu      sync.Mutex
	sources map[string]string
	checks  []GradedCheck
	config  Config
}

// New builds an empty validator with the given config.
func New(config Config) *Validator {
	return &Validator{sources: make(map[string]string), config: config}
}

// RegisterSource adds a named source description to the registry. Adding a
// duplicate name fails.
func (v *Validator) RegisterSource(name, description string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, exists := v.sources[name]; exists {
		return errors.NewConfigurationError(fmt.Sprintf("source '%s' is already registered", name))
	}
	v.sources[name] = description
	return nil
}

// AddCheck appends a graded check. table must already be registered as a
// source; this is the build-time check that a constraint's table reference
// is valid.
func (v *Validator) AddCheck(check GradedCheck) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if check.Table != "" {
		if _, exists := v.sources[check.Table]; !exists {
			return errors.NewConfigurationError(fmt.Sprintf("check '%s' references unregistered source '%s'", check.Name, check.Table))
		}
	}
	v.checks = append(v.checks, check)
	return nil
}

// Issue is a non-Success verdict surfaced in a ValidationReport.
type Issue struct {
	CheckName string
	Table     string
	Level     Level
	Status    constraints.Status
	Message   string
	Metric    *float64
}

// ValidationReport folds the per-check outcomes of one validate() run.
type ValidationReport struct {
	Passed  int
	Failed  int
	Skipped int
	Issues  []Issue
}

// Outcome is the terminal result of a validate() run: Success when no
// Error-level issue exists, Failure otherwise. The report is populated in
// both cases.
type Outcome struct {
	Success bool
	Report  ValidationReport
}

type taskResult struct {
	order  int
	check  GradedCheck
	result constraints.Result
	err    error
}

// Validate runs every registered check with a concurrency semaphore of
// MaxConcurrentValidations, folds the outcomes into a ValidationReport, and
// returns Failure iff any Error-level issue exists.
func (v *Validator) Validate(ctx context.Context, session engine.Session) (Outcome, error) {
	v.mu.Lock()
	checks := append([]GradedCheck(nil), v.checks...)
	v.mu.Unlock()

	results := make([]taskResult, len(checks))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(v.config.MaxConcurrentValidations)

	timeout := time.Duration(v.config.ValidationTimeoutSeconds) * time.Second

	for i, check := range checks {
		i, check := i, check
		group.Go(func() error {
			taskCtx := validationctx.WithTable(gctx, check.Table)
			taskCtx, cancel := context.WithTimeout(taskCtx, timeout)
			defer cancel()

			result, err := func() (res constraints.Result, err error) {
				defer func() {
					if r := recover(); r != nil {
						err = errors.NewConstraintEvaluationError(fmt.Sprintf("constraint panicked: %v", r), nil)
					}
				}()
				return check.Constraint.Evaluate(taskCtx, session), nil
			}()

			// A timed-out task is fatal only to itself: it surfaces as a
			// Failure at the check's configured level rather than an error
			// that would cancel its siblings via gctx.
			if taskCtx.Err() == context.DeadlineExceeded {
				result = constraints.Failure(fmt.Sprintf("check timed out after %ds", v.config.ValidationTimeoutSeconds))
				err = nil
			}

			results[i] = taskResult{order: i, check: check, result: result, err: err}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return Outcome{}, err
	}

	sort.Slice(results, func(a, b int) bool { return results[a].order < results[b].order })

	var report ValidationReport
	hasError := false
	for _, r := range results {
		if r.err != nil {
			report.Failed++
			report.Issues = append(report.Issues, Issue{
				CheckName: r.check.Name, Table: r.check.Table, Level: r.check.Level,
				Status: constraints.StatusFailure, Message: r.err.Error(),
			})
			if r.check.Level == LevelError {
				hasError = true
			}
			continue
		}
		switch r.result.Status {
		case constraints.StatusSuccess:
			report.Passed++
		case constraints.StatusSkipped:
			report.Skipped++
			report.Issues = append(report.Issues, Issue{
				CheckName: r.check.Name, Table: r.check.Table, Level: r.check.Level,
				Status: r.result.Status, Message: r.result.Message, Metric: r.result.Metric,
			})
		default:
			report.Failed++
			report.Issues = append(report.Issues, Issue{
				CheckName: r.check.Name, Table: r.check.Table, Level: r.check.Level,
				Status: r.result.Status, Message: r.result.Message, Metric: r.result.Metric,
			})
			if r.check.Level == LevelError {
				hasError = true
			}
		}
	}

	return Outcome{Success: !hasError, Report: report}, nil
}
