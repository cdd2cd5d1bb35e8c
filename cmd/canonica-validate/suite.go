package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/canonica-labs/canonica-validate/internal/constraints"
	"github.com/canonica-labs/canonica-validate/internal/validator"
)

// suiteFile is the on-disk shape of a validation suite: named sources and a
// list of checks to run against them. Only the constraint kinds most
// commonly reached for from a CLI are representable here (completeness,
// uniqueness, custom_sql); the full constraint library remains available to
// Go callers that construct a Validator directly.
type suiteFile struct {
	Sources []suiteSource `yaml:"sources"`
	Checks  []suiteCheck  `yaml:"checks"`
}

type suiteSource struct {
	Name        string `yaml:"name"`
	CSVPath     string `yaml:"csv_path"`
	Description string `yaml:"description"`
}

type suiteCheck struct {
	Name       string  `yaml:"name"`
	Table      string  `yaml:"table"`
	Level      string  `yaml:"level"`
	Kind       string  `yaml:"kind"`
	Columns    []string `yaml:"columns"`
	Threshold  float64 `yaml:"threshold"`
	Expression string  `yaml:"expression"`
	Hint       string  `yaml:"hint"`
}

func loadSuiteFile(path string) (*suiteFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}
	var suite suiteFile
	if err := yaml.Unmarshal(b, &suite); err != nil {
		return nil, fmt.Errorf("failed to parse suite file: %w", err)
	}
	return &suite, nil
}

func buildConstraint(check suiteCheck) (constraints.Constraint, error) {
	switch check.Kind {
	case "completeness":
		if len(check.Columns) == 0 {
			return nil, fmt.Errorf("check %q: completeness requires at least one column", check.Name)
		}
		return constraints.NewCompleteness(constraints.OneColumn(check.Columns[0]), check.Threshold, constraints.All())
	case "uniqueness":
		if len(check.Columns) == 0 {
			return nil, fmt.Errorf("check %q: uniqueness requires at least one column", check.Name)
		}
		return constraints.NewUniqueness(check.Columns, constraints.FullUniqueness(), check.Threshold)
	case "custom_sql":
		return constraints.NewCustomSQL(check.Expression, check.Hint)
	default:
		return nil, fmt.Errorf("check %q: unknown constraint kind %q", check.Name, check.Kind)
	}
}

func levelFromString(s string) validator.Level {
	switch s {
	case "info":
		return validator.LevelInfo
	case "error":
		return validator.LevelError
	default:
		return validator.LevelWarning
	}
}
