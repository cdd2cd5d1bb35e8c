// Package sqlsafe validates and escapes every user-supplied string that
// reaches the query engine. No other package in this module is permitted to
// build SQL by concatenating a raw user value; everything routes through
// ValidateIdentifier, EscapeIdentifier, ValidateRegexPattern,
// ValidateSQLExpression, or EscapeStringLiteral first.
package sqlsafe

import (
	"math"
	"regexp"
	"strings"

	"github.com/canonica-labs/canonica-validate/internal/errors"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// dangerousIdentifierTokens mirrors the fixed blocklist used for raw identifiers.
var dangerousIdentifierTokens = []string{
	";", "--", "/*", "*/", "'",
	"xp_", "sp_",
	"union", "select", "insert", "update", "delete", "drop", "create", "alter",
	"exec", "execute", "declare", "cursor", "fetch", "open", "close",
}

// redosMarkers are textual substrings that flag catastrophic-backtracking shapes.
var redosMarkers = []string{"(.*)*", "(.*)+", "(a+)+", "(a*)*"}

// dangerousExpressionKeywords gates custom SQL expressions.
var dangerousExpressionKeywords = []string{
	"drop", "create", "alter", "truncate", "insert", "update", "delete",
	"exec", "execute", "xp_", "sp_", "declare", "cursor", "fetch", "open",
	"close", "begin", "commit", "rollback", "transaction",
	"information_schema", "sys.", "pg_", "bulk", "openrowset", "opendatasource",
	"load_file", "into outfile", "into dumpfile", "--", "/*", "*/",
}

var suspiciousExpressionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`;\s*\w+`),
	regexp.MustCompile(`(?i)union\s+select`),
	regexp.MustCompile(`(?i)'\s*or\s+'`),
	regexp.MustCompile(`(?i)'\s*and\s+'`),
	regexp.MustCompile(`=\s*\(.*select.*\)`),
	regexp.MustCompile(`(?i)\(\s*select\s+.*\)`),
	regexp.MustCompile(`(?i)in\s*\(\s*select\s+.*\)`),
}

const (
	maxIdentifierLength = 128
	maxRegexLength      = 1000
	maxExpressionLength = 5000
)

// ValidateIdentifier fails if s is empty/whitespace, longer than 128 chars,
// contains a NUL byte, does not match the dotted-identifier grammar, or
// contains any case-insensitive token from the dangerous blocklist.
func ValidateIdentifier(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.NewSecurityError("identifier is empty or whitespace")
	}
	if len(s) > maxIdentifierLength {
		return errors.NewSecurityError("identifier exceeds maximum length of 128 characters")
	}
	if strings.ContainsRune(s, 0) {
		return errors.NewSecurityError("identifier contains a NUL byte")
	}
	if !identifierPattern.MatchString(s) {
		return errors.NewSecurityError("identifier does not match the allowed character set")
	}
	lower := strings.ToLower(s)
	for _, token := range dangerousIdentifierTokens {
		if strings.Contains(lower, token) {
			return errors.NewSecurityError("identifier contains a disallowed token: " + token)
		}
	}
	return nil
}

// EscapeIdentifier validates s, then wraps it in double quotes, doubling any
// internal double quote. Since ValidateIdentifier's charset grammar never
// admits a `"`, the doubling step is defensive rather than load-bearing for
// any identifier that reaches it.
func EscapeIdentifier(s string) (string, error) {
	if err := ValidateIdentifier(s); err != nil {
		return "", err
	}
	escaped := strings.ReplaceAll(s, `"`, `""`)
	return `"` + escaped + `"`, nil
}

// ValidateRegexPattern checks length, NUL bytes, compilability, and
// catastrophic-backtracking markers, then returns the pattern with single
// quotes doubled for SQL string embedding.
func ValidateRegexPattern(pattern string) (string, error) {
	if len(pattern) > maxRegexLength {
		return "", errors.NewSecurityError("regex pattern exceeds maximum length of 1000 characters")
	}
	if strings.ContainsRune(pattern, 0) {
		return "", errors.NewSecurityError("regex pattern contains a NUL byte")
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return "", errors.NewSecurityError("regex pattern does not compile: " + err.Error())
	}
	for _, marker := range redosMarkers {
		if strings.Contains(pattern, marker) {
			return "", errors.NewSecurityError("regex pattern contains a catastrophic-backtracking marker: " + marker)
		}
	}
	return strings.ReplaceAll(pattern, "'", "''"), nil
}

// ValidateSQLExpression gates a raw SQL predicate expression (custom SQL
// constraints only). No escaping is performed; it either passes or is rejected.
func ValidateSQLExpression(expr string) error {
	if len(expr) > maxExpressionLength {
		return errors.NewSecurityError("SQL expression exceeds maximum length of 5000 characters")
	}
	if strings.ContainsRune(expr, 0) {
		return errors.NewSecurityError("SQL expression contains a NUL byte")
	}
	lower := strings.ToLower(expr)
	for _, kw := range dangerousExpressionKeywords {
		if strings.Contains(lower, kw) {
			return errors.NewSecurityError("SQL expression contains a disallowed keyword: " + kw)
		}
	}
	for _, re := range suspiciousExpressionPatterns {
		if re.MatchString(expr) {
			return errors.NewSecurityError("SQL expression matches a disallowed pattern: " + re.String())
		}
	}
	return nil
}

// ValidateThreshold requires value to be finite (not NaN or +/-Inf).
func ValidateThreshold(value float64, name string) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return errors.NewConfigurationError(name + " must be a finite number")
	}
	return nil
}

// ValidatePercentage requires value to lie in [0.0, 1.0].
func ValidatePercentage(value float64, name string) error {
	if err := ValidateThreshold(value, name); err != nil {
		return err
	}
	if value < 0.0 || value > 1.0 {
		return errors.NewConfigurationError(name + " must be between 0.0 and 1.0")
	}
	return nil
}

// ValidateStringLength requires value not to exceed maxLength characters.
func ValidateStringLength(value string, maxLength int, name string) error {
	if len(value) > maxLength {
		return errors.NewConfigurationError(name + " exceeds maximum length")
	}
	return nil
}

// ValidateNoNullBytes rejects any NUL byte in value.
func ValidateNoNullBytes(value string, name string) error {
	if strings.ContainsRune(value, 0) {
		return errors.NewConfigurationError(name + " contains a NUL byte")
	}
	return nil
}

// EscapeStringLiteral rejects a NUL byte in value, then doubles single
// quotes and wraps the result for embedding as a SQL string literal (file
// paths and other non-identifier, non-expression values passed to the
// engine).
func EscapeStringLiteral(value, name string) (string, error) {
	if err := ValidateNoNullBytes(value, name); err != nil {
		return "", err
	}
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`, nil
}
