// Package sources implements engine.TableProvider for the data sources a
// validator run can register: local files, object storage, and a Postgres
// foreign table. Each provider only describes where the data lives; the
// engine session decides how to turn that description into a registered
// table (see internal/engine/duckdbsession for the DuckDB table-function
// mapping).
package sources

import (
	"github.com/canonica-labs/canonica-validate/internal/errors"
)

// FileKind is the file format a FileSource holds.
type FileKind string

const (
	KindCSV     FileKind = "csv"
	KindParquet FileKind = "parquet"
	KindNDJSON  FileKind = "ndjson"
)

func (k FileKind) IsValid() bool {
	switch k {
	case KindCSV, KindParquet, KindNDJSON:
		return true
	default:
		return false
	}
}

// FileSource is a TableProvider backed by a local file path.
type FileSource struct {
	Kind     FileKind
	FilePath string
}

// Validate checks the source describes a usable file.
func (f FileSource) Validate() error {
	if !f.Kind.IsValid() {
		return errors.NewConfigurationError("file source: unsupported kind " + string(f.Kind))
	}
	if f.FilePath == "" {
		return errors.NewConfigurationError("file source: path is required")
	}
	return nil
}

func (f FileSource) ProviderKind() string { return string(f.Kind) }
func (f FileSource) Path() string         { return f.FilePath }
