// Package bigquerysession implements engine.Session over Google BigQuery
// using the native cloud.google.com/go/bigquery SDK (BigQuery has no
// database/sql driver in the teacher's stack, unlike the other remote
// engines, so this session talks to the SDK's RowIterator directly instead
// of embedding sqlsession.Base).
package bigquerysession

import (
	"context"
	"sync"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/canonica-labs/canonica-validate/internal/engine"
	"github.com/canonica-labs/canonica-validate/internal/errors"
)

// Config configures a BigQuery session.
type Config struct {
	ProjectID       string
	CredentialsJSON string
	Location        string
	DefaultDataset  string
}

// Session wraps a BigQuery client.
type Session struct {
	mu     sync.RWMutex
	cfg    Config
	client *bigquery.Client
	closed bool
}

// New opens a BigQuery session.
func New(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.ProjectID == "" {
		return nil, errors.NewConfigurationError("bigquery: project_id is required")
	}
	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}
	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, errors.NewDataSourceError("bigquery: failed to create client", err)
	}
	return &Session{cfg: cfg, client: client}, nil
}

func (s *Session) Name() string { return "bigquery" }

func (s *Session) RegisterTable(ctx context.Context, name string, provider engine.TableProvider) error {
	return errors.NewNotSupported("bigquery: RegisterTable (tables must already exist in the project/dataset)")
}

func (s *Session) SQL(ctx context.Context, text string) (engine.Dataframe, error) {
	if text == "" {
		return engine.Dataframe{}, errors.NewConfigurationError("SQL text is empty")
	}
	return engine.Dataframe{SQL: text}, nil
}

func (s *Session) Collect(ctx context.Context, df engine.Dataframe) ([]engine.Batch, error) {
	s.mu.RLock()
	if s.closed || s.client == nil {
		s.mu.RUnlock()
		return nil, errors.NewDataSourceError("bigquery: session is closed", nil)
	}
	client := s.client
	s.mu.RUnlock()

	q := client.Query(df.SQL)
	if s.cfg.DefaultDataset != "" {
		q.DefaultDatasetID = s.cfg.DefaultDataset
	}
	if s.cfg.Location != "" {
		q.Location = s.cfg.Location
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, errors.NewDataSourceError("bigquery: query failed", err)
	}

	columns := make([]string, len(it.Schema))
	for i, field := range it.Schema {
		columns[i] = field.Name
	}

	var rows [][]any
	for {
		var row []bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.NewDataSourceError("bigquery: row iteration failed", err)
		}
		values := make([]any, len(row))
		for i, v := range row {
			values[i] = v
		}
		rows = append(rows, values)
	}

	return []engine.Batch{{Columns: columns, Rows: rows}}, nil
}

func (s *Session) SchemaOf(ctx context.Context, table string) (engine.Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed || s.client == nil {
		return nil, errors.NewDataSourceError("bigquery: session is closed", nil)
	}
	dataset := s.client.Dataset(s.cfg.DefaultDataset)
	md, err := dataset.Table(table).Metadata(ctx)
	if err != nil {
		return nil, errors.NewColumnNotFound(table, "*")
	}
	schema := engine.Schema{}
	for _, field := range md.Schema {
		schema[field.Name] = string(field.Type)
	}
	return schema, nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
