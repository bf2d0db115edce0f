// Package mysql implements the feature store contract on top of a MySQL table.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"github.com/dbsmedya/featsync/internal/config"
	"github.com/dbsmedya/featsync/internal/feature"
	"github.com/dbsmedya/featsync/internal/logger"
	"github.com/dbsmedya/featsync/internal/sqlutil"
	"github.com/dbsmedya/featsync/internal/store"
)

// Client is a MySQL table-backed feature store. One row is one record and
// the configured id column is the store-assigned internal identifier.
type Client struct {
	db     *sql.DB
	cfg    *config.MySQLConfig
	proc   config.ProcessingConfig
	logger *logger.Logger
	schema *store.Schema
	name   string
}

// New creates a client for the configured table. The client must be
// connected with Connect() before use.
func New(name string, cfg *config.MySQLConfig, proc config.ProcessingConfig, log *logger.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mysql config is nil")
	}
	if cfg.Table == "" {
		return nil, fmt.Errorf("table is required")
	}
	if cfg.IDColumn == "" {
		return nil, fmt.Errorf("id_column is required")
	}
	if log == nil {
		log = logger.NewDefault()
	}

	return &Client{
		cfg:    cfg,
		proc:   proc,
		logger: log.WithStore(name),
		name:   name,
	}, nil
}

// Connect establishes the database connection with bounded retry.
func (c *Client) Connect(ctx context.Context) error {
	var db *sql.DB
	var err error

	maxRetries := 3
	backoff := time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = c.open()
		if err == nil {
			if pingErr := db.PingContext(ctx); pingErr == nil {
				c.db = db
				return nil
			} else {
				db.Close()
				err = pingErr
			}
		}

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2 // Exponential backoff
			}
		}
	}

	return fmt.Errorf("failed to connect to %s store after %d retries: %w", c.name, maxRetries, err)
}

// open creates the database handle and configures the connection pool.
func (c *Client) open() (*sql.DB, error) {
	db, err := sql.Open("mysql", BuildDSN(c.cfg))
	if err != nil {
		return nil, err
	}

	if c.cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(c.cfg.MaxConnections)
	}
	if c.cfg.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(c.cfg.MaxIdleConnections)
	}
	db.SetConnMaxLifetime(10 * time.Minute)

	return db, nil
}

// BuildDSN constructs a MySQL DSN from configuration.
func BuildDSN(cfg *config.MySQLConfig) string {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)

	params := "?parseTime=true"
	switch cfg.TLS {
	case "disable":
		params += "&tls=false"
	case "required":
		params += "&tls=true"
	case "preferred", "":
		params += "&tls=preferred"
	}

	return dsn + params
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// DB exposes the underlying handle for advisory locking.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Ping verifies the connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("%s store not connected", c.name)
	}
	return c.db.PingContext(ctx)
}

// Schema returns the table's column layout. The result is cached for the
// lifetime of the client; table DDL changes mid-run are not supported.
func (c *Client) Schema(ctx context.Context) (*store.Schema, error) {
	if c.schema != nil {
		return c.schema, nil
	}

	table, err := sqlutil.QuoteIdentifierSafe(c.cfg.Table)
	if err != nil {
		return nil, fmt.Errorf("invalid table name: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 0", table))
	if err != nil {
		return nil, fmt.Errorf("failed to introspect %s store schema: %w", c.name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get column names: %w", err)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading schema: %w", err)
	}

	schema := &store.Schema{
		IDField: c.cfg.IDColumn,
		Fields:  columns,
	}
	if !schema.HasField(c.cfg.IDColumn) {
		return nil, fmt.Errorf("id column %q not found in table %s", c.cfg.IDColumn, c.cfg.Table)
	}

	c.schema = schema
	return schema, nil
}

// QueryAll fetches every row with the given fields using keyset pagination
// on the id column. Requested fields are validated against the schema first
// so an unknown field surfaces as a *store.FieldError before any row query.
func (c *Client) QueryAll(ctx context.Context, fields []string) ([]feature.Record, error) {
	schema, err := c.Schema(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if !schema.HasField(f) {
			return nil, &store.FieldError{Field: f, Store: c.name}
		}
	}

	// The id column drives pagination; select it even when the caller did
	// not ask for it, then strip it from the returned records.
	idRequested := false
	for _, f := range fields {
		if f == c.cfg.IDColumn {
			idRequested = true
			break
		}
	}
	selectFields := fields
	if !idRequested {
		selectFields = append(append([]string{}, fields...), c.cfg.IDColumn)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s > ? ORDER BY %s ASC LIMIT ?",
		strings.Join(sqlutil.QuoteIdentifiers(selectFields), ", "),
		sqlutil.QuoteIdentifier(c.cfg.Table),
		sqlutil.QuoteIdentifier(c.cfg.IDColumn),
		sqlutil.QuoteIdentifier(c.cfg.IDColumn),
	)

	pageSize := c.proc.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}

	var records []feature.Record
	var cursor any = 0

	for {
		page, lastID, err := c.fetchPage(ctx, query, selectFields, cursor, pageSize)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		if !idRequested {
			page = feature.RemoveAttributes(page, []string{c.cfg.IDColumn})
		}
		records = append(records, page...)

		if len(page) < pageSize {
			break
		}
		cursor = lastID
	}

	c.logger.Debugf("Fetched %d records from table %q", len(records), c.cfg.Table)
	return records, nil
}

// fetchPage runs one keyset page query and returns the records plus the last
// id value seen, which becomes the next cursor.
func (c *Client) fetchPage(ctx context.Context, query string, fields []string, cursor any, pageSize int) ([]feature.Record, any, error) {
	rows, err := c.db.QueryContext(ctx, query, cursor, pageSize)
	if err != nil {
		return nil, nil, fmt.Errorf("query on %s store failed: %w", c.name, err)
	}
	defer rows.Close()

	var page []feature.Record
	var lastID any

	for rows.Next() {
		values := make([]any, len(fields))
		valuePtrs := make([]any, len(fields))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row from %s store: %w", c.name, err)
		}

		rec := feature.NewRecord()
		for i, f := range fields {
			v := normalizeValue(values[i])
			rec.Set(f, v)
			if f == c.cfg.IDColumn {
				lastID = v
			}
		}
		page = append(page, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating rows from %s store: %w", c.name, err)
	}

	return page, lastID, nil
}

// InsertBatch inserts records with multi-row INSERT statements, chunked by
// the configured insert batch size. The id column is auto-assigned by the
// table; callers strip it before insert.
func (c *Client) InsertBatch(ctx context.Context, records []feature.Record) error {
	if len(records) == 0 {
		return nil
	}

	schema, err := c.Schema(ctx)
	if err != nil {
		return err
	}

	columns := records[0].Fields()
	for _, col := range columns {
		if !schema.HasField(col) {
			return &store.FieldError{Field: col, Store: c.name}
		}
	}

	batchSize := c.proc.InsertBatchSize
	if batchSize <= 0 {
		batchSize = 500
	}

	for start := 0; start < len(records); start += batchSize {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("insert interrupted: %w", err)
		}

		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := c.insertChunk(ctx, columns, records[start:end]); err != nil {
			return err
		}
	}

	c.logger.Debugf("Inserted %d records into table %q", len(records), c.cfg.Table)
	return nil
}

// insertChunk executes one multi-row INSERT.
func (c *Client) insertChunk(ctx context.Context, columns []string, records []feature.Record) error {
	rowPlaceholders := "(" + strings.TrimRight(strings.Repeat("?, ", len(columns)), ", ") + ")"
	placeholders := make([]string, len(records))
	args := make([]any, 0, len(records)*len(columns))

	for i, rec := range records {
		placeholders[i] = rowPlaceholders
		for _, col := range columns {
			v, _ := rec.Get(col)
			args = append(args, v)
		}
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		sqlutil.QuoteIdentifier(c.cfg.Table),
		strings.Join(sqlutil.QuoteIdentifiers(columns), ", "),
		strings.Join(placeholders, ", "),
	)

	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s store failed: %w", c.name, err)
	}
	return nil
}

// DeleteBatch deletes rows by id using chunked IN clauses. Already absent
// ids are not an error.
func (c *Client) DeleteBatch(ctx context.Context, ids []any) error {
	if len(ids) == 0 {
		return nil
	}

	batchSize := c.proc.DeleteBatchSize
	if batchSize <= 0 {
		batchSize = 500
	}

	totalBatches := (len(ids) + batchSize - 1) / batchSize

	for batchNum := 0; batchNum < totalBatches; batchNum++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("delete interrupted: %w", err)
		}

		start := batchNum * batchSize
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batchIDs := ids[start:end]

		placeholders := strings.TrimRight(strings.Repeat("?,", len(batchIDs)), ",")
		query := fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)",
			sqlutil.QuoteIdentifier(c.cfg.Table),
			sqlutil.QuoteIdentifier(c.cfg.IDColumn),
			placeholders,
		)

		result, err := c.db.ExecContext(ctx, query, batchIDs...)
		if err != nil {
			return fmt.Errorf("delete batch %d/%d on %s store failed: %w", batchNum+1, totalBatches, c.name, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected < int64(len(batchIDs)) {
			c.logger.Debugf("Partial delete from %s: %d/%d rows deleted (may have been deleted already)",
				c.cfg.Table, rowsAffected, len(batchIDs))
		}
	}

	c.logger.Debugf("Deleted %d ids from table %q", len(ids), c.cfg.Table)
	return nil
}
