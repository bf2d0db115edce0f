package mysql

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dbsmedya/featsync/internal/config"
	"github.com/dbsmedya/featsync/internal/feature"
	"github.com/dbsmedya/featsync/internal/logger"
	"github.com/dbsmedya/featsync/internal/store"
)

// ===== Test Helpers =====

func newTestClient(t *testing.T, proc config.ProcessingConfig) (*Client, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log, err := logger.New(&config.LoggingConfig{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	cfg := &config.MySQLConfig{
		Host:     "localhost",
		Port:     3306,
		Database: "featdb",
		Table:    "requests",
		IDColumn: "id",
	}
	client, err := New("source", cfg, proc, log)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	client.db = db

	return client, mock
}

func expectSchema(mock sqlmock.Sqlmock, columns ...string) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `requests` LIMIT 0")).
		WillReturnRows(sqlmock.NewRows(columns))
}

func recordOf(pairs ...any) feature.Record {
	rec := feature.NewRecord()
	for i := 0; i < len(pairs); i += 2 {
		rec.Set(pairs[i].(string), pairs[i+1])
	}
	return rec
}

// ===== Constructor Tests =====

func TestNewValidation(t *testing.T) {
	log := logger.NewDefault()

	if _, err := New("source", nil, config.ProcessingConfig{}, log); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := New("source", &config.MySQLConfig{IDColumn: "id"}, config.ProcessingConfig{}, log); err == nil {
		t.Error("expected error for missing table")
	}
	if _, err := New("source", &config.MySQLConfig{Table: "requests"}, config.ProcessingConfig{}, log); err == nil {
		t.Error("expected error for missing id_column")
	}
}

// ===== DSN Tests =====

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name string
		tls  string
		want string
	}{
		{"default preferred", "", "user:pass@tcp(db.example.com:3306)/featdb?parseTime=true&tls=preferred"},
		{"disable", "disable", "user:pass@tcp(db.example.com:3306)/featdb?parseTime=true&tls=false"},
		{"required", "required", "user:pass@tcp(db.example.com:3306)/featdb?parseTime=true&tls=true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.MySQLConfig{
				Host:     "db.example.com",
				Port:     3306,
				User:     "user",
				Password: "pass",
				Database: "featdb",
				TLS:      tt.tls,
			}
			if got := BuildDSN(cfg); got != tt.want {
				t.Errorf("BuildDSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ===== Schema Tests =====

func TestSchemaIntrospection(t *testing.T) {
	client, mock := newTestClient(t, config.ProcessingConfig{})
	expectSchema(mock, "id", "uid", "name")

	schema, err := client.Schema(context.Background())
	if err != nil {
		t.Fatalf("Schema failed: %v", err)
	}

	if schema.IDField != "id" {
		t.Errorf("IDField = %q, want id", schema.IDField)
	}
	if len(schema.Fields) != 3 {
		t.Errorf("Fields = %v, want 3 columns", schema.Fields)
	}

	// Second call must hit the cache, not the database
	if _, err := client.Schema(context.Background()); err != nil {
		t.Fatalf("cached Schema failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSchemaMissingIDColumn(t *testing.T) {
	client, mock := newTestClient(t, config.ProcessingConfig{})
	expectSchema(mock, "uid", "name")

	if _, err := client.Schema(context.Background()); err == nil {
		t.Error("expected error when id column is absent from the table")
	}
}

// ===== QueryAll Tests =====

func TestQueryAllPaginatesAndStripsID(t *testing.T) {
	client, mock := newTestClient(t, config.ProcessingConfig{PageSize: 2})
	expectSchema(mock, "id", "uid")

	pageQuery := regexp.QuoteMeta(
		"SELECT `uid`, `id` FROM `requests` WHERE `id` > ? ORDER BY `id` ASC LIMIT ?")

	mock.ExpectQuery(pageQuery).
		WithArgs(0, 2).
		WillReturnRows(sqlmock.NewRows([]string{"uid", "id"}).
			AddRow(int64(10), int64(1)).
			AddRow(int64(20), int64(2)))
	mock.ExpectQuery(pageQuery).
		WithArgs(int64(2), 2).
		WillReturnRows(sqlmock.NewRows([]string{"uid", "id"}).
			AddRow(int64(30), int64(3)))

	records, err := client.QueryAll(context.Background(), []string{"uid"})
	if err != nil {
		t.Fatalf("QueryAll failed: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	for i, rec := range records {
		if rec.Has("id") {
			t.Errorf("record %d still carries the id column", i)
		}
		if !rec.Has("uid") {
			t.Errorf("record %d is missing the requested uid field", i)
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestQueryAllKeepsRequestedID(t *testing.T) {
	client, mock := newTestClient(t, config.ProcessingConfig{PageSize: 10})
	expectSchema(mock, "id", "uid")

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT `uid`, `id` FROM `requests` WHERE `id` > ? ORDER BY `id` ASC LIMIT ?")).
		WithArgs(0, 10).
		WillReturnRows(sqlmock.NewRows([]string{"uid", "id"}).AddRow(int64(10), int64(1)))

	records, err := client.QueryAll(context.Background(), []string{"uid", "id"})
	if err != nil {
		t.Fatalf("QueryAll failed: %v", err)
	}
	if len(records) != 1 || !records[0].Has("id") {
		t.Errorf("explicitly requested id column was stripped: %v", records)
	}
}

func TestQueryAllUnknownField(t *testing.T) {
	client, mock := newTestClient(t, config.ProcessingConfig{})
	expectSchema(mock, "id", "uid")

	_, err := client.QueryAll(context.Background(), []string{"no_such_field"})

	var fieldErr *store.FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected *store.FieldError, got %v", err)
	}
	if fieldErr.Field != "no_such_field" || fieldErr.Store != "source" {
		t.Errorf("FieldError = %+v", fieldErr)
	}

	// No row query was issued
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestQueryAllNormalizesBytes(t *testing.T) {
	client, mock := newTestClient(t, config.ProcessingConfig{PageSize: 10})
	expectSchema(mock, "id", "name")

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT `name`, `id` FROM `requests` WHERE `id` > ? ORDER BY `id` ASC LIMIT ?")).
		WithArgs(0, 10).
		WillReturnRows(sqlmock.NewRows([]string{"name", "id"}).
			AddRow([]byte("alpha"), int64(1)))

	records, err := client.QueryAll(context.Background(), []string{"name"})
	if err != nil {
		t.Fatalf("QueryAll failed: %v", err)
	}

	v, _ := records[0].Get("name")
	if s, ok := v.(string); !ok || s != "alpha" {
		t.Errorf("name = %#v, want string \"alpha\"", v)
	}
}

// ===== InsertBatch Tests =====

func TestInsertBatchChunks(t *testing.T) {
	client, mock := newTestClient(t, config.ProcessingConfig{InsertBatchSize: 2})
	expectSchema(mock, "id", "uid", "name")

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO `requests` (`uid`, `name`) VALUES (?, ?), (?, ?)")).
		WithArgs(int64(1), "alpha", int64(2), "bravo").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO `requests` (`uid`, `name`) VALUES (?, ?)")).
		WithArgs(int64(3), "charlie").
		WillReturnResult(sqlmock.NewResult(0, 1))

	records := []feature.Record{
		recordOf("uid", int64(1), "name", "alpha"),
		recordOf("uid", int64(2), "name", "bravo"),
		recordOf("uid", int64(3), "name", "charlie"),
	}
	if err := client.InsertBatch(context.Background(), records); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestInsertBatchUnknownColumn(t *testing.T) {
	client, mock := newTestClient(t, config.ProcessingConfig{})
	expectSchema(mock, "id", "uid")

	err := client.InsertBatch(context.Background(), []feature.Record{
		recordOf("bogus", 1),
	})

	var fieldErr *store.FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected *store.FieldError, got %v", err)
	}
}

func TestInsertBatchEmpty(t *testing.T) {
	client, _ := newTestClient(t, config.ProcessingConfig{})

	if err := client.InsertBatch(context.Background(), nil); err != nil {
		t.Errorf("empty insert should be a no-op, got %v", err)
	}
}

// ===== DeleteBatch Tests =====

func TestDeleteBatchChunks(t *testing.T) {
	client, mock := newTestClient(t, config.ProcessingConfig{DeleteBatchSize: 2})

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `requests` WHERE `id` IN (?,?)")).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `requests` WHERE `id` IN (?)")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := client.DeleteBatch(context.Background(), []any{int64(1), int64(2), int64(3)}); err != nil {
		t.Fatalf("DeleteBatch failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteBatchAbsentIDsNotAnError(t *testing.T) {
	client, mock := newTestClient(t, config.ProcessingConfig{DeleteBatchSize: 10})

	// Only one of two rows existed; the partial result must not fail the call.
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `requests` WHERE `id` IN (?,?)")).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := client.DeleteBatch(context.Background(), []any{int64(1), int64(2)}); err != nil {
		t.Errorf("partial delete should not fail, got %v", err)
	}
}

func TestDeleteBatchEmpty(t *testing.T) {
	client, _ := newTestClient(t, config.ProcessingConfig{})

	if err := client.DeleteBatch(context.Background(), nil); err != nil {
		t.Errorf("empty delete should be a no-op, got %v", err)
	}
}
