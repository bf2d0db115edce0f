package lock

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// ===== Test Helpers =====

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func expectGetLock(mock sqlmock.Sqlmock, lockName string, timeout int, result any) {
	rows := sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(result)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT GET_LOCK(?, ?)")).
		WithArgs(lockName, timeout).
		WillReturnRows(rows)
}

func expectReleaseLock(mock sqlmock.Sqlmock, lockName string, result any) {
	rows := sqlmock.NewRows([]string{"RELEASE_LOCK"}).AddRow(result)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT RELEASE_LOCK(?)")).
		WithArgs(lockName).
		WillReturnRows(rows)
}

// ===== Tests =====

func TestLockName(t *testing.T) {
	db, _ := newMockDB(t)
	l := NewJobLock(db, "nightly")

	if got := l.LockName(); got != "featsync:nightly" {
		t.Errorf("LockName = %q, want featsync:nightly", got)
	}
}

func TestAcquireSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	l := NewJobLock(db, "nightly")
	expectGetLock(mock, "featsync:nightly", 10, 1)

	if err := l.Acquire(context.Background(), 10); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !l.IsHeld() {
		t.Error("IsHeld = false after successful acquire")
	}

	// Acquiring a held lock is a no-op, no second query
	if err := l.Acquire(context.Background(), 10); err != nil {
		t.Errorf("re-acquire of held lock failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAcquireTimeout(t *testing.T) {
	db, mock := newMockDB(t)
	l := NewJobLock(db, "nightly")
	expectGetLock(mock, "featsync:nightly", 5, 0)

	err := l.Acquire(context.Background(), 5)
	if !errors.Is(err, ErrLockTimeout) {
		t.Errorf("expected ErrLockTimeout, got %v", err)
	}
	if l.IsHeld() {
		t.Error("IsHeld = true after timeout")
	}
}

func TestAcquireNullResult(t *testing.T) {
	db, mock := newMockDB(t)
	l := NewJobLock(db, "nightly")
	expectGetLock(mock, "featsync:nightly", 5, nil)

	if err := l.Acquire(context.Background(), 5); err == nil {
		t.Error("expected error for NULL GET_LOCK result")
	}
}

func TestReleaseSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	l := NewJobLock(db, "nightly")
	expectGetLock(mock, "featsync:nightly", 10, 1)
	expectReleaseLock(mock, "featsync:nightly", 1)

	if err := l.Acquire(context.Background(), 10); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := l.Release(context.Background()); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if l.IsHeld() {
		t.Error("IsHeld = true after release")
	}
}

func TestReleaseUnheldIsNoop(t *testing.T) {
	db, mock := newMockDB(t)
	l := NewJobLock(db, "nightly")

	if err := l.Release(context.Background()); err != nil {
		t.Errorf("release of unheld lock should be a no-op, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReleaseNotOwned(t *testing.T) {
	db, mock := newMockDB(t)
	l := NewJobLock(db, "nightly")
	expectGetLock(mock, "featsync:nightly", 10, 1)
	expectReleaseLock(mock, "featsync:nightly", 0)

	if err := l.Acquire(context.Background(), 10); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := l.Release(context.Background()); err == nil {
		t.Error("expected error when RELEASE_LOCK reports a foreign session")
	}
	if l.IsHeld() {
		t.Error("IsHeld must be cleared even when the release fails")
	}
}
