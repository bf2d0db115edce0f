// Package lock provides MySQL advisory locking to prevent concurrent runs of
// the same sync job. The sync engine itself holds no locks; callers that run
// against a MySQL-backed source can use this to serialize whole jobs.
package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrLockTimeout is returned when lock acquisition times out because
// another instance is holding the lock.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// lockPrefix namespaces featsync locks away from other GET_LOCK users.
const lockPrefix = "featsync:"

// JobLock serializes execution of a named sync job via MySQL GET_LOCK().
// The lock is released explicitly or when the connection closes.
type JobLock struct {
	db       *sql.DB
	lockName string
	held     bool
}

// NewJobLock creates a lock for the given job name. The lock is not
// acquired until Acquire is called.
func NewJobLock(db *sql.DB, jobName string) *JobLock {
	return &JobLock{
		db:       db,
		lockName: lockPrefix + jobName,
	}
}

// Acquire attempts to take the lock, waiting up to timeoutSeconds.
// Returns ErrLockTimeout when another instance holds the lock.
//
// GET_LOCK() returns 1 on success, 0 on timeout, and NULL on error.
func (l *JobLock) Acquire(ctx context.Context, timeoutSeconds int) error {
	if l.held {
		return nil
	}

	var result sql.NullInt64
	err := l.db.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", l.lockName, timeoutSeconds).Scan(&result)
	if err != nil {
		return fmt.Errorf("failed to execute GET_LOCK: %w", err)
	}

	if !result.Valid {
		return fmt.Errorf("GET_LOCK returned NULL for lock %q (possible database error)", l.lockName)
	}

	switch result.Int64 {
	case 1:
		l.held = true
		return nil
	case 0:
		return ErrLockTimeout
	default:
		return fmt.Errorf("unexpected GET_LOCK return value: %d", result.Int64)
	}
}

// Release releases the lock if held. Releasing an unheld lock is a no-op.
//
// RELEASE_LOCK() returns 1 on success, 0 when the lock belongs to another
// session, and NULL when the lock does not exist.
func (l *JobLock) Release(ctx context.Context) error {
	if !l.held {
		return nil
	}

	var result sql.NullInt64
	err := l.db.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", l.lockName).Scan(&result)
	if err != nil {
		return fmt.Errorf("failed to execute RELEASE_LOCK: %w", err)
	}

	l.held = false

	if !result.Valid {
		return fmt.Errorf("RELEASE_LOCK returned NULL for lock %q (lock did not exist)", l.lockName)
	}
	if result.Int64 != 1 {
		return fmt.Errorf("lock %q was not held by this session", l.lockName)
	}
	return nil
}

// IsHeld returns true if this lock is currently held by this instance.
func (l *JobLock) IsHeld() bool {
	return l.held
}

// LockName returns the namespaced advisory lock name.
func (l *JobLock) LockName() string {
	return l.lockName
}
