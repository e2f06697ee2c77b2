// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrDuplicate is returned when a wallet key already exists for the user.
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFound is returned when no wallet key exists for the user.
	ErrNotFound = errors.New("record not found")
	// ErrTimeout is returned when a store call exceeds its deadline. The
	// outcome of a timed-out write is unknown.
	ErrTimeout = errors.New("store operation timed out")
	// ErrUnavailable wraps any other backend failure.
	ErrUnavailable = errors.New("store unavailable")
)

const (
	pgUniqueViolation   = "23505"
	mysqlDuplicateEntry = 1062
)

// MapDBError inspects low-level driver errors and maps them to the package
// sentinels. Typed driver errors are checked first; the string match covers
// drivers that flatten their errors before they reach us.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrTimeout), errors.Is(err, ErrUnavailable):
		return err
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case isDuplicate(err):
		return ErrDuplicate
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// mapCtxError is MapDBError plus a check of the caller's context: drivers do
// not always surface context.DeadlineExceeded when a deadline fires mid-call.
func mapCtxError(ctx context.Context, err error) error {
	mapped := MapDBError(err)
	if errors.Is(mapped, ErrUnavailable) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return mapped
}

func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	le := strings.ToLower(err.Error())
	for _, phrase := range duplicatePhrases {
		if strings.Contains(le, phrase) {
			return true
		}
	}
	return false
}

// duplicatePhrases are the flattened forms of the unique violations above.
// Bare error codes are not matched: they also show up in port numbers and
// connection ids.
var duplicatePhrases = []string{
	"error 1062",
	"duplicate entry",
	"sqlstate 23505",
	"duplicate key value violates unique constraint",
	"unique constraint failed",
}
