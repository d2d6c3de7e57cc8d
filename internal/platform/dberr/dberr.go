// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a shared bridge between low-level storage driver
// errors and the closed [apperr.Code] set every adapter must report through.
// Adapter implementations call [Wrap] at the bottom of every driver call so
// the handler layer never has to know which of the thirteen backends is
// active.
package dberr

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/meridiandb/dbal/internal/platform/apperr"
)

// ErrNotFound is a standard error returned when a queried row doesn't exist.
var ErrNotFound = apperr.NotFound("resource")

// pgUniqueViolation is the Postgres/CockroachDB SQLSTATE for a unique or
// primary-key constraint violation.
const pgUniqueViolation = "23505"

// mysqlDuplicateEntry is the MySQL/TiDB error number for a duplicate key on
// a unique index.
const mysqlDuplicateEntry = 1062

// Wrap inspects a database error and maps it onto the closed [apperr.Code]
// set. It hides internal database details from the client while preserving
// enough information for server-side logs.
func Wrap(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Timeout("adapter call exceeded its deadline")
	}

	// Postgres / CockroachDB (both speak the pgx wire protocol).
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return apperr.Conflict("a record with that key already exists")
	}

	// MySQL / TiDB.
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return apperr.Conflict("a record with that key already exists")
	}

	// Redis.
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}

	return apperr.DatabaseError(err)
}
