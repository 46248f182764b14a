// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

// Package postgres implements the project repository on PostgreSQL.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// poolIface is the subset of pgxpool.Pool the repository uses. Satisfied
// by *pgxpool.Pool in production and pgxmock.PgxPoolIface in tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
