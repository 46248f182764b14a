// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

// Package store provides database bootstrap and schema management.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Connection retry configuration. The database may still be coming up when
// the service starts, so the first ping is retried with backoff.
const (
	connectRetryBase = 500 * time.Millisecond
	connectRetryMax  = 30 * time.Second
)

// Connect opens a pgx connection pool and verifies it with a ping,
// retrying with fibonacci backoff until the database answers or the
// deadline passes.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").
			With("operation", "parse database url").
			Wrap(err)
	}

	backoff := retry.WithMaxDuration(connectRetryMax, retry.NewFibonacci(connectRetryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			Wrap(err)
	}

	return pool, nil
}
