// Package repository owns all SQL against the payguard schema. The
// database is the single source of truth; every budget decision happens
// inside one transaction holding the agent's row lock.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"payguard/internal/model"
)

type Repo struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
}

func New(pool *pgxpool.Pool, rdb *redis.Client) *Repo {
	return &Repo{pool: pool, rdb: rdb}
}

func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// storeErr wraps database failures so callers can classify them as 5xx
// without inspecting driver errors.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", model.ErrStore, op, err)
}

// inTx runs fn inside a transaction, rolling back on error. The commit is
// the atomic decision point for submit/decide.
func (r *Repo) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storeErr("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return storeErr("commit", err)
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
