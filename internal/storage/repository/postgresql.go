// Package repository реализует хранилище подписчиков, планов и журнала аудита
// на PostgreSQL. Все изменения одного уведомления выполняются в одной транзакции.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	gocache "github.com/patrickmn/go-cache"
)

// DB часть пула соединений, которая нужна хранилищу.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// Repository хранилище с кэшем планов. Планы меняются редко, поэтому
// найденные планы кэшируются на planTTL.
type Repository struct {
	db    DB
	plans *gocache.Cache
	sb    sq.StatementBuilderType
}

// Connect открывает пул соединений и проверяет его.
func Connect(ctx context.Context, connection string) (*pgxpool.Pool, error) {
	const op = "repository.Connect"

	pool, err := pgxpool.New(ctx, connection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pool, nil
}

// New создаёт хранилище поверх db.
func New(db DB, planTTL time.Duration) *Repository {
	if planTTL <= 0 {
		planTTL = time.Minute
	}
	return &Repository{
		db:    db,
		plans: gocache.New(planTTL, 2*planTTL),
		sb:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Ping проверяет соединение с базой.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// WithinTx выполняет fn в транзакции. Ошибка fn или коммита откатывает транзакцию.
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, q *Queries) error) error {
	const op = "repository.WithinTx"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	done := false
	defer func() {
		if !done {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(ctx, &Queries{tx: tx, sb: r.sb, plans: r.plans}); err != nil {
		return err
	}

	done = true
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Queries запросы в рамках одной транзакции.
type Queries struct {
	tx    pgx.Tx
	sb    sq.StatementBuilderType
	plans *gocache.Cache
}

func notFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
