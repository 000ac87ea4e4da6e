// Package cache хранит в redis ключи уже обработанных транзакций,
// чтобы повторная доставка вебхука не продлевала подписку дважды.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/membership-ipn/internal/config"
)

// Ledger журнал обработанных транзакций поверх redis.
type Ledger struct {
	Db  *redis.Client
	ttl time.Duration
}

// InitServer подключается к redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection, ttl time.Duration) (*Ledger, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Ledger{Db: db, ttl: ttl}, nil
}

// Claim атомарно занимает ключ на время ttl. false означает, что ключ уже занят.
func (l *Ledger) Claim(ctx context.Context, key string) (bool, error) {
	const op = "cache.Claim"
	ok, err := l.Db.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

// Release освобождает ключ.
func (l *Ledger) Release(ctx context.Context, key string) error {
	const op = "cache.Release"
	if err := l.Db.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает соединение с redis.
func (l *Ledger) Close() error {
	return l.Db.Close()
}
