package ipnserver

import (
	"context"

	"github.com/magabrotheeeer/membership-ipn/internal/services/ipn"
	"github.com/magabrotheeeer/membership-ipn/internal/storage/repository"
)

// txStore связывает транзакции репозитория с интерфейсом ipn.Store.
type txStore struct {
	repo *repository.Repository
}

func (s txStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ipn.Tx) error) error {
	return s.repo.WithinTx(ctx, func(ctx context.Context, q *repository.Queries) error {
		return fn(ctx, q)
	})
}

var _ ipn.Tx = (*repository.Queries)(nil)
