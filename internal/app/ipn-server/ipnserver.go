package ipnserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/membership-ipn/internal/cache"
	"github.com/magabrotheeeer/membership-ipn/internal/config"
	"github.com/magabrotheeeer/membership-ipn/internal/lib/sl"
	"github.com/magabrotheeeer/membership-ipn/internal/migrations"
	"github.com/magabrotheeeer/membership-ipn/internal/rabbitmq"
	"github.com/magabrotheeeer/membership-ipn/internal/services/ipn"
	"github.com/magabrotheeeer/membership-ipn/internal/services/relay"
	"github.com/magabrotheeeer/membership-ipn/internal/storage/repository"
)

type App struct {
	server  *http.Server
	logger  *slog.Logger
	cfg     *config.Config
	pool    *pgxpool.Pool
	ledger  *cache.Ledger
	conn    *amqp.Connection
	channel *amqp.Channel
	relay   *relay.Relay
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "ipnserver.New"

	app := &App{logger: logger, cfg: cfg}

	pool, err := repository.Connect(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	app.pool = pool

	if err := migrations.RunPool(pool, cfg.MigrationsPath); err != nil {
		app.close()
		return nil, err
	}

	location, err := cfg.IPN.Location()
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var ledger ipn.Ledger
	if cfg.DedupEnabled {
		l, err := cache.InitServer(ctx, cfg.RedisConnection, cfg.DedupTTL)
		if err != nil {
			app.close()
			return nil, err
		}
		app.ledger = l
		ledger = l
	}

	var notifier ipn.Notifier
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(ctx, logger, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.close()
			return nil, err
		}
		app.conn = conn

		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.SubscriberQueues())
		if err != nil {
			app.close()
			return nil, err
		}
		app.channel = ch
		notifier = rabbitmq.NewPublisher(ch)
	} else {
		logger.Warn("rabbitmq url is not set, subscriber events will not be published")
	}

	app.relay = relay.New(logger, cfg.RelayTimeout)

	repo := repository.New(pool, cfg.PlanCacheTTL)
	service := ipn.New(logger, txStore{repo: repo}, ledger, app.relay, notifier, ipn.Config{
		ProductsToIgnore: cfg.ProductsToIgnore,
		Location:         location,
	})

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg.IPN, service, repo)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return app, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.relay.Wait()
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.channel != nil {
		if err := a.channel.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
