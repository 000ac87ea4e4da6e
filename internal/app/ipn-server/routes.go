// Package ipnserver собирает HTTP-сервер приёма платёжных уведомлений.
package ipnserver

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magabrotheeeer/membership-ipn/internal/config"
	"github.com/magabrotheeeer/membership-ipn/internal/http/handlers/health"
	"github.com/magabrotheeeer/membership-ipn/internal/http/handlers/ipn/clickbank"
	"github.com/magabrotheeeer/membership-ipn/internal/http/handlers/ipn/jvzoo"
	"github.com/magabrotheeeer/membership-ipn/internal/http/middlewarectx"
	"github.com/magabrotheeeer/membership-ipn/internal/paymentprovider"
)

// Service обработчик транзакций, общий для обоих провайдеров.
type Service interface {
	jvzoo.Service
}

// RegisterRoutes регистрирует все маршруты приложения.
// Эндпоинт провайдера монтируется, только если задан его секретный ключ.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg config.IPN, service Service, db health.Pinger) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/ipn", func(r chi.Router) {
		r.Use(middlewarectx.RateLimit(logger, cfg.RateLimitRPS, cfg.RateLimitBurst))

		if cfg.JVZooSecretKey != "" {
			h := jvzoo.New(logger, service, cfg.JVZooSecretKey)
			r.Get("/jvzoo", h.ServeHTTP)
			r.Post("/jvzoo", h.ServeHTTP)
		}
		if cfg.ClickBankSecretKey != "" {
			// формат ключа проверен при загрузке конфига
			enc, _ := paymentprovider.ParseKeyEncoding(cfg.ClickBankKeyEncoding)
			h := clickbank.New(logger, service, cfg.ClickBankSecretKey, enc)
			r.Get("/clickbank", h.ServeHTTP)
			r.Post("/clickbank", h.ServeHTTP)
		}
	})

	r.Get("/health", health.New(logger, db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
}
