// Package metrics регистрирует метрики Prometheus движка вебхуков.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы обработки вебхука, значения метки outcome.
const (
	OutcomeProcessed = "processed"
	OutcomeIgnored   = "ignored"
	OutcomeDuplicate = "duplicate"
	OutcomeNoop      = "noop"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

var (
	// Webhooks количество принятых вебхуков по провайдеру и исходу.
	Webhooks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ipn",
		Name:      "webhooks_total",
		Help:      "Payment notifications received, by provider and outcome.",
	}, []string{"provider", "outcome"})

	// Transitions количество применённых переходов состояния подписчика.
	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ipn",
		Name:      "transitions_total",
		Help:      "Subscriber state transitions applied, by provider and kind.",
	}, []string{"provider", "kind"})

	// Relays результаты пересылки вебхуков на URL плана.
	Relays = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ipn",
		Name:      "relay_total",
		Help:      "Webhook relays to plan forward URLs, by outcome.",
	}, []string{"outcome"})

	// Notifications результаты публикации событий подписчика.
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ipn",
		Name:      "notifications_total",
		Help:      "Subscriber events published to the broker, by event type and outcome.",
	}, []string{"event", "outcome"})

	// Duration время обработки вебхука.
	Duration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ipn",
		Name:      "processing_seconds",
		Help:      "Time spent processing a payment notification.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})
)
