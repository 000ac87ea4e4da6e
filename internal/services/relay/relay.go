// Package relay пересылает исходный вебхук на URL, указанный в плане.
package relay

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/membership-ipn/internal/lib/sl"
	"github.com/magabrotheeeer/membership-ipn/internal/metrics"
	"github.com/magabrotheeeer/membership-ipn/internal/models"
)

// HeaderRelayID заголовок с идентификатором пересылки.
const HeaderRelayID = "X-IPN-Relay-ID"

// Relay пересылает вебхуки в фоне, каждая пересылка ограничена таймаутом.
type Relay struct {
	log     *slog.Logger
	client  *http.Client
	timeout time.Duration
	wg      sync.WaitGroup
}

// New создаёт Relay.
func New(log *slog.Logger, timeout time.Duration) *Relay {
	return &Relay{
		log:     log,
		client:  &http.Client{},
		timeout: timeout,
	}
}

// Forward запускает пересылку в горутине. Ошибки только логируются.
func (r *Relay) Forward(url string, payload models.RawPayload) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.Post(ctx, url, payload); err != nil {
			r.log.Warn("failed to re-post IPN", slog.String("url", url), sl.Err(err))
		}
	}()
}

// Post синхронно отправляет payload на url.
func (r *Relay) Post(ctx context.Context, url string, payload models.RawPayload) error {
	const op = "relay.Post"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload.Body))
	if err != nil {
		metrics.Relays.WithLabelValues("error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	if payload.ContentType != "" {
		req.Header.Set("Content-Type", payload.ContentType)
	}
	req.Header.Set(HeaderRelayID, uuid.NewString())

	resp, err := r.client.Do(req)
	if err != nil {
		metrics.Relays.WithLabelValues("error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.Relays.WithLabelValues("rejected").Inc()
		return fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	metrics.Relays.WithLabelValues("ok").Inc()
	r.log.Info("IPN re-posted", slog.String("url", url), slog.Int("status", resp.StatusCode))
	return nil
}

// Wait ждёт завершения запущенных пересылок.
func (r *Relay) Wait() {
	r.wg.Wait()
}
