// Package jvzoo принимает IPN от JVZoo: форму, подписанную полем cverify.
package jvzoo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/membership-ipn/internal/http/response"
	"github.com/magabrotheeeer/membership-ipn/internal/lib/sl"
	"github.com/magabrotheeeer/membership-ipn/internal/metrics"
	"github.com/magabrotheeeer/membership-ipn/internal/models"
	"github.com/magabrotheeeer/membership-ipn/internal/paymentprovider"
	"github.com/magabrotheeeer/membership-ipn/internal/services/ipn"
)

const (
	contentType = "application/x-www-form-urlencoded"
	maxBodySize = 1 << 20
)

type Service interface {
	Process(ctx context.Context, provider paymentprovider.Provider, rec models.TransactionRecord, raw models.RawPayload) (ipn.Result, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
	secret  string // секретный ключ JVZoo
}

func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:     log,
		service: service,
		secret:  secret,
	}
}

// ServeHTTP всегда отвечает 200 текстом: JVZoo не различает коды ответа,
// результат обработки виден только в теле.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ipn.jvzoo"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	start := time.Now()
	defer func() {
		metrics.Duration.WithLabelValues(paymentprovider.JVZoo.String()).Observe(time.Since(start).Seconds())
	}()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		log.Error("failed to read request body", sl.Err(err))
		h.fail(w, r, err)
		return
	}
	defer r.Body.Close()

	form, err := url.ParseQuery(string(body))
	if err != nil || len(form) == 0 || r.Method != http.MethodPost {
		log.Info("empty or malformed form")
		metrics.Webhooks.WithLabelValues(paymentprovider.JVZoo.String(), metrics.OutcomeRejected).Inc()
		render.PlainText(w, r, response.NoPOST)
		return
	}

	if err := paymentprovider.VerifyJVZoo(form, h.secret); err != nil {
		log.Warn("rejected notification", sl.Err(err))
		h.fail(w, r, err)
		return
	}

	rec := paymentprovider.MapJVZoo(form)
	res, err := h.service.Process(r.Context(), paymentprovider.JVZoo, rec, models.RawPayload{
		ContentType: contentType,
		Body:        body,
	})
	if err != nil {
		log.Error("failed to process notification", sl.Err(err))
		h.fail(w, r, err)
		return
	}

	metrics.Webhooks.WithLabelValues(paymentprovider.JVZoo.String(), string(res.Outcome)).Inc()
	render.PlainText(w, r, response.Done)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	text, outcome := response.Failed(err)
	metrics.Webhooks.WithLabelValues(paymentprovider.JVZoo.String(), outcome).Inc()
	render.PlainText(w, r, text)
}
