// Package clickbank принимает INS ClickBank: JSON конверт с зашифрованным уведомлением.
package clickbank

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
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
	contentType = "application/json"
	maxBodySize = 1 << 20
)

type Service interface {
	Process(ctx context.Context, provider paymentprovider.Provider, rec models.TransactionRecord, raw models.RawPayload) (ipn.Result, error)
}

type Handler struct {
	log      *slog.Logger
	service  Service
	secret   string
	encoding paymentprovider.KeyEncoding
}

func New(log *slog.Logger, service Service, secret string, encoding paymentprovider.KeyEncoding) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		secret:   secret,
		encoding: encoding,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ipn.clickbank"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	start := time.Now()
	defer func() {
		metrics.Duration.WithLabelValues(paymentprovider.ClickBank.String()).Observe(time.Since(start).Seconds())
	}()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		log.Error("failed to read request body", sl.Err(err))
		h.fail(w, r, err)
		return
	}
	defer r.Body.Close()

	if r.Method != http.MethodPost || len(body) == 0 || !json.Valid(body) {
		log.Info("request body is not JSON")
		metrics.Webhooks.WithLabelValues(paymentprovider.ClickBank.String(), metrics.OutcomeRejected).Inc()
		render.PlainText(w, r, response.NoJSON)
		return
	}

	fields, err := paymentprovider.DecryptClickBank(body, h.secret, h.encoding)
	if err != nil {
		log.Warn("rejected notification", sl.Err(err))
		h.fail(w, r, err)
		return
	}

	rec := paymentprovider.MapClickBank(fields)
	res, err := h.service.Process(r.Context(), paymentprovider.ClickBank, rec, models.RawPayload{
		ContentType: contentType,
		Body:        body,
	})
	if err != nil {
		log.Error("failed to process notification", sl.Err(err))
		h.fail(w, r, err)
		return
	}

	metrics.Webhooks.WithLabelValues(paymentprovider.ClickBank.String(), string(res.Outcome)).Inc()
	render.PlainText(w, r, response.Done)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	text, outcome := response.Failed(err)
	metrics.Webhooks.WithLabelValues(paymentprovider.ClickBank.String(), outcome).Inc()
	render.PlainText(w, r, text)
}
