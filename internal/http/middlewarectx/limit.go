package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/membership-ipn/internal/http/response"
)

// TooManyRequests причина отказа при превышении лимита.
const TooManyRequests = "Too many requests"

// RateLimit ограничивает частоту запросов к вебхукам.
// Отказ отдаётся с кодом 200 и текстом ошибки, как и остальные ответы провайдерам.
func RateLimit(log *slog.Logger, rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.Warn("too many requests",
					slog.String("path", r.URL.Path),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				render.PlainText(w, r, response.FailurePrefix+TooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
