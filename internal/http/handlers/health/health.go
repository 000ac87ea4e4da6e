package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/membership-ipn/internal/http/response"
	"github.com/magabrotheeeer/membership-ipn/internal/lib/sl"
)

// Pinger проверяет доступность хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	log     *slog.Logger
	db      Pinger
	timeout time.Duration
}

func New(log *slog.Logger, db Pinger) *Handler {
	return &Handler{log: log, db: db, timeout: 2 * time.Second}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.Error("storage is unavailable", slog.String("op", op), sl.Err(err))
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("storage is unavailable"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]string{"status": "ok"}))
}
