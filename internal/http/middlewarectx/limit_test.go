package middlewarectx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimit(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Done."))
	})
	h := RateLimit(log, 0.001, 2)(next)

	bodies := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/ipn/jvzoo", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		bodies = append(bodies, rr.Body.String())
	}

	assert.Equal(t, []string{"Done.", "Done.", "POST handling failed: Too many requests"}, bodies)
}

func TestRateLimit_SeparateLimiters(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	a := RateLimit(log, 0.001, 1)(next)
	b := RateLimit(log, 0.001, 1)(next)

	rr := httptest.NewRecorder()
	a.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	b.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
