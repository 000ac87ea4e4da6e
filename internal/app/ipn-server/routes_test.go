package ipnserver

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/membership-ipn/internal/config"
	"github.com/magabrotheeeer/membership-ipn/internal/models"
	"github.com/magabrotheeeer/membership-ipn/internal/paymentprovider"
	"github.com/magabrotheeeer/membership-ipn/internal/services/ipn"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Process(ctx context.Context, provider paymentprovider.Provider, rec models.TransactionRecord, raw models.RawPayload) (ipn.Result, error) {
	args := m.Called(ctx, provider, rec, raw)
	return args.Get(0).(ipn.Result), args.Error(1)
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func newRouter(cfg config.IPN, service Service) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, slog.New(slog.NewTextHandler(io.Discard, nil)), cfg, service, okPinger{})
	return r
}

func TestRoutes(t *testing.T) {
	cfg := config.IPN{
		JVZooSecretKey: "secret",
		RateLimitRPS:   100,
		RateLimitBurst: 100,
	}
	router := newRouter(cfg, new(MockService))

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "health",
			method:         http.MethodGet,
			path:           "/health",
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"ok"`,
		},
		{
			name:           "метрики",
			method:         http.MethodGet,
			path:           "/metrics",
			expectedStatus: http.StatusOK,
			expectedBody:   "go_goroutines",
		},
		{
			name:           "jvzoo смонтирован",
			method:         http.MethodPost,
			path:           "/ipn/jvzoo",
			expectedStatus: http.StatusOK,
			expectedBody:   "No POST request.",
		},
		{
			name:           "jvzoo GET",
			method:         http.MethodGet,
			path:           "/ipn/jvzoo",
			expectedStatus: http.StatusOK,
			expectedBody:   "No POST request.",
		},
		{
			name:           "clickbank без ключа не смонтирован",
			method:         http.MethodPost,
			path:           "/ipn/clickbank",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, strings.NewReader("")))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestRoutes_RateLimit(t *testing.T) {
	cfg := config.IPN{
		ClickBankSecretKey: "secret",
		RateLimitRPS:       0.001,
		RateLimitBurst:     1,
	}
	router := newRouter(cfg, new(MockService))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ipn/clickbank", strings.NewReader("")))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "No JSON request.", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ipn/clickbank", strings.NewReader("")))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "POST handling failed: Too many requests", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
