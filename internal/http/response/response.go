// Package response содержит ответы HTTP‑обработчиков: текстовые ответы
// платёжным провайдерам и JSON‑ответы служебных эндпоинтов.
package response

import (
	"errors"

	"github.com/magabrotheeeer/membership-ipn/internal/metrics"
	"github.com/magabrotheeeer/membership-ipn/internal/paymentprovider"
	"github.com/magabrotheeeer/membership-ipn/internal/services/ipn"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

// Тексты ответов платёжным провайдерам.
const (
	Done          = "Done."
	NoPOST        = "No POST request."
	NoJSON        = "No JSON request."
	FailurePrefix = "POST handling failed: "
)

// OKWithData возвращает успешный Response с данными.
func OKWithData(data any) Response {
	return Response{Status: StatusOK, Data: data}
}

// Error возвращает Response с ошибкой.
func Error(msg string) Response {
	return Response{Status: StatusError, Error: msg}
}

// Failed формирует текст ответа провайдеру по ошибке обработки
// и метку исхода для метрик. Внутренние ошибки наружу не раскрываются.
func Failed(err error) (string, string) {
	var rej *ipn.RejectionError
	switch {
	case errors.As(err, &rej):
		return FailurePrefix + rej.Reason, metrics.OutcomeRejected
	case errors.Is(err, paymentprovider.ErrMissingField):
		return FailurePrefix + "Missing required field", metrics.OutcomeRejected
	case errors.Is(err, paymentprovider.ErrAuthentication):
		return FailurePrefix + "Checksum verification failed", metrics.OutcomeRejected
	case errors.Is(err, paymentprovider.ErrDecryption):
		return FailurePrefix + "Decryption failed", metrics.OutcomeRejected
	default:
		return FailurePrefix + "internal error", metrics.OutcomeFailed
	}
}
