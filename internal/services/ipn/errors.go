package ipn

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation транзакция не прошла проверку и не может быть применена.
	ErrValidation = errors.New("validation failed")
	// ErrUnknownTransactionType тип транзакции не поддерживается.
	ErrUnknownTransactionType = fmt.Errorf("%w: unknown transaction type", ErrValidation)
	// ErrNoPlanForProduct нет плана с product id из транзакции.
	ErrNoPlanForProduct = fmt.Errorf("%w: no plan for product id", ErrValidation)
	// ErrPlanNotConfigured в хранилище нет служебного плана (enabled или trial).
	ErrPlanNotConfigured = errors.New("system plan is not configured")
)

// RejectionError причина отказа, которую можно показать провайдеру.
type RejectionError struct {
	Reason string
	Err    error
}

func (e *RejectionError) Error() string {
	return e.Reason
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

func reject(err error, format string, args ...any) error {
	return &RejectionError{Reason: fmt.Sprintf(format, args...), Err: err}
}
