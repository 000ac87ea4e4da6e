package paymentprovider

import "errors"

var (
	// ErrAuthentication контрольная сумма вебхука не совпала.
	ErrAuthentication = errors.New("checksum verification failed")
	// ErrMissingField в запросе нет поля, необходимого для аутентификации.
	ErrMissingField = errors.New("missing required field")
	// ErrDecryption уведомление не удалось расшифровать или разобрать.
	ErrDecryption = errors.New("decryption failed")
)
