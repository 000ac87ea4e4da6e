package models

// TransactionRecord нормализованная транзакция платёжного провайдера.
// Создаётся один раз на запрос и нигде не сохраняется.
type TransactionRecord struct {
	Email     string `validate:"required,email"`
	Fullname  string
	Affiliate string
	TransType string `validate:"required"`
	TransID   string
	ProductID string `validate:"required"`
}

// RawPayload исходное тело вебхука, которое пересылается на URL плана.
type RawPayload struct {
	ContentType string
	Body        []byte
}
