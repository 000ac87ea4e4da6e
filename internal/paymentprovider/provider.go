// Package paymentprovider аутентифицирует вебхуки платёжных провайдеров
// и приводит их поля к каноническому виду models.TransactionRecord.
//
// JVZoo подписывает форму контрольной суммой SHA-1 (поле cverify),
// ClickBank шифрует JSON уведомления AES-CBC ключом, производным от секрета.
package paymentprovider

// Provider идентификатор платёжного провайдера. Передаётся явно через весь конвейер.
type Provider string

const (
	JVZoo     Provider = "jvzoo"
	ClickBank Provider = "clickbank"
)

func (p Provider) String() string {
	return string(p)
}
