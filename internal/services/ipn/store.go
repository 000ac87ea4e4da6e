// Package ipn обрабатывает платёжные уведомления: находит подписчика и план,
// применяет переход состояния, пишет журнал аудита и после фиксации
// транзакции пересылает вебхук и публикует события для почтового сервиса.
package ipn

import (
	"context"

	"github.com/magabrotheeeer/membership-ipn/internal/models"
)

// Tx операции хранилища внутри одной транзакции.
// Отсутствие записи возвращается как found == false, а не ошибка.
type Tx interface {
	// PlanByProductID ищет план по product id провайдера.
	PlanByProductID(ctx context.Context, productID string) (*models.Plan, bool, error)
	// PlanByName ищет план по уникальному имени.
	PlanByName(ctx context.Context, name string) (*models.Plan, bool, error)
	// SubscriberByEmail ищет подписчика по логину.
	SubscriberByEmail(ctx context.Context, email string) (*models.Subscriber, bool, error)
	// SubscriberByBillingEmail ищет подписчика по email оплаты.
	SubscriberByBillingEmail(ctx context.Context, email string) (*models.Subscriber, bool, error)
	// CreateSubscriber сохраняет нового подписчика и возвращает его ID.
	CreateSubscriber(ctx context.Context, sub *models.Subscriber) (int64, error)
	// SaveSubscriber сохраняет поля, членства и свойства подписчика.
	SaveSubscriber(ctx context.Context, sub *models.Subscriber) error
	// AppendAuditEntry добавляет запись в журнал аудита.
	AppendAuditEntry(ctx context.Context, entry models.AuditEntry) (int64, error)
}

// Store выполняет fn в одной транзакции. Ошибка fn откатывает все изменения.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Ledger хранит ключи уже обработанных транзакций.
type Ledger interface {
	// Claim занимает ключ. Возвращает false, если ключ уже занят.
	Claim(ctx context.Context, key string) (bool, error)
	// Release освобождает ключ после неудачной обработки.
	Release(ctx context.Context, key string) error
}

// Relayer пересылает исходный вебхук на URL плана. Ошибки не возвращаются.
type Relayer interface {
	Forward(url string, payload models.RawPayload)
}

// Notifier публикует события подписчика для почтового сервиса.
type Notifier interface {
	Publish(ctx context.Context, event models.SubscriberEvent) error
}
