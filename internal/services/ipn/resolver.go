package ipn

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/membership-ipn/internal/lib/password"
	"github.com/magabrotheeeer/membership-ipn/internal/models"
	"github.com/magabrotheeeer/membership-ipn/internal/paymentprovider"
)

// Credentials выдаёт пароль новому подписчику: открытый текст и хэш.
type Credentials func() (plain, hash string, err error)

// resolution найденный или созданный подписчик.
type resolution struct {
	Subscriber *models.Subscriber
	Created    bool
	Password   string // открытый пароль нового подписчика
	Comment    string // комментарий записи SubscriberCreated
}

// resolveSubscriber ищет подписчика по логину, затем по email оплаты.
// Если не найден, создаёт нового и пишет запись аудита SubscriberCreated.
func resolveSubscriber(
	ctx context.Context,
	tx Tx,
	credentials Credentials,
	provider paymentprovider.Provider,
	rec models.TransactionRecord,
	now, today time.Time,
) (resolution, error) {
	const op = "ipn.resolveSubscriber"

	sub, found, err := tx.SubscriberByEmail(ctx, rec.Email)
	if err != nil {
		return resolution{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		sub, found, err = tx.SubscriberByBillingEmail(ctx, rec.Email)
		if err != nil {
			return resolution{}, fmt.Errorf("%s: %w", op, err)
		}
	}
	if found {
		return resolution{Subscriber: sub}, nil
	}

	plain, hash, err := credentials()
	if err != nil {
		return resolution{}, fmt.Errorf("%s: %w", op, err)
	}

	sub = &models.Subscriber{
		UID:          uuid.NewString(),
		Email:        rec.Email,
		BillingEmail: rec.Email,
		PasswordHash: hash,
		Fullname:     rec.Fullname,
		Affiliate:    rec.Affiliate,
		ValidTo:      today,
	}
	id, err := tx.CreateSubscriber(ctx, sub)
	if err != nil {
		return resolution{}, fmt.Errorf("%s: %w", op, err)
	}
	sub.ID = id

	comment := Comment("Created", provider, rec.TransID, rec.TransType, "")
	if _, err := tx.AppendAuditEntry(ctx, models.AuditEntry{
		SubscriberID: id,
		EventType:    models.EventSubscriberCreated,
		Timestamp:    now,
		Comment:      comment,
	}); err != nil {
		return resolution{}, fmt.Errorf("%s: %w", op, err)
	}

	return resolution{Subscriber: sub, Created: true, Password: plain, Comment: comment}, nil
}

// defaultCredentials генерирует пароль и хэширует его bcrypt.
func defaultCredentials() (string, string, error) {
	return password.New()
}
