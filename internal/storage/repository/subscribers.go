package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"

	sq "github.com/Masterminds/squirrel"

	"github.com/magabrotheeeer/membership-ipn/internal/models"
)

var subscriberColumns = []string{
	"id",
	"uid::text",
	"email",
	"COALESCE(billing_email, '')",
	"password_hash",
	"fullname",
	"affiliate",
	"valid_to",
	"last_payment",
}

// SubscriberByEmail ищет подписчика по логину и блокирует строку до конца транзакции.
func (q *Queries) SubscriberByEmail(ctx context.Context, email string) (*models.Subscriber, bool, error) {
	const op = "repository.SubscriberByEmail"
	sub, found, err := q.subscriberBy(ctx, sq.Eq{"email": email})
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return sub, found, nil
}

// SubscriberByBillingEmail ищет подписчика по email оплаты.
func (q *Queries) SubscriberByBillingEmail(ctx context.Context, email string) (*models.Subscriber, bool, error) {
	const op = "repository.SubscriberByBillingEmail"
	sub, found, err := q.subscriberBy(ctx, sq.Eq{"billing_email": email})
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return sub, found, nil
}

func (q *Queries) subscriberBy(ctx context.Context, where sq.Eq) (*models.Subscriber, bool, error) {
	query, args, err := q.sb.Select(subscriberColumns...).
		From("subscribers").
		Where(where).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, false, err
	}

	var s models.Subscriber
	err = q.tx.QueryRow(ctx, query, args...).Scan(
		&s.ID, &s.UID, &s.Email, &s.BillingEmail, &s.PasswordHash,
		&s.Fullname, &s.Affiliate, &s.ValidTo, &s.LastPayment,
	)
	if notFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if s.Memberships, err = q.memberships(ctx, s.ID); err != nil {
		return nil, false, err
	}
	if s.Properties, err = q.properties(ctx, s.ID); err != nil {
		return nil, false, err
	}
	return &s, true, nil
}

func (q *Queries) memberships(ctx context.Context, subscriberID int64) (models.Memberships, error) {
	query, args, err := q.sb.Select(planColumns...).
		From("subscriber_plans sp").
		Join("plans p ON p.id = sp.plan_id").
		Where(sq.Eq{"sp.subscriber_id": subscriberID}).
		OrderBy("sp.position").
		ToSql()
	if err != nil {
		return models.Memberships{}, err
	}

	rows, err := q.tx.Query(ctx, query, args...)
	if err != nil {
		return models.Memberships{}, err
	}
	defer rows.Close()

	var m models.Memberships
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return models.Memberships{}, err
		}
		m.Add(p)
	}
	return m, rows.Err()
}

func (q *Queries) properties(ctx context.Context, subscriberID int64) (map[string]string, error) {
	query, args, err := q.sb.Select("key", "value").
		From("subscriber_properties").
		Where(sq.Eq{"subscriber_id": subscriberID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	props := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		props[k] = v
	}
	return props, rows.Err()
}

// CreateSubscriber вставляет подписчика вместе с членствами и свойствами.
func (q *Queries) CreateSubscriber(ctx context.Context, sub *models.Subscriber) (int64, error) {
	const op = "repository.CreateSubscriber"

	query, args, err := q.sb.Insert("subscribers").
		Columns("uid", "email", "billing_email", "password_hash", "fullname", "affiliate", "valid_to", "last_payment").
		Values(sub.UID, sub.Email, nullable(sub.BillingEmail), sub.PasswordHash, sub.Fullname, sub.Affiliate, sub.ValidTo, sub.LastPayment).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var id int64
	if err := q.tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := q.insertMemberships(ctx, id, sub.Memberships); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if err := q.upsertProperties(ctx, id, sub.Properties); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// SaveSubscriber обновляет подписчика, заменяет членства и сохраняет свойства.
func (q *Queries) SaveSubscriber(ctx context.Context, sub *models.Subscriber) error {
	const op = "repository.SaveSubscriber"

	query, args, err := q.sb.Update("subscribers").
		SetMap(map[string]any{
			"email":         sub.Email,
			"billing_email": nullable(sub.BillingEmail),
			"fullname":      sub.Fullname,
			"affiliate":     sub.Affiliate,
			"valid_to":      sub.ValidTo,
			"last_payment":  sub.LastPayment,
		}).
		Where(sq.Eq{"id": sub.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	tag, err := q.tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: subscriber %d not found", op, sub.ID)
	}

	query, args, err = q.sb.Delete("subscriber_plans").Where(sq.Eq{"subscriber_id": sub.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := q.tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := q.insertMemberships(ctx, sub.ID, sub.Memberships); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := q.upsertProperties(ctx, sub.ID, sub.Properties); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (q *Queries) insertMemberships(ctx context.Context, subscriberID int64, m models.Memberships) error {
	if m.Len() == 0 {
		return nil
	}
	ins := q.sb.Insert("subscriber_plans").Columns("subscriber_id", "plan_id", "position")
	for i, p := range m.Plans() {
		ins = ins.Values(subscriberID, p.ID, i)
	}
	query, args, err := ins.ToSql()
	if err != nil {
		return err
	}
	_, err = q.tx.Exec(ctx, query, args...)
	return err
}

func (q *Queries) upsertProperties(ctx context.Context, subscriberID int64, props map[string]string) error {
	if len(props) == 0 {
		return nil
	}
	ins := q.sb.Insert("subscriber_properties").Columns("subscriber_id", "key", "value")
	for _, k := range sortedKeys(props) {
		ins = ins.Values(subscriberID, k, props[k])
	}
	query, args, err := ins.Suffix("ON CONFLICT (subscriber_id, key) DO UPDATE SET value = EXCLUDED.value").ToSql()
	if err != nil {
		return err
	}
	_, err = q.tx.Exec(ctx, query, args...)
	return err
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
