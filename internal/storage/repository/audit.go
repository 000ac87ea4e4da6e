package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/membership-ipn/internal/models"
)

// AppendAuditEntry добавляет запись в журнал аудита.
func (q *Queries) AppendAuditEntry(ctx context.Context, entry models.AuditEntry) (int64, error) {
	const op = "repository.AppendAuditEntry"

	query, args, err := q.sb.Insert("audit_entries").
		Columns("subscriber_id", "event_type", "created_at", "comment").
		Values(entry.SubscriberID, string(entry.EventType), entry.Timestamp.UTC(), entry.Comment).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var id int64
	if err := q.tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}
