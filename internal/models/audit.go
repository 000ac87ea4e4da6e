package models

import "time"

// EventType тип события журнала аудита.
type EventType string

const (
	EventSubscriberCreated  EventType = "SubscriberCreated"
	EventSubscriberEnabled  EventType = "SubscriberEnabled"
	EventSubscriberDisabled EventType = "SubscriberDisabled"
)

// AuditEntry запись журнала аудита подписчика. Записи только добавляются.
type AuditEntry struct {
	ID           int64
	SubscriberID int64
	EventType    EventType
	Timestamp    time.Time
	Comment      string
}

// SubscriberEvent уведомление для внешнего почтового сервиса,
// публикуется после фиксации транзакции.
type SubscriberEvent struct {
	Type     EventType `json:"type"`
	UID      string    `json:"uid"`
	Email    string    `json:"email"`
	Fullname string    `json:"fullname"`
	Password string    `json:"password,omitempty"` // только для SubscriberCreated
	ValidTo  string    `json:"valid_to"`
	Comment  string    `json:"comment"`
}
