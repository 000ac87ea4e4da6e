// Package models содержит доменные структуры движка обработки платёжных
// уведомлений: подписчика, тарифный план, запись аудита и нормализованную
// транзакцию платёжного провайдера.
package models

import "time"

// PropertyUpgradeCompleted выставляется, когда подписчик завершил апгрейд плана.
// Следующий возврат считается частью апгрейда и не отключает подписчика.
const PropertyUpgradeCompleted = "upgrade_completed"

// Subscriber представляет подписчика системы.
// ValidTo всегда содержит дату (по умолчанию дата создания),
// активность определяется членством в плане enabled.
type Subscriber struct {
	ID           int64
	UID          string
	Email        string // логин, уникален
	BillingEmail string // email для оплаты, если отличается от логина
	PasswordHash string
	Fullname     string
	Affiliate    string
	ValidTo      time.Time  // дата окончания подписки
	LastPayment  *time.Time // дата последней оплаты
	Memberships  Memberships
	Properties   map[string]string
}

// Enabled сообщает, активен ли подписчик.
func (s *Subscriber) Enabled() bool {
	return s.Memberships.Has(PlanEnabled)
}

// Trial сообщает, находится ли подписчик в пробном периоде.
func (s *Subscriber) Trial() bool {
	return s.Memberships.Has(PlanTrial)
}

// Property возвращает значение свойства и признак его наличия.
func (s *Subscriber) Property(key string) (string, bool) {
	v, ok := s.Properties[key]
	return v, ok
}

// SetProperty создаёт или обновляет свойство.
func (s *Subscriber) SetProperty(key, value string) {
	if s.Properties == nil {
		s.Properties = make(map[string]string)
	}
	s.Properties[key] = value
}
