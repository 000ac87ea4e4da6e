package models

// Имена служебных планов. У них нет product id, они не управляются платежами.
const (
	PlanEnabled = "enabled"
	PlanTrial   = "trial"
	PlanAdmins  = "admins"
)

// Plan представляет тарифный план (группу), в который входит подписчик.
// ProductID пустой у служебных планов (enabled, trial, admins).
type Plan struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ProductID     string `json:"product_id,omitempty"`
	Validity      int    `json:"validity"`       // дней продления при регулярной оплате
	TrialValidity int    `json:"trial_validity"` // дней пробного периода, 0 - без пробного периода
	ForwardToURL  string `json:"forward_to_url,omitempty"`
	Addon         bool   `json:"addon"` // дополнение к основному плану, срок хранится в свойствах подписчика
}

// HasTrial сообщает, выдаётся ли по плану пробный период при первой продаже.
func (p Plan) HasTrial() bool {
	return p.TrialValidity > 0
}
