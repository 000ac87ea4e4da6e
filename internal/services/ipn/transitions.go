package ipn

import (
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/membership-ipn/internal/lib/validity"
	"github.com/magabrotheeeer/membership-ipn/internal/models"
)

// Kind класс транзакции, определяющий переход состояния.
type Kind int

const (
	KindUnknown Kind = iota
	KindSale
	KindBill
	KindDisable
	KindNoop
)

func (k Kind) String() string {
	switch k {
	case KindSale:
		return "sale"
	case KindBill:
		return "bill"
	case KindDisable:
		return "disable"
	case KindNoop:
		return "noop"
	default:
		return "unknown"
	}
}

var kinds = map[string]Kind{
	"SALE":               KindSale,
	"TEST_SALE":          KindSale,
	"TEST":               KindSale,
	"BILL":               KindBill,
	"TEST_BILL":          KindBill,
	"RFND":               KindDisable,
	"CGBK":               KindDisable,
	"TEST_RFND":          KindDisable,
	"INSF":               KindNoop,
	"CANCEL-REBILL":      KindNoop,
	"CANCEL-TEST-REBILL": KindNoop,
}

// Classify определяет класс транзакции по её типу.
// Уведомления ClickBank после смены подписки (*SUBSCRIPTION-CHG*) ничего не меняют.
func Classify(transType string) (Kind, error) {
	if k, ok := kinds[transType]; ok {
		return k, nil
	}
	if strings.Contains(transType, "SUBSCRIPTION-CHG") {
		return KindNoop, nil
	}
	return KindUnknown, reject(ErrUnknownTransactionType, "Unknown Transaction Type: %s", transType)
}

// SystemPlans служебные планы, которые нужны для переходов.
type SystemPlans struct {
	Enabled models.Plan
	Trial   models.Plan
}

// Change результат перехода. Пустой Event означает, что запись аудита не нужна.
type Change struct {
	Changed bool
	Event   models.EventType
	Action  string
	Note    string
}

// Audited сообщает, нужна ли запись в журнале аудита.
func (c Change) Audited() bool {
	return c.Event != ""
}

// Apply применяет переход kind к подписчику sub для плана plan.
// Функция чистая: меняет только sub, дата today передаётся явно.
func Apply(sub *models.Subscriber, plan models.Plan, system SystemPlans, kind Kind, today time.Time) Change {
	switch kind {
	case KindSale:
		return applySale(sub, plan, system, today)
	case KindBill:
		return applyBill(sub, plan, system, today)
	case KindDisable:
		return applyDisable(sub, plan, today)
	default:
		return Change{}
	}
}

func applySale(sub *models.Subscriber, plan models.Plan, system SystemPlans, today time.Time) Change {
	days, tier := plan.Validity, "regular"
	if plan.HasTrial() {
		days, tier = plan.TrialValidity, "trial"
	}
	validTo := validity.AddDays(today, days)

	if plan.HasTrial() && !plan.Addon {
		sub.Memberships.Add(system.Trial)
	}
	action := activate(sub, plan, system, validTo, today)
	sub.Memberships.Add(plan)

	return Change{
		Changed: true,
		Event:   models.EventSubscriberEnabled,
		Action:  action,
		Note:    fmt.Sprintf("%s until %s", tier, validity.Format(validTo)),
	}
}

func applyBill(sub *models.Subscriber, plan models.Plan, system SystemPlans, today time.Time) Change {
	validTo := validity.AddDays(today, plan.Validity)

	action := activate(sub, plan, system, validTo, today)
	if !plan.Addon {
		sub.Memberships.Remove(system.Trial.ID)
	}
	sub.Memberships.Add(plan)

	return Change{
		Changed: true,
		Event:   models.EventSubscriberEnabled,
		Action:  action,
		Note:    "regular until " + validity.Format(validTo),
	}
}

// activate продлевает подписку или окно дополнения и возвращает название действия.
func activate(sub *models.Subscriber, plan models.Plan, system SystemPlans, validTo, today time.Time) string {
	if plan.Addon {
		sub.SetProperty(AddonValidToKey(plan), validity.Format(validTo))
		sub.SetProperty(AddonLastPaymentKey(plan), validity.Format(today))
		return fmt.Sprintf("Addon %q enabled", plan.Name)
	}

	sub.ValidTo = validTo
	paid := today
	sub.LastPayment = &paid
	sub.Memberships.Add(system.Enabled)
	return "Enabled"
}

func applyDisable(sub *models.Subscriber, plan models.Plan, today time.Time) Change {
	// возврат после апгрейда плана
	if v, _ := sub.Property(models.PropertyUpgradeCompleted); v == "true" {
		sub.SetProperty(models.PropertyUpgradeCompleted, "false")
		return Change{Changed: true}
	}

	var (
		action  string
		removed []string
	)
	if plan.Addon {
		if sub.Memberships.Remove(plan.ID) {
			removed = append(removed, plan.Name)
		}
		sub.SetProperty(AddonValidToKey(plan), validity.Format(today))
		action = fmt.Sprintf("Addon %q disabled", plan.Name)
	} else {
		sub.ValidTo = today
		for _, p := range sub.Memberships.Clear() {
			removed = append(removed, p.Name)
		}
		action = "Disabled"
	}

	return Change{
		Changed: true,
		Event:   models.EventSubscriberDisabled,
		Action:  action,
		Note:    "removed from groups: " + strings.Join(removed, ", "),
	}
}

// AddonValidToKey свойство подписчика с датой окончания дополнения.
func AddonValidToKey(plan models.Plan) string {
	return "addon_" + plan.ProductID + "_valid_to"
}

// AddonLastPaymentKey свойство подписчика с датой последней оплаты дополнения.
func AddonLastPaymentKey(plan models.Plan) string {
	return "addon_" + plan.ProductID + "_last_payment"
}
