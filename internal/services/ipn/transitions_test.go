package ipn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/membership-ipn/internal/lib/validity"
	"github.com/magabrotheeeer/membership-ipn/internal/models"
)

var (
	planEnabled = models.Plan{ID: 1, Name: models.PlanEnabled}
	planTrial   = models.Plan{ID: 2, Name: models.PlanTrial}
	planAdmins  = models.Plan{ID: 3, Name: models.PlanAdmins}
	planMonthly = models.Plan{ID: 10, Name: "monthly", ProductID: "1", Validity: 31, TrialValidity: 7}
	planYearly  = models.Plan{ID: 11, Name: "yearly", ProductID: "2", Validity: 365, ForwardToURL: "http://relay.example.com/ipn"}
	planAddon   = models.Plan{ID: 12, Name: "extra", ProductID: "3", Validity: 31, TrialValidity: 7, Addon: true}

	system = SystemPlans{Enabled: planEnabled, Trial: planTrial}
	today  = time.Date(2013, 12, 30, 0, 0, 0, 0, time.UTC)
)

func date(s string) time.Time {
	d, err := validity.Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestClassify(t *testing.T) {
	tests := []struct {
		transType string
		want      Kind
	}{
		{"SALE", KindSale},
		{"TEST_SALE", KindSale},
		{"TEST", KindSale},
		{"BILL", KindBill},
		{"TEST_BILL", KindBill},
		{"RFND", KindDisable},
		{"CGBK", KindDisable},
		{"TEST_RFND", KindDisable},
		{"INSF", KindNoop},
		{"CANCEL-REBILL", KindNoop},
		{"CANCEL-TEST-REBILL", KindNoop},
		{"SUBSCRIPTION-CHG", KindNoop},
		{"TEST_SUBSCRIPTION-CHG", KindNoop},
	}

	for _, tt := range tests {
		t.Run(tt.transType, func(t *testing.T) {
			got, err := Classify(tt.transType)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_Unknown(t *testing.T) {
	for _, transType := range []string{"foo", "sale", ""} {
		kind, err := Classify(transType)

		assert.Equal(t, KindUnknown, kind)
		require.ErrorIs(t, err, ErrUnknownTransactionType)
		require.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, "Unknown Transaction Type: "+transType, err.Error())
	}
}

func TestApply_SaleWithTrial(t *testing.T) {
	sub := &models.Subscriber{ValidTo: today}

	change := Apply(sub, planMonthly, system, KindSale, today)

	assert.Equal(t, date("2014-01-06"), sub.ValidTo)
	require.NotNil(t, sub.LastPayment)
	assert.Equal(t, today, *sub.LastPayment)
	assert.ElementsMatch(t, []string{"enabled", "trial", "monthly"}, sub.Memberships.Names())
	assert.Equal(t, Change{Changed: true, Event: models.EventSubscriberEnabled, Action: "Enabled", Note: "trial until 2014-01-06"}, change)
}

func TestApply_SaleWithoutTrial(t *testing.T) {
	sub := &models.Subscriber{ValidTo: today}

	change := Apply(sub, planYearly, system, KindSale, today)

	assert.Equal(t, date("2014-12-30"), sub.ValidTo)
	assert.False(t, sub.Trial())
	assert.True(t, sub.Enabled())
	assert.True(t, sub.Memberships.Contains(planYearly.ID))
	assert.Equal(t, "regular until 2014-12-30", change.Note)
}

func TestApply_BillGraduatesTrial(t *testing.T) {
	sub := &models.Subscriber{
		ValidTo:     date("2014-01-06"),
		Memberships: models.NewMemberships(planEnabled, planTrial, planMonthly),
	}

	change := Apply(sub, planMonthly, system, KindBill, today)

	assert.Equal(t, date("2014-01-30"), sub.ValidTo)
	assert.False(t, sub.Trial())
	assert.True(t, sub.Enabled())
	assert.Equal(t, []string{"enabled", "monthly"}, sub.Memberships.Names())
	assert.Equal(t, "regular until 2014-01-30", change.Note)
	assert.Equal(t, models.EventSubscriberEnabled, change.Event)
}

func TestApply_BillWithoutTrialMembership(t *testing.T) {
	sub := &models.Subscriber{ValidTo: today}

	change := Apply(sub, planMonthly, system, KindBill, today)
	again := Apply(sub, planMonthly, system, KindBill, today)

	assert.Equal(t, change, again)
	assert.Equal(t, []string{"enabled", "monthly"}, sub.Memberships.Names())
}

func TestApply_DisableClearsEverything(t *testing.T) {
	sub := &models.Subscriber{
		ValidTo:     date("2014-01-30"),
		Memberships: models.NewMemberships(planEnabled, planTrial, planMonthly, planAdmins),
	}

	change := Apply(sub, planMonthly, system, KindDisable, today)

	assert.Equal(t, today, sub.ValidTo)
	assert.Equal(t, 0, sub.Memberships.Len())
	assert.Equal(t, Change{
		Changed: true,
		Event:   models.EventSubscriberDisabled,
		Action:  "Disabled",
		Note:    "removed from groups: enabled, trial, monthly, admins",
	}, change)
}

func TestApply_DoubleRefund(t *testing.T) {
	sub := &models.Subscriber{Memberships: models.NewMemberships(planEnabled, planMonthly)}

	Apply(sub, planMonthly, system, KindDisable, today)
	second := Apply(sub, planMonthly, system, KindDisable, today)

	assert.Equal(t, 0, sub.Memberships.Len())
	assert.Equal(t, today, sub.ValidTo)
	assert.Equal(t, "removed from groups: ", second.Note)
}

func TestApply_UpgradeRefund(t *testing.T) {
	sub := &models.Subscriber{
		ValidTo:     date("2014-01-30"),
		Memberships: models.NewMemberships(planEnabled, planMonthly),
		Properties:  map[string]string{models.PropertyUpgradeCompleted: "true"},
	}

	change := Apply(sub, planMonthly, system, KindDisable, today)

	assert.True(t, change.Changed)
	assert.False(t, change.Audited())
	assert.Equal(t, "false", sub.Properties[models.PropertyUpgradeCompleted])
	assert.Equal(t, date("2014-01-30"), sub.ValidTo)
	assert.True(t, sub.Enabled())
}

func TestApply_Addon(t *testing.T) {
	sub := &models.Subscriber{
		ValidTo:     date("2014-01-30"),
		Memberships: models.NewMemberships(planEnabled, planMonthly),
	}

	sale := Apply(sub, planAddon, system, KindSale, today)

	assert.Equal(t, `Addon "extra" enabled`, sale.Action)
	assert.Equal(t, "trial until 2014-01-06", sale.Note)
	assert.Equal(t, date("2014-01-30"), sub.ValidTo)
	assert.Nil(t, sub.LastPayment)
	assert.False(t, sub.Trial())
	assert.Equal(t, []string{"enabled", "monthly", "extra"}, sub.Memberships.Names())
	assert.Equal(t, "2014-01-06", sub.Properties["addon_3_valid_to"])
	assert.Equal(t, "2013-12-30", sub.Properties["addon_3_last_payment"])

	bill := Apply(sub, planAddon, system, KindBill, today)
	assert.Equal(t, "regular until 2014-01-30", bill.Note)
	assert.Equal(t, "2014-01-30", sub.Properties["addon_3_valid_to"])

	disable := Apply(sub, planAddon, system, KindDisable, today)
	assert.Equal(t, `Addon "extra" disabled`, disable.Action)
	assert.Equal(t, "removed from groups: extra", disable.Note)
	assert.Equal(t, []string{"enabled", "monthly"}, sub.Memberships.Names())
	assert.Equal(t, "2013-12-30", sub.Properties["addon_3_valid_to"])
	assert.Equal(t, date("2014-01-30"), sub.ValidTo)
}

func TestApply_Noop(t *testing.T) {
	sub := &models.Subscriber{ValidTo: today, Memberships: models.NewMemberships(planEnabled)}

	change := Apply(sub, planMonthly, system, KindNoop, today)

	assert.Equal(t, Change{}, change)
	assert.Equal(t, []string{"enabled"}, sub.Memberships.Names())
}

func TestComment(t *testing.T) {
	got := Comment("Enabled", "jvzoo", "123", "BILL", "regular until 2014-01-30")
	assert.Equal(t, "Enabled by jvzoo, transaction id: 123, type: BILL, note: regular until 2014-01-30", got)

	got = Comment("Created", "clickbank", "ABC", "SALE", "")
	assert.Equal(t, "Created by clickbank, transaction id: ABC, type: SALE, note: ", got)
}
