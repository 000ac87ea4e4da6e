package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/membership-ipn/internal/models"
)

var (
	planCols       = []string{"id", "name", "product_id", "validity", "trial_validity", "forward_ipn_to_url", "addon"}
	subscriberCols = []string{"id", "uid", "email", "billing_email", "password_hash", "fullname", "affiliate", "valid_to", "last_payment"}

	validTo = time.Date(2014, 1, 6, 0, 0, 0, 0, time.UTC)
	paidAt  = time.Date(2013, 12, 30, 0, 0, 0, 0, time.UTC)

	planEnabled = models.Plan{ID: 1, Name: "enabled"}
	planTrial   = models.Plan{ID: 2, Name: "trial"}
	planMonthly = models.Plan{ID: 10, Name: "monthly", ProductID: "1", Validity: 31, TrialValidity: 7}
)

func q(s string) string {
	return regexp.QuoteMeta(s)
}

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *Repository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, New(mock, time.Minute)
}

func planRow(p models.Plan) *pgxmock.Rows {
	return pgxmock.NewRows(planCols).
		AddRow(p.ID, p.Name, p.ProductID, p.Validity, p.TrialValidity, p.ForwardToURL, p.Addon)
}

func TestQueries_PlanByProductID_Cached(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM plans p WHERE p.product_id = $1")).
		WithArgs("1").
		WillReturnRows(planRow(planMonthly))
	mock.ExpectCommit()

	err := repo.WithinTx(context.Background(), func(ctx context.Context, tx *Queries) error {
		for i := 0; i < 2; i++ {
			p, found, err := tx.PlanByProductID(ctx, "1")
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, planMonthly, *p)
		}
		return nil
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueries_PlanByName_NotFound(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM plans p WHERE p.name = $1")).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(planCols))
	mock.ExpectCommit()

	err := repo.WithinTx(context.Background(), func(ctx context.Context, tx *Queries) error {
		p, found, err := tx.PlanByName(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, p)
		return nil
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueries_SubscriberByEmail(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM subscribers WHERE email = $1 FOR UPDATE")).
		WithArgs("foo@bar.com").
		WillReturnRows(pgxmock.NewRows(subscriberCols).AddRow(
			int64(7), "6f1c2b7e-0000-4000-8000-000000000001", "foo@bar.com", "", "hash",
			"Foo Bar", "aff", validTo, &paidAt,
		))
	mock.ExpectQuery(q("FROM subscriber_plans sp JOIN plans p ON p.id = sp.plan_id WHERE sp.subscriber_id = $1 ORDER BY sp.position")).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(planCols).
			AddRow(planEnabled.ID, planEnabled.Name, "", 0, 0, "", false).
			AddRow(planTrial.ID, planTrial.Name, "", 0, 0, "", false).
			AddRow(planMonthly.ID, planMonthly.Name, planMonthly.ProductID, planMonthly.Validity, planMonthly.TrialValidity, "", false))
	mock.ExpectQuery(q("SELECT key, value FROM subscriber_properties WHERE subscriber_id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"key", "value"}).AddRow("upgrade_completed", "false"))
	mock.ExpectCommit()

	err := repo.WithinTx(context.Background(), func(ctx context.Context, tx *Queries) error {
		sub, found, err := tx.SubscriberByEmail(ctx, "foo@bar.com")
		require.NoError(t, err)
		require.True(t, found)

		assert.Equal(t, int64(7), sub.ID)
		assert.Equal(t, "Foo Bar", sub.Fullname)
		assert.Equal(t, validTo, sub.ValidTo)
		require.NotNil(t, sub.LastPayment)
		assert.Equal(t, paidAt, *sub.LastPayment)
		assert.Equal(t, []string{"enabled", "trial", "monthly"}, sub.Memberships.Names())
		assert.Equal(t, map[string]string{"upgrade_completed": "false"}, sub.Properties)
		return nil
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueries_SubscriberByBillingEmail_NotFound(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM subscribers WHERE billing_email = $1 FOR UPDATE")).
		WithArgs("foo@bar.com").
		WillReturnRows(pgxmock.NewRows(subscriberCols))
	mock.ExpectCommit()

	err := repo.WithinTx(context.Background(), func(ctx context.Context, tx *Queries) error {
		sub, found, err := tx.SubscriberByBillingEmail(ctx, "foo@bar.com")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, sub)
		return nil
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueries_CreateSubscriber(t *testing.T) {
	mock, repo := newMock(t)

	sub := &models.Subscriber{
		UID:          "6f1c2b7e-0000-4000-8000-000000000001",
		Email:        "foo@bar.com",
		BillingEmail: "foo@bar.com",
		PasswordHash: "hash",
		Fullname:     "Foo Bar",
		Affiliate:    "aff",
		ValidTo:      paidAt,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(q("INSERT INTO subscribers")).
		WithArgs(sub.UID, sub.Email, sub.BillingEmail, sub.PasswordHash, sub.Fullname, sub.Affiliate, sub.ValidTo, sub.LastPayment).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectCommit()

	err := repo.WithinTx(context.Background(), func(ctx context.Context, tx *Queries) error {
		id, err := tx.CreateSubscriber(ctx, sub)
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
		return nil
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueries_SaveSubscriber(t *testing.T) {
	mock, repo := newMock(t)

	sub := &models.Subscriber{
		ID:          7,
		Email:       "foo@bar.com",
		Fullname:    "Foo Bar",
		ValidTo:     validTo,
		LastPayment: &paidAt,
		Memberships: models.NewMemberships(planTrial, planMonthly, planEnabled),
		Properties:  map[string]string{"b": "2", "a": "1"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE subscribers SET affiliate = $1, billing_email = $2, email = $3, fullname = $4, last_payment = $5, valid_to = $6 WHERE id = $7")).
		WithArgs("", nil, "foo@bar.com", "Foo Bar", &paidAt, validTo, int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(q("DELETE FROM subscriber_plans WHERE subscriber_id = $1")).
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(q("INSERT INTO subscriber_plans")).
		WithArgs(int64(7), int64(2), 0, int64(7), int64(10), 1, int64(7), int64(1), 2).
		WillReturnResult(pgxmock.NewResult("INSERT", 3))
	mock.ExpectExec(q("ON CONFLICT (subscriber_id, key) DO UPDATE SET value = EXCLUDED.value")).
		WithArgs(int64(7), "a", "1", int64(7), "b", "2").
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	err := repo.WithinTx(context.Background(), func(ctx context.Context, tx *Queries) error {
		return tx.SaveSubscriber(ctx, sub)
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueries_SaveSubscriber_EmptyMemberships(t *testing.T) {
	mock, repo := newMock(t)

	sub := &models.Subscriber{ID: 7, Email: "foo@bar.com", ValidTo: paidAt}

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE subscribers")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(q("DELETE FROM subscriber_plans")).
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectCommit()

	err := repo.WithinTx(context.Background(), func(ctx context.Context, tx *Queries) error {
		return tx.SaveSubscriber(ctx, sub)
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueries_SaveSubscriber_Missing(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE subscribers")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), int64(99)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := repo.WithinTx(context.Background(), func(ctx context.Context, tx *Queries) error {
		return tx.SaveSubscriber(ctx, &models.Subscriber{ID: 99})
	})

	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueries_AppendAuditEntry(t *testing.T) {
	mock, repo := newMock(t)

	ts := time.Date(2013, 12, 30, 10, 0, 0, 0, time.UTC)
	entry := models.AuditEntry{
		SubscriberID: 7,
		EventType:    models.EventSubscriberEnabled,
		Timestamp:    ts,
		Comment:      "Enabled by jvzoo, transaction id: 123, type: BILL, note: regular until 2014-01-30",
	}

	mock.ExpectBegin()
	mock.ExpectQuery(q("INSERT INTO audit_entries")).
		WithArgs(int64(7), "SubscriberEnabled", ts, entry.Comment).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(100)))
	mock.ExpectCommit()

	err := repo.WithinTx(context.Background(), func(ctx context.Context, tx *Queries) error {
		id, err := tx.AppendAuditEntry(ctx, entry)
		require.NoError(t, err)
		assert.Equal(t, int64(100), id)
		return nil
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_WithinTx_RollbackOnError(t *testing.T) {
	mock, repo := newMock(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := repo.WithinTx(context.Background(), func(context.Context, *Queries) error {
		return boom
	})

	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_WithinTx_CommitError(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	err := repo.WithinTx(context.Background(), func(context.Context, *Queries) error {
		return nil
	})

	require.ErrorContains(t, err, "serialization failure")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_WithinTx_BeginError(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectBegin().WillReturnError(errors.New("pool closed"))

	called := false
	err := repo.WithinTx(context.Background(), func(context.Context, *Queries) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, called)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Ping(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectPing()

	require.NoError(t, repo.Ping(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
