package ipn

import (
	"context"
	"maps"

	"github.com/magabrotheeeer/membership-ipn/internal/models"
)

// memStore хранилище в памяти. Изменения транзакции видны только после успешного fn.
type memStore struct {
	plans  []models.Plan
	subs   map[int64]*models.Subscriber
	audit  []models.AuditEntry
	nextID int64

	saveErr  error
	auditErr error
}

func newMemStore(plans ...models.Plan) *memStore {
	return &memStore{plans: plans, subs: make(map[int64]*models.Subscriber)}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx := &memTx{store: m, subs: make(map[int64]*models.Subscriber, len(m.subs)), nextID: m.nextID}
	for id, s := range m.subs {
		tx.subs[id] = cloneSubscriber(s)
	}
	tx.audit = append(tx.audit, m.audit...)

	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.subs, m.audit, m.nextID = tx.subs, tx.audit, tx.nextID
	return nil
}

func (m *memStore) add(sub *models.Subscriber) *models.Subscriber {
	m.nextID++
	sub.ID = m.nextID
	m.subs[sub.ID] = cloneSubscriber(sub)
	return sub
}

func (m *memStore) only() *models.Subscriber {
	for _, s := range m.subs {
		return s
	}
	return nil
}

type memTx struct {
	store  *memStore
	subs   map[int64]*models.Subscriber
	audit  []models.AuditEntry
	nextID int64
}

func (t *memTx) PlanByProductID(_ context.Context, productID string) (*models.Plan, bool, error) {
	for _, p := range t.store.plans {
		if p.ProductID != "" && p.ProductID == productID {
			plan := p
			return &plan, true, nil
		}
	}
	return nil, false, nil
}

func (t *memTx) PlanByName(_ context.Context, name string) (*models.Plan, bool, error) {
	for _, p := range t.store.plans {
		if p.Name == name {
			plan := p
			return &plan, true, nil
		}
	}
	return nil, false, nil
}

func (t *memTx) SubscriberByEmail(_ context.Context, email string) (*models.Subscriber, bool, error) {
	for _, s := range t.subs {
		if s.Email == email {
			return cloneSubscriber(s), true, nil
		}
	}
	return nil, false, nil
}

func (t *memTx) SubscriberByBillingEmail(_ context.Context, email string) (*models.Subscriber, bool, error) {
	for _, s := range t.subs {
		if s.BillingEmail == email {
			return cloneSubscriber(s), true, nil
		}
	}
	return nil, false, nil
}

func (t *memTx) CreateSubscriber(_ context.Context, sub *models.Subscriber) (int64, error) {
	t.nextID++
	c := cloneSubscriber(sub)
	c.ID = t.nextID
	t.subs[c.ID] = c
	return c.ID, nil
}

func (t *memTx) SaveSubscriber(_ context.Context, sub *models.Subscriber) error {
	if t.store.saveErr != nil {
		return t.store.saveErr
	}
	t.subs[sub.ID] = cloneSubscriber(sub)
	return nil
}

func (t *memTx) AppendAuditEntry(_ context.Context, entry models.AuditEntry) (int64, error) {
	if t.store.auditErr != nil {
		return 0, t.store.auditErr
	}
	entry.ID = int64(len(t.audit) + 1)
	t.audit = append(t.audit, entry)
	return entry.ID, nil
}

func cloneSubscriber(s *models.Subscriber) *models.Subscriber {
	c := *s
	c.Memberships = models.NewMemberships(s.Memberships.Plans()...)
	c.Properties = maps.Clone(s.Properties)
	if s.LastPayment != nil {
		lp := *s.LastPayment
		c.LastPayment = &lp
	}
	return &c
}
