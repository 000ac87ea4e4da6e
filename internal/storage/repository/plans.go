package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/magabrotheeeer/membership-ipn/internal/models"
)

var planColumns = []string{
	"p.id",
	"p.name",
	"COALESCE(p.product_id, '')",
	"p.validity",
	"p.trial_validity",
	"COALESCE(p.forward_ipn_to_url, '')",
	"p.addon",
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(row scanner) (models.Plan, error) {
	var p models.Plan
	err := row.Scan(&p.ID, &p.Name, &p.ProductID, &p.Validity, &p.TrialValidity, &p.ForwardToURL, &p.Addon)
	return p, err
}

// PlanByProductID ищет план по product id провайдера.
func (q *Queries) PlanByProductID(ctx context.Context, productID string) (*models.Plan, bool, error) {
	const op = "repository.PlanByProductID"
	p, found, err := q.planBy(ctx, "product:"+productID, sq.Eq{"p.product_id": productID})
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return p, found, nil
}

// PlanByName ищет план по имени.
func (q *Queries) PlanByName(ctx context.Context, name string) (*models.Plan, bool, error) {
	const op = "repository.PlanByName"
	p, found, err := q.planBy(ctx, "name:"+name, sq.Eq{"p.name": name})
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return p, found, nil
}

func (q *Queries) planBy(ctx context.Context, cacheKey string, where sq.Eq) (*models.Plan, bool, error) {
	if v, ok := q.plans.Get(cacheKey); ok {
		p := v.(models.Plan)
		return &p, true, nil
	}

	query, args, err := q.sb.Select(planColumns...).From("plans p").Where(where).ToSql()
	if err != nil {
		return nil, false, err
	}

	p, err := scanPlan(q.tx.QueryRow(ctx, query, args...))
	if notFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	q.plans.SetDefault(cacheKey, p)
	return &p, true, nil
}
