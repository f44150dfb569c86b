package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"hosting-payments/internal/domain"
	"hosting-payments/internal/domain/model"
	"hosting-payments/internal/domain/ports/repository"
)

var _ repository.OrderRepository = (*orderRepo)(nil)

type orderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepo(pool *pgxpool.Pool) *orderRepo {
	return &orderRepo{pool: pool}
}

const orderColumns = `id, user_id, plan, amount_cents, currency, status, billing_cycle, provider, external_ref, created_at, updated_at, paid_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	o := &model.Order{}
	if err := row.Scan(&o.ID, &o.UserID, &o.Plan, &o.AmountMinor, &o.Currency, &o.Status, &o.BillingCycle, &o.Provider, &o.ExternalRef, &o.CreatedAt, &o.UpdatedAt, &o.PaidAt); err != nil {
		return nil, mapScanErr(err)
	}
	return o, nil
}

func (r *orderRepo) Create(ctx context.Context, tx repository.Tx, o *model.Order) error {
	if o.IsZero() {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO orders (` + orderColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12);`

	_, err := execSQL(ctx, r.pool, tx, q, o.ID, o.UserID, string(o.Plan), o.AmountMinor, o.Currency, string(o.Status), o.BillingCycle, o.Provider, o.ExternalRef, o.CreatedAt, o.UpdatedAt, o.PaidAt)
	return mapExecErr(err)
}

func (r *orderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	q := lockClause(`SELECT `+orderColumns+` FROM orders WHERE id=$1`, tx) + ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanOrder(row)
}

// FindByReference prefers the external reference and falls back to the order id.
func (r *orderRepo) FindByReference(ctx context.Context, tx repository.Tx, externalRef, orderID string) (*model.Order, error) {
	if externalRef != "" {
		q := lockClause(`SELECT `+orderColumns+` FROM orders WHERE external_ref=$1 LIMIT 1`, tx) + ";"
		row, err := pickRow(ctx, r.pool, tx, q, externalRef)
		if err != nil {
			return nil, err
		}
		o, err := scanOrder(row)
		if err != domain.ErrNotFound {
			return o, err
		}
	}
	if orderID == "" {
		return nil, domain.ErrNotFound
	}
	return r.FindByID(ctx, tx, orderID)
}

func (r *orderRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, limit)
	if err != nil {
		return nil, mapExecErr(err)
	}
	defer rows.Close()

	var out []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

// TransitionFromPending updates status only while the row is still pending.
func (r *orderRepo) TransitionFromPending(ctx context.Context, tx repository.Tx, id string, status model.OrderStatus, paidAt *time.Time) (bool, error) {
	const q = `
    UPDATE orders
       SET status = $2,
           paid_at = COALESCE($3, paid_at),
           updated_at = NOW()
     WHERE id = $1
       AND status = 'pending'`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status), paidAt)
	if err != nil {
		return false, mapExecErr(err)
	}
	return cmd.RowsAffected() >= 1, nil
}
