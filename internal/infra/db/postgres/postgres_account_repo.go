package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4/pgxpool"

	"hosting-payments/internal/domain"
	"hosting-payments/internal/domain/model"
	"hosting-payments/internal/domain/ports/repository"
)

var (
	_ repository.ProfileRepository      = (*profileRepo)(nil)
	_ repository.NotificationRepository = (*notificationRepo)(nil)
	_ repository.ActivityLogRepository  = (*activityLogRepo)(nil)
)

// -----------------------------
// Profiles
// -----------------------------

type profileRepo struct{ pool *pgxpool.Pool }

func NewProfileRepo(pool *pgxpool.Pool) *profileRepo {
	return &profileRepo{pool: pool}
}

func (r *profileRepo) FindByID(ctx context.Context, tx repository.Tx, userID string) (*model.Profile, error) {
	const q = `SELECT id, COALESCE(email, ''), subscription_plan, updated_at FROM profiles WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	p := &model.Profile{}
	if err := row.Scan(&p.ID, &p.Email, &p.SubscriptionPlan, &p.UpdatedAt); err != nil {
		return nil, mapScanErr(err)
	}
	return p, nil
}

func (r *profileRepo) UpdateSubscriptionPlan(ctx context.Context, tx repository.Tx, userID string, plan model.Plan) error {
	const q = `UPDATE profiles SET subscription_plan=$2, updated_at=NOW() WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, userID, string(plan))
	if err != nil {
		return mapExecErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Upsert inserts or replaces a profile. Profiles are owned by the auth provider;
// this exists for local environment setup and tests.
func (r *profileRepo) Upsert(ctx context.Context, tx repository.Tx, p *model.Profile) error {
	const q = `
		INSERT INTO profiles (id, email, subscription_plan, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, NOW())
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email, subscription_plan = EXCLUDED.subscription_plan, updated_at = NOW();`
	plan := p.SubscriptionPlan
	if plan == "" {
		plan = model.PlanFree
	}
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Email, string(plan))
	return mapExecErr(err)
}

// -----------------------------
// Notifications
// -----------------------------

type notificationRepo struct{ pool *pgxpool.Pool }

func NewNotificationRepo(pool *pgxpool.Pool) *notificationRepo {
	return &notificationRepo{pool: pool}
}

func (r *notificationRepo) Create(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	const q = `
INSERT INTO notifications (id, user_id, type, title, message, read, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);`
	_, err := execSQL(ctx, r.pool, tx, q, n.ID, n.UserID, n.Type, n.Title, n.Message, n.Read, n.CreatedAt)
	return mapExecErr(err)
}

func (r *notificationRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Notification, error) {
	const q = `SELECT id, user_id, type, title, message, read, created_at FROM notifications WHERE user_id=$1 ORDER BY created_at ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, mapExecErr(err)
	}
	defer rows.Close()

	var out []*model.Notification
	for rows.Next() {
		n := new(model.Notification)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, mapScanErr(err)
		}
		out = append(out, n)
	}
	return out, nil
}

// -----------------------------
// Activity log (append-only)
// -----------------------------

type activityLogRepo struct{ pool *pgxpool.Pool }

func NewActivityLogRepo(pool *pgxpool.Pool) *activityLogRepo {
	return &activityLogRepo{pool: pool}
}

func (r *activityLogRepo) Append(ctx context.Context, tx repository.Tx, e *model.ActivityLogEntry) error {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `INSERT INTO activity_log (id, user_id, action, details, created_at) VALUES ($1,$2,$3,$4,$5);`
	_, err = execSQL(ctx, r.pool, tx, q, e.ID, e.UserID, e.Action, string(details), e.CreatedAt)
	return mapExecErr(err)
}

func (r *activityLogRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.ActivityLogEntry, error) {
	const q = `SELECT id, user_id, action, details, created_at FROM activity_log WHERE user_id=$1 ORDER BY created_at ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, mapExecErr(err)
	}
	defer rows.Close()

	var out []*model.ActivityLogEntry
	for rows.Next() {
		e := new(model.ActivityLogEntry)
		var raw []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &raw, &e.CreatedAt); err != nil {
			return nil, mapScanErr(err)
		}
		if err := json.Unmarshal(raw, &e.Details); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, e)
	}
	return out, nil
}
