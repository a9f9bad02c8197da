package repository

import (
	"context"
	"database/sql"

	"github.com/dailit/dailit-server/internal/models"
)

// Subscription users are soft deleted: deleted_at hides them from listings
// while their payments stay visible to reconciliation.

func (r *PostgresRepository) ListSubscriptionUsers(ctx context.Context, filter UserFilter) ([]models.SubscriptionUser, error) {
	query := `
		SELECT * FROM subscription_users
		WHERE ($1 = '' OR manager_id = $1)
		  AND ($2 = '' OR reseller_id = $2)
		  AND ($3 OR deleted_at IS NULL)
		ORDER BY expiry_date ASC, name ASC
	`

	users := []models.SubscriptionUser{}
	err := r.db.SelectContext(ctx, &users, query, filter.ManagerID, filter.ResellerID, filter.IncludeDeleted)
	if err != nil {
		return nil, classify("list subscription users", err)
	}
	return users, nil
}

func (r *PostgresRepository) GetSubscriptionUser(ctx context.Context, id string) (*models.SubscriptionUser, error) {
	var u models.SubscriptionUser
	found, err := r.get(ctx, "get subscription user", &u,
		`SELECT * FROM subscription_users WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRepository) CreateSubscriptionUser(ctx context.Context, u *models.SubscriptionUser) error {
	query := `
		INSERT INTO subscription_users (
			id, name, email, phone, subscription_start_date, renewal_date, expiry_date, status,
			manager_id, reseller_id, parent_account_id, voip_number, notes, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING *
	`

	now := r.now()
	err := r.db.GetContext(ctx, u, query,
		newID(u.ID), u.Name, u.Email, u.Phone, u.SubscriptionStartDate, u.RenewalDate, u.ExpiryDate, u.Status,
		u.ManagerID, u.ResellerID, u.ParentAccountID, u.VoipNumber, u.Notes, now, now)
	return classify("create subscription user", err)
}

func (r *PostgresRepository) UpdateSubscriptionUser(ctx context.Context, u *models.SubscriptionUser) error {
	query := `
		UPDATE subscription_users
		SET name = $2, email = $3, phone = $4, subscription_start_date = $5, renewal_date = $6,
			expiry_date = $7, status = $8, manager_id = $9, reseller_id = $10,
			parent_account_id = $11, voip_number = $12, notes = $13, updated_at = $14
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING *
	`

	err := r.db.GetContext(ctx, u, query,
		u.ID, u.Name, u.Email, u.Phone, u.SubscriptionStartDate, u.RenewalDate,
		u.ExpiryDate, u.Status, u.ManagerID, u.ResellerID,
		u.ParentAccountID, u.VoipNumber, u.Notes, r.now())
	return classify("update subscription user", err)
}

func (r *PostgresRepository) SoftDeleteSubscriptionUser(ctx context.Context, id string) error {
	now := r.now()
	res, err := r.db.ExecContext(ctx,
		`UPDATE subscription_users SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, now)
	return mustAffect("delete subscription user", res, err)
}

// UpdateSubscriptionStatuses rewrites the stored status of each user id in
// one transaction and returns how many rows changed.
func (r *PostgresRepository) UpdateSubscriptionStatuses(ctx context.Context, statuses map[string]string) (int, error) {
	if len(statuses) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, classify("refresh statuses", err)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	now := r.now()
	updated := 0
	var (
		res sql.Result
		n   int64
	)
	for id, status := range statuses {
		res, err = tx.ExecContext(ctx,
			`UPDATE subscription_users SET status = $2, updated_at = $3 WHERE id = $1 AND status <> $2`,
			id, status, now)
		if err != nil {
			return 0, classify("refresh statuses", err)
		}
		if n, err = res.RowsAffected(); err != nil {
			return 0, classify("refresh statuses", err)
		}
		updated += int(n)
	}

	if err = tx.Commit(); err != nil {
		return 0, classify("refresh statuses", err)
	}
	return updated, nil
}
