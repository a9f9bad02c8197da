package repository

import (
	"context"

	"github.com/dailit/dailit-server/internal/models"
)

// Managers and resellers are never deleted, only deactivated, so that
// reconciliation keeps resolving their historical payments.

func (r *PostgresRepository) ListManagers(ctx context.Context, activeOnly bool) ([]models.Manager, error) {
	query := `SELECT * FROM managers`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name ASC`

	managers := []models.Manager{}
	if err := r.db.SelectContext(ctx, &managers, query); err != nil {
		return nil, classify("list managers", err)
	}
	return managers, nil
}

func (r *PostgresRepository) GetManager(ctx context.Context, id string) (*models.Manager, error) {
	var m models.Manager
	found, err := r.get(ctx, "get manager", &m, `SELECT * FROM managers WHERE id = $1`, id)
	if err != nil || !found {
		return nil, err
	}
	return &m, nil
}

func (r *PostgresRepository) CreateManager(ctx context.Context, m *models.Manager) error {
	query := `
		INSERT INTO managers (id, name, email, phone, is_active, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *
	`

	now := r.now()
	err := r.db.GetContext(ctx, m, query,
		newID(m.ID), m.Name, m.Email, m.Phone, m.IsActive, m.Notes, now, now)
	return classify("create manager", err)
}

func (r *PostgresRepository) UpdateManager(ctx context.Context, m *models.Manager) error {
	query := `
		UPDATE managers
		SET name = $2, email = $3, phone = $4, notes = $5, updated_at = $6
		WHERE id = $1
		RETURNING *
	`

	err := r.db.GetContext(ctx, m, query, m.ID, m.Name, m.Email, m.Phone, m.Notes, r.now())
	return classify("update manager", err)
}

func (r *PostgresRepository) SetManagerActive(ctx context.Context, id string, active bool) (*models.Manager, error) {
	query := `UPDATE managers SET is_active = $2, updated_at = $3 WHERE id = $1 RETURNING *`

	var m models.Manager
	if err := r.db.GetContext(ctx, &m, query, id, active, r.now()); err != nil {
		return nil, classify("set manager active", err)
	}
	return &m, nil
}

func (r *PostgresRepository) ListResellers(ctx context.Context, filter ResellerFilter) ([]models.Reseller, error) {
	query := `SELECT * FROM resellers WHERE ($1 = '' OR manager_id = $1) AND (NOT $2 OR is_active) ORDER BY name ASC`

	resellers := []models.Reseller{}
	if err := r.db.SelectContext(ctx, &resellers, query, filter.ManagerID, filter.ActiveOnly); err != nil {
		return nil, classify("list resellers", err)
	}
	return resellers, nil
}

func (r *PostgresRepository) GetReseller(ctx context.Context, id string) (*models.Reseller, error) {
	var rs models.Reseller
	found, err := r.get(ctx, "get reseller", &rs, `SELECT * FROM resellers WHERE id = $1`, id)
	if err != nil || !found {
		return nil, err
	}
	return &rs, nil
}

func (r *PostgresRepository) CreateReseller(ctx context.Context, rs *models.Reseller) error {
	query := `
		INSERT INTO resellers (id, manager_id, name, email, phone, is_active, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING *
	`

	now := r.now()
	err := r.db.GetContext(ctx, rs, query,
		newID(rs.ID), rs.ManagerID, rs.Name, rs.Email, rs.Phone, rs.IsActive, rs.Notes, now, now)
	return classify("create reseller", err)
}

func (r *PostgresRepository) UpdateReseller(ctx context.Context, rs *models.Reseller) error {
	query := `
		UPDATE resellers
		SET manager_id = $2, name = $3, email = $4, phone = $5, notes = $6, updated_at = $7
		WHERE id = $1
		RETURNING *
	`

	err := r.db.GetContext(ctx, rs, query, rs.ID, rs.ManagerID, rs.Name, rs.Email, rs.Phone, rs.Notes, r.now())
	return classify("update reseller", err)
}

func (r *PostgresRepository) SetResellerActive(ctx context.Context, id string, active bool) (*models.Reseller, error) {
	query := `UPDATE resellers SET is_active = $2, updated_at = $3 WHERE id = $1 RETURNING *`

	var rs models.Reseller
	if err := r.db.GetContext(ctx, &rs, query, id, active, r.now()); err != nil {
		return nil, classify("set reseller active", err)
	}
	return &rs, nil
}
