package repository

import (
	"context"

	"github.com/dailit/dailit-server/internal/models"
)

func (r *PostgresRepository) CreateLead(ctx context.Context, l *models.Lead) error {
	query := `
		INSERT INTO leads (id, name, email, phone, company, service_interest, message, source, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING *
	`

	now := r.now()
	err := r.db.GetContext(ctx, l, query,
		newID(l.ID), l.Name, l.Email, l.Phone, l.Company, l.ServiceInterest, l.Message, l.Source,
		l.Status, l.Notes, now, now)
	return classify("create lead", err)
}

func (r *PostgresRepository) ListLeads(ctx context.Context, status string) ([]models.Lead, error) {
	query := `SELECT * FROM leads WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC`

	leads := []models.Lead{}
	if err := r.db.SelectContext(ctx, &leads, query, status); err != nil {
		return nil, classify("list leads", err)
	}
	return leads, nil
}

// UpdateLead sets the status, and the notes when notes is not empty.
func (r *PostgresRepository) UpdateLead(ctx context.Context, id, status, notes string) (*models.Lead, error) {
	query := `
		UPDATE leads
		SET status = $2, notes = COALESCE(NULLIF($3, ''), notes), updated_at = $4
		WHERE id = $1
		RETURNING *
	`

	var l models.Lead
	if err := r.db.GetContext(ctx, &l, query, id, status, notes, r.now()); err != nil {
		return nil, classify("update lead", err)
	}
	return &l, nil
}

func (r *PostgresRepository) DeleteLead(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	return mustAffect("delete lead", res, err)
}

func (r *PostgresRepository) CreateContact(ctx context.Context, c *models.ContactSubmission) error {
	query := `
		INSERT INTO contact_submissions (id, name, email, phone, subject, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING *
	`

	now := r.now()
	err := r.db.GetContext(ctx, c, query,
		newID(c.ID), c.Name, c.Email, c.Phone, c.Subject, c.Message, c.Status, now, now)
	return classify("create contact", err)
}

func (r *PostgresRepository) ListContacts(ctx context.Context, status string) ([]models.ContactSubmission, error) {
	query := `SELECT * FROM contact_submissions WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC`

	contacts := []models.ContactSubmission{}
	if err := r.db.SelectContext(ctx, &contacts, query, status); err != nil {
		return nil, classify("list contacts", err)
	}
	return contacts, nil
}

func (r *PostgresRepository) UpdateContactStatus(ctx context.Context, id, status string) (*models.ContactSubmission, error) {
	query := `UPDATE contact_submissions SET status = $2, updated_at = $3 WHERE id = $1 RETURNING *`

	var c models.ContactSubmission
	if err := r.db.GetContext(ctx, &c, query, id, status, r.now()); err != nil {
		return nil, classify("update contact", err)
	}
	return &c, nil
}

func (r *PostgresRepository) DeleteContact(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contact_submissions WHERE id = $1`, id)
	return mustAffect("delete contact", res, err)
}
