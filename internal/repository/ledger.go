package repository

import (
	"context"

	"github.com/dailit/dailit-server/internal/models"
)

// Payments and submissions are append-only.

func (r *PostgresRepository) ListPayments(ctx context.Context, userID string) ([]models.Payment, error) {
	query := `
		SELECT * FROM payments
		WHERE ($1 = '' OR user_id = $1)
		ORDER BY payment_date DESC, created_at DESC
	`

	payments := []models.Payment{}
	if err := r.db.SelectContext(ctx, &payments, query, userID); err != nil {
		return nil, classify("list payments", err)
	}
	return payments, nil
}

func (r *PostgresRepository) CreatePayment(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO payments (id, user_id, amount, payment_date, payment_method, collected_by_id, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *
	`

	err := r.db.GetContext(ctx, p, query,
		newID(p.ID), p.UserID, p.Amount, p.PaymentDate, p.PaymentMethod, p.CollectedByID, p.Notes, r.now())
	return classify("create payment", err)
}

func (r *PostgresRepository) ListSubmissions(ctx context.Context, managerID string) ([]models.Submission, error) {
	query := `
		SELECT * FROM submissions
		WHERE ($1 = '' OR manager_id = $1)
		ORDER BY submission_date DESC, created_at DESC
	`

	submissions := []models.Submission{}
	if err := r.db.SelectContext(ctx, &submissions, query, managerID); err != nil {
		return nil, classify("list submissions", err)
	}
	return submissions, nil
}

func (r *PostgresRepository) CreateSubmission(ctx context.Context, s *models.Submission) error {
	query := `
		INSERT INTO submissions (id, manager_id, reseller_id, amount, submission_date, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	`

	err := r.db.GetContext(ctx, s, query,
		newID(s.ID), s.ManagerID, s.ResellerID, s.Amount, s.SubmissionDate, s.Notes, r.now())
	return classify("create submission", err)
}
