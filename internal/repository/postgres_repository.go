package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dailit/dailit-server/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// UserFilter narrows subscription user listings
type UserFilter struct {
	ManagerID      string
	ResellerID     string
	IncludeDeleted bool
}

// ResellerFilter narrows reseller listings
type ResellerFilter struct {
	ManagerID  string
	ActiveOnly bool
}

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// Admin operations
	CreateAdmin(ctx context.Context, admin *models.Admin) error
	GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	GetAdminByID(ctx context.Context, id string) (*models.Admin, error)

	// Manager operations
	ListManagers(ctx context.Context, activeOnly bool) ([]models.Manager, error)
	GetManager(ctx context.Context, id string) (*models.Manager, error)
	CreateManager(ctx context.Context, manager *models.Manager) error
	UpdateManager(ctx context.Context, manager *models.Manager) error
	SetManagerActive(ctx context.Context, id string, active bool) (*models.Manager, error)

	// Reseller operations
	ListResellers(ctx context.Context, filter ResellerFilter) ([]models.Reseller, error)
	GetReseller(ctx context.Context, id string) (*models.Reseller, error)
	CreateReseller(ctx context.Context, reseller *models.Reseller) error
	UpdateReseller(ctx context.Context, reseller *models.Reseller) error
	SetResellerActive(ctx context.Context, id string, active bool) (*models.Reseller, error)

	// Subscription user operations
	ListSubscriptionUsers(ctx context.Context, filter UserFilter) ([]models.SubscriptionUser, error)
	GetSubscriptionUser(ctx context.Context, id string) (*models.SubscriptionUser, error)
	CreateSubscriptionUser(ctx context.Context, user *models.SubscriptionUser) error
	UpdateSubscriptionUser(ctx context.Context, user *models.SubscriptionUser) error
	SoftDeleteSubscriptionUser(ctx context.Context, id string) error
	UpdateSubscriptionStatuses(ctx context.Context, statuses map[string]string) (int, error)

	// Ledger operations
	ListPayments(ctx context.Context, userID string) ([]models.Payment, error)
	CreatePayment(ctx context.Context, payment *models.Payment) error
	ListSubmissions(ctx context.Context, managerID string) ([]models.Submission, error)
	CreateSubmission(ctx context.Context, submission *models.Submission) error

	// Intake operations
	CreateLead(ctx context.Context, lead *models.Lead) error
	ListLeads(ctx context.Context, status string) ([]models.Lead, error)
	UpdateLead(ctx context.Context, id, status, notes string) (*models.Lead, error)
	DeleteLead(ctx context.Context, id string) error
	CreateContact(ctx context.Context, contact *models.ContactSubmission) error
	ListContacts(ctx context.Context, status string) ([]models.ContactSubmission, error)
	UpdateContactStatus(ctx context.Context, id, status string) (*models.ContactSubmission, error)
	DeleteContact(ctx context.Context, id string) error
}

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func newID(id string) string {
	if id == "" {
		return uuid.New().String()
	}
	return id
}

// get runs a single-row query. A missing row yields (false, nil).
func (r *PostgresRepository) get(ctx context.Context, op string, dest interface{}, query string, args ...interface{}) (bool, error) {
	err := r.db.GetContext(ctx, dest, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, classify(op, err)
	}
	return true, nil
}

// mustAffect reports ErrNotFound when an exec touched no rows.
func mustAffect(op string, res sql.Result, err error) error {
	if err != nil {
		return classify(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(op, err)
	}
	if n == 0 {
		return classify(op, sql.ErrNoRows)
	}
	return nil
}

// Admin repository methods
func (r *PostgresRepository) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	query := `
		INSERT INTO admins (id, email, name, password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	admin.ID = newID(admin.ID)
	now := r.now()
	admin.CreatedAt = now
	admin.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		admin.ID, admin.Email, admin.Name, admin.Password, admin.CreatedAt, admin.UpdatedAt)

	return classify("create admin", err)
}

func (r *PostgresRepository) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	found, err := r.get(ctx, "get admin", &admin, `SELECT * FROM admins WHERE email = $1`, email)
	if err != nil || !found {
		return nil, err
	}
	return &admin, nil
}

func (r *PostgresRepository) GetAdminByID(ctx context.Context, id string) (*models.Admin, error) {
	var admin models.Admin
	found, err := r.get(ctx, "get admin", &admin, `SELECT * FROM admins WHERE id = $1`, id)
	if err != nil || !found {
		return nil, err
	}
	return &admin, nil
}
