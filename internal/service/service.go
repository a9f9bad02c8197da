package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dailit/dailit-server/internal/aggregate"
	"github.com/dailit/dailit-server/internal/models"
	"github.com/dailit/dailit-server/internal/repository"
	"github.com/dailit/dailit-server/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service defines all the business logic operations
type Service interface {
	// Authentication
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	EnsureAdmin(ctx context.Context, req models.SignUpRequest) (bool, error)
	AuthorizeAdmin(ctx context.Context, adminID string) (*models.Admin, error)

	// Collectors
	ListManagers(ctx context.Context, activeOnly bool) ([]models.Manager, error)
	CreateManager(ctx context.Context, req models.ManagerRequest) (*models.Manager, error)
	UpdateManager(ctx context.Context, id string, req models.ManagerRequest) (*models.Manager, error)
	SetManagerActive(ctx context.Context, id string, active bool) (*models.Manager, error)
	ListResellers(ctx context.Context, filter repository.ResellerFilter) ([]models.Reseller, error)
	CreateReseller(ctx context.Context, req models.ResellerRequest) (*models.Reseller, error)
	UpdateReseller(ctx context.Context, id string, req models.ResellerRequest) (*models.Reseller, error)
	SetResellerActive(ctx context.Context, id string, active bool) (*models.Reseller, error)

	// Subscription users
	ListSubscriptionUsers(ctx context.Context, filter UserListFilter) ([]models.SubscriptionUser, error)
	GetSubscriptionUser(ctx context.Context, id string) (*models.SubscriptionUser, error)
	CreateSubscriptionUser(ctx context.Context, req models.CreateSubscriptionUserRequest) (*CreateUserResult, error)
	UpdateSubscriptionUser(ctx context.Context, id string, req models.UpdateSubscriptionUserRequest) (*models.SubscriptionUser, error)
	DeleteSubscriptionUser(ctx context.Context, id string) error
	ParentAccountHierarchy(ctx context.Context) []aggregate.ParentAccountNode
	ExpiringSoon(ctx context.Context) ([]aggregate.ExpiringUser, error)
	RefreshStatuses(ctx context.Context) (int, error)

	// Ledger
	ListPayments(ctx context.Context, userID string) ([]models.Payment, error)
	CreatePayment(ctx context.Context, req models.CreatePaymentRequest) (*models.Payment, error)
	PaymentSummary(ctx context.Context) ([]aggregate.PaymentSummary, error)
	ListSubmissions(ctx context.Context, managerID string) ([]models.Submission, error)
	CreateSubmission(ctx context.Context, req models.CreateSubmissionRequest) (*models.Submission, error)
	Reconciliation(ctx context.Context) ([]aggregate.ReconciliationSummary, error)

	// Intake
	SubmitLead(ctx context.Context, req models.LeadRequest) (*models.Lead, error)
	ListLeads(ctx context.Context, status string) ([]models.Lead, error)
	UpdateLead(ctx context.Context, id string, req models.UpdateLeadRequest) (*models.Lead, error)
	DeleteLead(ctx context.Context, id string) error
	SubmitContact(ctx context.Context, req models.ContactRequest) (*models.ContactSubmission, error)
	ListContacts(ctx context.Context, status string) ([]models.ContactSubmission, error)
	UpdateContact(ctx context.Context, id string, req models.UpdateContactRequest) (*models.ContactSubmission, error)
	DeleteContact(ctx context.Context, id string) error
}

// Options tunes DefaultService
type Options struct {
	JWTSecret       string
	SoonWindowDays  int
	ReparentOrphans bool
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo            repository.Repository
	logger          *utils.Logger
	jwtSecret       []byte
	tokenDuration   time.Duration
	soonWindowDays  int
	reparentOrphans bool
	now             func() time.Time
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, logger *utils.Logger, opts Options) *DefaultService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	window := opts.SoonWindowDays
	if window < 0 {
		window = aggregate.DefaultSoonWindowDays
	}
	return &DefaultService{
		repo:            repo,
		logger:          logger,
		jwtSecret:       []byte(opts.JWTSecret),
		tokenDuration:   24 * time.Hour, // 24 hours token validity
		soonWindowDays:  window,
		reparentOrphans: opts.ReparentOrphans,
		now:             now,
	}
}

// Authentication methods
func (s *DefaultService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error) {
	// Check if admin already exists
	existing, err := s.repo.GetAdminByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking admin existence: %w", err)
	}

	if existing != nil {
		return nil, fmt.Errorf("admin with this email already exists: %w", ErrConflict)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	admin := &models.Admin{
		ID:       uuid.New().String(),
		Email:    req.Email,
		Name:     req.Name,
		Password: string(hashedPassword),
	}

	if err := s.repo.CreateAdmin(ctx, admin); err != nil {
		return nil, fmt.Errorf("error creating admin: %w", err)
	}

	return &models.AuthResponse{
		Status: "success",
		UserID: admin.ID,
		Email:  admin.Email,
		Name:   admin.Name,
	}, nil
}

// EnsureAdmin creates the bootstrap admin when no admin with that email
// exists yet. It reports whether an account was created.
func (s *DefaultService) EnsureAdmin(ctx context.Context, req models.SignUpRequest) (bool, error) {
	_, err := s.SignUp(ctx, req)
	if errors.Is(err, ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	admin, err := s.repo.GetAdminByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error getting admin: %w", err)
	}

	if admin == nil {
		return nil, ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)); err != nil {
		return nil, ErrUnauthorized
	}

	token, err := s.generateJWT(admin)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.AuthResponse{
		Status:    "success",
		UserID:    admin.ID,
		Email:     admin.Email,
		Name:      admin.Name,
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
	}, nil
}

// AuthorizeAdmin resolves the admin named by a token subject. Tokens issued to
// an admin that has since been removed are rejected with ErrUnknownAdmin.
func (s *DefaultService) AuthorizeAdmin(ctx context.Context, adminID string) (*models.Admin, error) {
	admin, err := s.repo.GetAdminByID(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("error getting admin: %w", err)
	}
	if admin == nil {
		return nil, ErrUnknownAdmin
	}
	return admin, nil
}

// Helper methods
func (s *DefaultService) generateJWT(admin *models.Admin) (string, error) {
	issuedAt := s.now()
	claims := jwt.MapClaims{
		"sub": admin.ID, // subject
		"exp": issuedAt.Add(s.tokenDuration).Unix(),
		"iat": issuedAt.Unix(), // issued at
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// today is the service clock truncated to a UTC calendar date.
func (s *DefaultService) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, invalid("%s must be a date in YYYY-MM-DD format", field)
	}
	return t, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
