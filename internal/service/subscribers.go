package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dailit/dailit-server/internal/aggregate"
	"github.com/dailit/dailit-server/internal/models"
	"github.com/dailit/dailit-server/internal/repository"
	"github.com/dailit/dailit-server/internal/utils"
	"github.com/shopspring/decimal"
)

// Outcomes of CreateSubscriptionUser
const (
	OutcomeSuccess = "success"
	// OutcomePartial means the user exists but its initial payment was not
	// recorded. The user row is not rolled back.
	OutcomePartial = "partial"
)

// CreateUserResult reports what CreateSubscriptionUser managed to write
type CreateUserResult struct {
	Outcome        string                   `json:"outcome"`
	User           *models.SubscriptionUser `json:"user"`
	PaymentCreated bool                     `json:"paymentCreated"`
	Payment        *models.Payment          `json:"payment,omitempty"`
	PaymentError   string                   `json:"paymentError,omitempty"`
}

// UserListFilter narrows ListSubscriptionUsers. Status is matched against the
// computed status, not the stored one.
type UserListFilter struct {
	ManagerID  string
	ResellerID string
	Status     string
}

var userStatuses = []string{models.StatusActive, models.StatusExpiringSoon, models.StatusExpired}

func (s *DefaultService) classify(u *models.SubscriptionUser) {
	u.Status = aggregate.ClassifyExpiry(*u, s.now(), s.soonWindowDays).Status
}

// userFromFields validates the editable fields and copies them onto u.
func (s *DefaultService) userFromFields(ctx context.Context, u *models.SubscriptionUser, f models.SubscriptionUserFields) error {
	if strings.TrimSpace(f.Name) == "" {
		return invalid("name is required")
	}

	start, err := parseDate("subscriptionStartDate", f.SubscriptionStartDate)
	if err != nil {
		return err
	}
	expiry, err := parseDate("expiryDate", f.ExpiryDate)
	if err != nil {
		return err
	}
	if expiry.Before(start) {
		return invalid("expiryDate must not be before subscriptionStartDate")
	}

	var renewal *time.Time
	if f.RenewalDate != "" {
		r, err := parseDate("renewalDate", f.RenewalDate)
		if err != nil {
			return err
		}
		renewal = &r
	}

	var voip *string
	if f.VoipNumber != "" {
		n, err := utils.NormalizePhoneNumber(f.VoipNumber, utils.DefaultRegion)
		if err != nil {
			return invalid("voipNumber is not a valid phone number")
		}
		voip = &n
	}

	if f.ManagerID != "" {
		m, err := s.repo.GetManager(ctx, f.ManagerID)
		if err != nil {
			return fmt.Errorf("error getting manager: %w", err)
		}
		if m == nil {
			return invalid("manager %s does not exist", f.ManagerID)
		}
	}
	if f.ResellerID != "" {
		r, err := s.repo.GetReseller(ctx, f.ResellerID)
		if err != nil {
			return fmt.Errorf("error getting reseller: %w", err)
		}
		if r == nil {
			return invalid("reseller %s does not exist", f.ResellerID)
		}
		if f.ManagerID != "" && r.ManagerID != f.ManagerID {
			return invalid("reseller %s does not belong to manager %s", f.ResellerID, f.ManagerID)
		}
	}
	if f.ParentAccountID != "" {
		if f.ParentAccountID == u.ID {
			return invalid("a user cannot be its own parent account")
		}
		p, err := s.repo.GetSubscriptionUser(ctx, f.ParentAccountID)
		if err != nil {
			return fmt.Errorf("error getting parent account: %w", err)
		}
		if p == nil {
			return invalid("parent account %s does not exist", f.ParentAccountID)
		}
	}

	u.Name = strings.TrimSpace(f.Name)
	u.Email = f.Email
	u.Phone = f.Phone
	u.SubscriptionStartDate = start
	u.RenewalDate = renewal
	u.ExpiryDate = expiry
	u.ManagerID = optional(f.ManagerID)
	u.ResellerID = optional(f.ResellerID)
	u.ParentAccountID = optional(f.ParentAccountID)
	u.VoipNumber = voip
	u.Notes = f.Notes
	s.classify(u)
	return nil
}

// CreateSubscriptionUser inserts the user and, when an initial payment is
// given, a payment collected by the user's manager (or "admin"). The user row
// is the part that must succeed; a failed payment insert is logged and
// reported as OutcomePartial.
func (s *DefaultService) CreateSubscriptionUser(ctx context.Context, req models.CreateSubscriptionUserRequest) (*CreateUserResult, error) {
	amount := decimal.Zero
	if req.InitialPayment != nil {
		amount = *req.InitialPayment
	}
	if amount.IsNegative() {
		return nil, invalid("initialPayment must not be negative")
	}
	method := req.PaymentMethod
	if method == "" {
		method = models.PaymentCash
	}
	if !oneOf(method, paymentMethods) {
		return nil, invalid("paymentMethod must be one of %s", strings.Join(paymentMethods, ", "))
	}

	user := &models.SubscriptionUser{}
	if err := s.userFromFields(ctx, user, req.SubscriptionUserFields); err != nil {
		return nil, err
	}

	if err := s.repo.CreateSubscriptionUser(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating subscription user: %w", err)
	}
	s.classify(user)

	result := &CreateUserResult{Outcome: OutcomeSuccess, User: user}
	if !amount.IsPositive() {
		return result, nil
	}

	collector := models.AdminCollectorID
	if user.ManagerID != nil {
		collector = *user.ManagerID
	}
	payment := &models.Payment{
		UserID:        user.ID,
		Amount:        amount,
		PaymentDate:   s.today(),
		PaymentMethod: method,
		CollectedByID: collector,
		Notes:         "Initial payment",
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		s.logger.LogError("service", "CreateSubscriptionUser", "initial payment not recorded",
			map[string]string{"userId": user.ID, "amount": amount.String()}, err)
		result.Outcome = OutcomePartial
		result.PaymentError = "The subscriber was created but the initial payment could not be recorded."
		return result, nil
	}

	result.PaymentCreated = true
	result.Payment = payment
	return result, nil
}

func (s *DefaultService) GetSubscriptionUser(ctx context.Context, id string) (*models.SubscriptionUser, error) {
	u, err := s.repo.GetSubscriptionUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting subscription user: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("subscription user %s: %w", id, ErrNotFound)
	}
	s.classify(u)
	return u, nil
}

func (s *DefaultService) ListSubscriptionUsers(ctx context.Context, filter UserListFilter) ([]models.SubscriptionUser, error) {
	if filter.Status != "" && !oneOf(filter.Status, userStatuses) {
		return nil, invalid("status must be one of %s", strings.Join(userStatuses, ", "))
	}

	users, err := s.repo.ListSubscriptionUsers(ctx, repository.UserFilter{
		ManagerID:  filter.ManagerID,
		ResellerID: filter.ResellerID,
	})
	if err != nil {
		return nil, fmt.Errorf("error listing subscription users: %w", err)
	}

	users = aggregate.ApplyExpiry(users, s.now(), s.soonWindowDays)
	if filter.Status == "" {
		return users, nil
	}

	out := make([]models.SubscriptionUser, 0, len(users))
	for _, u := range users {
		if u.Status == filter.Status {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *DefaultService) UpdateSubscriptionUser(ctx context.Context, id string, req models.UpdateSubscriptionUserRequest) (*models.SubscriptionUser, error) {
	user, err := s.repo.GetSubscriptionUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting subscription user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("subscription user %s: %w", id, ErrNotFound)
	}

	if err := s.userFromFields(ctx, user, req.SubscriptionUserFields); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateSubscriptionUser(ctx, user); err != nil {
		return nil, fmt.Errorf("error updating subscription user: %w", err)
	}
	s.classify(user)
	return user, nil
}

// DeleteSubscriptionUser hides the user. Its payments stay in the ledger.
func (s *DefaultService) DeleteSubscriptionUser(ctx context.Context, id string) error {
	if err := s.repo.SoftDeleteSubscriptionUser(ctx, id); err != nil {
		return fmt.Errorf("error deleting subscription user: %w", err)
	}
	return nil
}

// ParentAccountHierarchy never fails: a store error is logged and yields an
// empty hierarchy so the dashboard still renders.
func (s *DefaultService) ParentAccountHierarchy(ctx context.Context) []aggregate.ParentAccountNode {
	users, err := s.repo.ListSubscriptionUsers(ctx, repository.UserFilter{})
	if err != nil {
		s.logger.LogError("service", "ParentAccountHierarchy", "listing subscription users", nil, err)
		return []aggregate.ParentAccountNode{}
	}
	return aggregate.BuildHierarchy(aggregate.AccountRefs(users), aggregate.HierarchyOptions{
		ReparentOrphans: s.reparentOrphans,
	})
}

func (s *DefaultService) ExpiringSoon(ctx context.Context) ([]aggregate.ExpiringUser, error) {
	users, err := s.repo.ListSubscriptionUsers(ctx, repository.UserFilter{})
	if err != nil {
		return nil, fmt.Errorf("error listing subscription users: %w", err)
	}
	out := aggregate.ExpiringSoon(users, s.now(), s.soonWindowDays)
	if out == nil {
		out = []aggregate.ExpiringUser{}
	}
	return out, nil
}

// RefreshStatuses rewrites stored statuses that drifted from the computed
// value and returns how many rows changed.
func (s *DefaultService) RefreshStatuses(ctx context.Context) (int, error) {
	users, err := s.repo.ListSubscriptionUsers(ctx, repository.UserFilter{})
	if err != nil {
		return 0, fmt.Errorf("error listing subscription users: %w", err)
	}

	stale := aggregate.StaleStatuses(users, s.now(), s.soonWindowDays)
	n, err := s.repo.UpdateSubscriptionStatuses(ctx, stale)
	if err != nil {
		return 0, fmt.Errorf("error refreshing statuses: %w", err)
	}
	return n, nil
}
