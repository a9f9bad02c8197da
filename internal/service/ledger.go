package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dailit/dailit-server/internal/aggregate"
	"github.com/dailit/dailit-server/internal/models"
	"github.com/dailit/dailit-server/internal/repository"
)

var paymentMethods = []string{
	models.PaymentCash,
	models.PaymentBankTransfer,
	models.PaymentCheck,
	models.PaymentOnline,
	models.PaymentOther,
}

func (s *DefaultService) ListPayments(ctx context.Context, userID string) ([]models.Payment, error) {
	payments, err := s.repo.ListPayments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing payments: %w", err)
	}
	return payments, nil
}

// CreatePayment records money collected from a subscriber. Without an explicit
// collector the payment is credited to the subscriber's manager, or to admin.
func (s *DefaultService) CreatePayment(ctx context.Context, req models.CreatePaymentRequest) (*models.Payment, error) {
	if !req.Amount.IsPositive() {
		return nil, invalid("amount must be greater than zero")
	}
	if !oneOf(req.PaymentMethod, paymentMethods) {
		return nil, invalid("paymentMethod must be one of %s", strings.Join(paymentMethods, ", "))
	}

	user, err := s.repo.GetSubscriptionUser(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("error getting subscription user: %w", err)
	}
	if user == nil {
		return nil, invalid("subscription user %s does not exist", req.UserID)
	}

	date := s.today()
	if req.PaymentDate != "" {
		if date, err = parseDate("paymentDate", req.PaymentDate); err != nil {
			return nil, err
		}
	}

	collector := req.CollectedByID
	if collector == "" {
		collector = models.AdminCollectorID
		if user.ManagerID != nil {
			collector = *user.ManagerID
		}
	}

	p := &models.Payment{
		UserID:        user.ID,
		Amount:        req.Amount,
		PaymentDate:   date,
		PaymentMethod: req.PaymentMethod,
		CollectedByID: collector,
		Notes:         req.Notes,
	}
	if err := s.repo.CreatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("error creating payment: %w", err)
	}
	return p, nil
}

func (s *DefaultService) PaymentSummary(ctx context.Context) ([]aggregate.PaymentSummary, error) {
	payments, err := s.repo.ListPayments(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("error listing payments: %w", err)
	}
	// deleted users keep their names in the summary
	users, err := s.repo.ListSubscriptionUsers(ctx, repository.UserFilter{IncludeDeleted: true})
	if err != nil {
		return nil, fmt.Errorf("error listing subscription users: %w", err)
	}
	return aggregate.SummarizePayments(payments, users), nil
}

func (s *DefaultService) ListSubmissions(ctx context.Context, managerID string) ([]models.Submission, error) {
	submissions, err := s.repo.ListSubmissions(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("error listing submissions: %w", err)
	}
	return submissions, nil
}

// CreateSubmission records money a manager, or one of its resellers, has
// forwarded to the business.
func (s *DefaultService) CreateSubmission(ctx context.Context, req models.CreateSubmissionRequest) (*models.Submission, error) {
	if !req.Amount.IsPositive() {
		return nil, invalid("amount must be greater than zero")
	}
	if err := s.requireManager(ctx, req.ManagerID); err != nil {
		return nil, err
	}
	if req.ResellerID != "" {
		r, err := s.repo.GetReseller(ctx, req.ResellerID)
		if err != nil {
			return nil, fmt.Errorf("error getting reseller: %w", err)
		}
		if r == nil {
			return nil, invalid("reseller %s does not exist", req.ResellerID)
		}
		if r.ManagerID != req.ManagerID {
			return nil, invalid("reseller %s does not belong to manager %s", req.ResellerID, req.ManagerID)
		}
	}

	date := s.today()
	if req.SubmissionDate != "" {
		var err error
		if date, err = parseDate("submissionDate", req.SubmissionDate); err != nil {
			return nil, err
		}
	}

	sub := &models.Submission{
		ManagerID:      req.ManagerID,
		ResellerID:     optional(req.ResellerID),
		Amount:         req.Amount,
		SubmissionDate: date,
		Notes:          req.Notes,
	}
	if err := s.repo.CreateSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("error creating submission: %w", err)
	}
	return sub, nil
}

// Reconciliation balances every collector's payments against its
// submissions. Inactive collectors are included so their history resolves.
func (s *DefaultService) Reconciliation(ctx context.Context) ([]aggregate.ReconciliationSummary, error) {
	managers, err := s.repo.ListManagers(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("error listing managers: %w", err)
	}
	resellers, err := s.repo.ListResellers(ctx, repository.ResellerFilter{})
	if err != nil {
		return nil, fmt.Errorf("error listing resellers: %w", err)
	}
	payments, err := s.repo.ListPayments(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("error listing payments: %w", err)
	}
	submissions, err := s.repo.ListSubmissions(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("error listing submissions: %w", err)
	}

	return aggregate.ComputeReconciliation(payments, submissions, aggregate.PartiesFrom(managers, resellers)), nil
}
