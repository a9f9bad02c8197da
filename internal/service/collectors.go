package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dailit/dailit-server/internal/models"
	"github.com/dailit/dailit-server/internal/repository"
)

func (s *DefaultService) ListManagers(ctx context.Context, activeOnly bool) ([]models.Manager, error) {
	managers, err := s.repo.ListManagers(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("error listing managers: %w", err)
	}
	return managers, nil
}

func (s *DefaultService) CreateManager(ctx context.Context, req models.ManagerRequest) (*models.Manager, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name is required")
	}

	m := &models.Manager{
		Name:     strings.TrimSpace(req.Name),
		Email:    req.Email,
		Phone:    req.Phone,
		Notes:    req.Notes,
		IsActive: req.IsActive == nil || *req.IsActive,
	}
	if err := s.repo.CreateManager(ctx, m); err != nil {
		return nil, fmt.Errorf("error creating manager: %w", err)
	}
	return m, nil
}

func (s *DefaultService) UpdateManager(ctx context.Context, id string, req models.ManagerRequest) (*models.Manager, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name is required")
	}

	m := &models.Manager{
		ID:    id,
		Name:  strings.TrimSpace(req.Name),
		Email: req.Email,
		Phone: req.Phone,
		Notes: req.Notes,
	}
	if err := s.repo.UpdateManager(ctx, m); err != nil {
		return nil, fmt.Errorf("error updating manager: %w", err)
	}
	if req.IsActive != nil && *req.IsActive != m.IsActive {
		return s.SetManagerActive(ctx, id, *req.IsActive)
	}
	return m, nil
}

// SetManagerActive activates or deactivates a manager. Managers are never
// deleted.
func (s *DefaultService) SetManagerActive(ctx context.Context, id string, active bool) (*models.Manager, error) {
	m, err := s.repo.SetManagerActive(ctx, id, active)
	if err != nil {
		return nil, fmt.Errorf("error updating manager: %w", err)
	}
	return m, nil
}

func (s *DefaultService) ListResellers(ctx context.Context, filter repository.ResellerFilter) ([]models.Reseller, error) {
	resellers, err := s.repo.ListResellers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing resellers: %w", err)
	}
	return resellers, nil
}

func (s *DefaultService) requireManager(ctx context.Context, id string) error {
	m, err := s.repo.GetManager(ctx, id)
	if err != nil {
		return fmt.Errorf("error getting manager: %w", err)
	}
	if m == nil {
		return invalid("manager %s does not exist", id)
	}
	return nil
}

func (s *DefaultService) CreateReseller(ctx context.Context, req models.ResellerRequest) (*models.Reseller, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name is required")
	}
	if err := s.requireManager(ctx, req.ManagerID); err != nil {
		return nil, err
	}

	r := &models.Reseller{
		ManagerID: req.ManagerID,
		Name:      strings.TrimSpace(req.Name),
		Email:     req.Email,
		Phone:     req.Phone,
		Notes:     req.Notes,
		IsActive:  req.IsActive == nil || *req.IsActive,
	}
	if err := s.repo.CreateReseller(ctx, r); err != nil {
		return nil, fmt.Errorf("error creating reseller: %w", err)
	}
	return r, nil
}

func (s *DefaultService) UpdateReseller(ctx context.Context, id string, req models.ResellerRequest) (*models.Reseller, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name is required")
	}
	if err := s.requireManager(ctx, req.ManagerID); err != nil {
		return nil, err
	}

	r := &models.Reseller{
		ID:        id,
		ManagerID: req.ManagerID,
		Name:      strings.TrimSpace(req.Name),
		Email:     req.Email,
		Phone:     req.Phone,
		Notes:     req.Notes,
	}
	if err := s.repo.UpdateReseller(ctx, r); err != nil {
		return nil, fmt.Errorf("error updating reseller: %w", err)
	}
	if req.IsActive != nil && *req.IsActive != r.IsActive {
		return s.SetResellerActive(ctx, id, *req.IsActive)
	}
	return r, nil
}

// SetResellerActive activates or deactivates a reseller. Resellers are never
// deleted.
func (s *DefaultService) SetResellerActive(ctx context.Context, id string, active bool) (*models.Reseller, error) {
	r, err := s.repo.SetResellerActive(ctx, id, active)
	if err != nil {
		return nil, fmt.Errorf("error updating reseller: %w", err)
	}
	return r, nil
}
