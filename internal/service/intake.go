package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dailit/dailit-server/internal/models"
)

const defaultLeadSource = "website"

// SubmitLead stores a quote request from the marketing site as a new lead.
func (s *DefaultService) SubmitLead(ctx context.Context, req models.LeadRequest) (*models.Lead, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		return nil, invalid("name and email are required")
	}

	source := req.Source
	if source == "" {
		source = defaultLeadSource
	}

	lead := &models.Lead{
		Name:            strings.TrimSpace(req.Name),
		Email:           strings.TrimSpace(req.Email),
		Phone:           req.Phone,
		Company:         req.Company,
		ServiceInterest: req.ServiceInterest,
		Message:         req.Message,
		Source:          source,
		Status:          "new",
	}
	if err := s.repo.CreateLead(ctx, lead); err != nil {
		return nil, fmt.Errorf("error creating lead: %w", err)
	}
	s.logger.Info("lead %s received from %s", lead.ID, lead.Source)
	return lead, nil
}

func (s *DefaultService) ListLeads(ctx context.Context, status string) ([]models.Lead, error) {
	if status != "" && !oneOf(status, models.LeadStatuses) {
		return nil, invalid("status must be one of %s", strings.Join(models.LeadStatuses, ", "))
	}
	leads, err := s.repo.ListLeads(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("error listing leads: %w", err)
	}
	return leads, nil
}

func (s *DefaultService) UpdateLead(ctx context.Context, id string, req models.UpdateLeadRequest) (*models.Lead, error) {
	if !oneOf(req.Status, models.LeadStatuses) {
		return nil, invalid("status must be one of %s", strings.Join(models.LeadStatuses, ", "))
	}
	lead, err := s.repo.UpdateLead(ctx, id, req.Status, req.Notes)
	if err != nil {
		return nil, fmt.Errorf("error updating lead: %w", err)
	}
	return lead, nil
}

func (s *DefaultService) DeleteLead(ctx context.Context, id string) error {
	if err := s.repo.DeleteLead(ctx, id); err != nil {
		return fmt.Errorf("error deleting lead: %w", err)
	}
	return nil
}

// SubmitContact stores a message from the contact form.
func (s *DefaultService) SubmitContact(ctx context.Context, req models.ContactRequest) (*models.ContactSubmission, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Message) == "" {
		return nil, invalid("name, email and message are required")
	}

	contact := &models.ContactSubmission{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
		Status:  "new",
	}
	if err := s.repo.CreateContact(ctx, contact); err != nil {
		return nil, fmt.Errorf("error creating contact submission: %w", err)
	}
	return contact, nil
}

func (s *DefaultService) ListContacts(ctx context.Context, status string) ([]models.ContactSubmission, error) {
	if status != "" && !oneOf(status, models.ContactStatuses) {
		return nil, invalid("status must be one of %s", strings.Join(models.ContactStatuses, ", "))
	}
	contacts, err := s.repo.ListContacts(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("error listing contact submissions: %w", err)
	}
	return contacts, nil
}

func (s *DefaultService) UpdateContact(ctx context.Context, id string, req models.UpdateContactRequest) (*models.ContactSubmission, error) {
	if !oneOf(req.Status, models.ContactStatuses) {
		return nil, invalid("status must be one of %s", strings.Join(models.ContactStatuses, ", "))
	}
	contact, err := s.repo.UpdateContactStatus(ctx, id, req.Status)
	if err != nil {
		return nil, fmt.Errorf("error updating contact submission: %w", err)
	}
	return contact, nil
}

func (s *DefaultService) DeleteContact(ctx context.Context, id string) error {
	if err := s.repo.DeleteContact(ctx, id); err != nil {
		return fmt.Errorf("error deleting contact submission: %w", err)
	}
	return nil
}
