package models

import (
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates in requests
const DateLayout = "2006-01-02"

// Request models
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ChatLoginRequest is forwarded to the chat product's login endpoint
type ChatLoginRequest struct {
	LoginID  string `json:"loginId" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ManagerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone" binding:"phone"`
	Notes    string `json:"notes"`
	IsActive *bool  `json:"isActive"`
}

type ResellerRequest struct {
	ManagerID string `json:"managerId" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"omitempty,email"`
	Phone     string `json:"phone" binding:"phone"`
	Notes     string `json:"notes"`
	IsActive  *bool  `json:"isActive"`
}

// SubscriptionUserFields are the editable fields of a subscription user
type SubscriptionUserFields struct {
	Name                  string `json:"name" binding:"required"`
	Email                 string `json:"email" binding:"omitempty,email"`
	Phone                 string `json:"phone" binding:"phone"`
	SubscriptionStartDate string `json:"subscriptionStartDate" binding:"required,datetime=2006-01-02"`
	RenewalDate           string `json:"renewalDate" binding:"omitempty,datetime=2006-01-02"`
	ExpiryDate            string `json:"expiryDate" binding:"required,datetime=2006-01-02"`
	ManagerID             string `json:"managerId"`
	ResellerID            string `json:"resellerId"`
	ParentAccountID       string `json:"parentAccountId"`
	VoipNumber            string `json:"voipNumber" binding:"phone"`
	Notes                 string `json:"notes"`
}

type CreateSubscriptionUserRequest struct {
	SubscriptionUserFields
	InitialPayment *decimal.Decimal `json:"initialPayment" binding:"omitempty,decimal_gte0"`
	PaymentMethod  string           `json:"paymentMethod" binding:"omitempty,oneof=cash bank_transfer check online other"`
}

type UpdateSubscriptionUserRequest struct {
	SubscriptionUserFields
}

type CreatePaymentRequest struct {
	UserID        string          `json:"userId" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required,decimal_gt0"`
	PaymentDate   string          `json:"paymentDate" binding:"omitempty,datetime=2006-01-02"`
	PaymentMethod string          `json:"paymentMethod" binding:"required,oneof=cash bank_transfer check online other"`
	CollectedByID string          `json:"collectedById"`
	Notes         string          `json:"notes"`
}

type CreateSubmissionRequest struct {
	ManagerID      string          `json:"managerId" binding:"required"`
	ResellerID     string          `json:"resellerId"`
	Amount         decimal.Decimal `json:"amount" binding:"required,decimal_gt0"`
	SubmissionDate string          `json:"submissionDate" binding:"omitempty,datetime=2006-01-02"`
	Notes          string          `json:"notes"`
}

type LeadRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Phone           string `json:"phone" binding:"phone"`
	Company         string `json:"company"`
	ServiceInterest string `json:"serviceInterest"`
	Message         string `json:"message"`
	Source          string `json:"source"`
}

type UpdateLeadRequest struct {
	Status string `json:"status" binding:"required,oneof=new contacted qualified converted lost"`
	Notes  string `json:"notes"`
}

type ContactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required"`
}

type UpdateContactRequest struct {
	Status string `json:"status" binding:"required,oneof=new responded closed"`
}

// Response models
type AuthResponse struct {
	Status    string `json:"status"`
	UserID    string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

// ChatLoginResponse tells the browser where to go after a successful login
type ChatLoginResponse struct {
	Status      string         `json:"status"`
	RedirectURL string         `json:"redirectUrl"`
	Token       string         `json:"token,omitempty"`
	User        map[string]any `json:"user,omitempty"`
}

type ListResponse struct {
	Status string      `json:"status"`
	Count  int         `json:"count"`
	Items  interface{} `json:"items"`
}

type ItemResponse struct {
	Status string      `json:"status"`
	Item   interface{} `json:"item"`
}

type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
