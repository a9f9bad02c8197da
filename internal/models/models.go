package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Subscription statuses
const (
	StatusActive       = "active"
	StatusExpiringSoon = "expiring_soon"
	StatusExpired      = "expired"
)

// Payment methods
const (
	PaymentCash         = "cash"
	PaymentBankTransfer = "bank_transfer"
	PaymentCheck        = "check"
	PaymentOnline       = "online"
	PaymentOther        = "other"
)

// AdminCollectorID is the collector recorded when a payment has no manager.
const AdminCollectorID = "admin"

// Admin represents a back-office operator
type Admin struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Password  string    `db:"password" json:"-"` // Password hash, not returned in JSON
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Manager collects payments from end customers and supervises resellers
type Manager struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	Notes     string    `db:"notes" json:"notes"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Reseller is a collector that reports to a manager
type Reseller struct {
	ID        string    `db:"id" json:"id"`
	ManagerID string    `db:"manager_id" json:"managerId"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	Notes     string    `db:"notes" json:"notes"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// SubscriptionUser is an end customer holding a VoIP subscription
type SubscriptionUser struct {
	ID                    string     `db:"id" json:"id"`
	Name                  string     `db:"name" json:"name"`
	Email                 string     `db:"email" json:"email"`
	Phone                 string     `db:"phone" json:"phone"`
	SubscriptionStartDate time.Time  `db:"subscription_start_date" json:"subscriptionStartDate"`
	RenewalDate           *time.Time `db:"renewal_date" json:"renewalDate,omitempty"`
	ExpiryDate            time.Time  `db:"expiry_date" json:"expiryDate"`
	Status                string     `db:"status" json:"status"`
	ManagerID             *string    `db:"manager_id" json:"managerId,omitempty"`
	ResellerID            *string    `db:"reseller_id" json:"resellerId,omitempty"`
	ParentAccountID       *string    `db:"parent_account_id" json:"parentAccountId,omitempty"`
	VoipNumber            *string    `db:"voip_number" json:"voipNumber,omitempty"`
	Notes                 string     `db:"notes" json:"notes"`
	CreatedAt             time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt             *time.Time `db:"deleted_at" json:"-"`
}

// Payment is money collected from an end customer
type Payment struct {
	ID            string          `db:"id" json:"id"`
	UserID        string          `db:"user_id" json:"userId"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	PaymentDate   time.Time       `db:"payment_date" json:"paymentDate"`
	PaymentMethod string          `db:"payment_method" json:"paymentMethod"`
	CollectedByID string          `db:"collected_by_id" json:"collectedById"`
	Notes         string          `db:"notes" json:"notes"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}

// Submission is money a collector has forwarded to the business
type Submission struct {
	ID             string          `db:"id" json:"id"`
	ManagerID      string          `db:"manager_id" json:"managerId"`
	ResellerID     *string         `db:"reseller_id" json:"resellerId,omitempty"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	SubmissionDate time.Time       `db:"submission_date" json:"submissionDate"`
	Notes          string          `db:"notes" json:"notes"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
}

// Lead is an intake record from the marketing site's quote form
type Lead struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Email           string    `db:"email" json:"email"`
	Phone           string    `db:"phone" json:"phone"`
	Company         string    `db:"company" json:"company"`
	ServiceInterest string    `db:"service_interest" json:"serviceInterest"`
	Message         string    `db:"message" json:"message"`
	Source          string    `db:"source" json:"source"`
	Status          string    `db:"status" json:"status"` // new, contacted, qualified, converted, lost
	Notes           string    `db:"notes" json:"notes"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// ContactSubmission is an intake record from the contact form
type ContactSubmission struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Subject   string    `db:"subject" json:"subject"`
	Message   string    `db:"message" json:"message"`
	Status    string    `db:"status" json:"status"` // new, responded, closed
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// LeadStatuses lists the accepted lead statuses
var LeadStatuses = []string{"new", "contacted", "qualified", "converted", "lost"}

// ContactStatuses lists the accepted contact submission statuses
var ContactStatuses = []string{"new", "responded", "closed"}
