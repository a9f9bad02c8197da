package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dailit/dailit-server/internal/models"
)

// MemoryRepository keeps every table in process memory. It backs local runs
// without Postgres (STORE_DRIVER=memory) and the HTTP tests. Data is lost on
// restart.
type MemoryRepository struct {
	mu          sync.RWMutex
	now         func() time.Time
	admins      map[string]models.Admin
	managers    map[string]models.Manager
	resellers   map[string]models.Reseller
	users       map[string]models.SubscriptionUser
	payments    []models.Payment
	submissions []models.Submission
	leads       map[string]models.Lead
	contacts    map[string]models.ContactSubmission
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		now:       func() time.Time { return time.Now().UTC() },
		admins:    make(map[string]models.Admin),
		managers:  make(map[string]models.Manager),
		resellers: make(map[string]models.Reseller),
		users:     make(map[string]models.SubscriptionUser),
		leads:     make(map[string]models.Lead),
		contacts:  make(map[string]models.ContactSubmission),
	}
}

func notFound(op string) error {
	return &StoreError{Op: op, Kind: ErrNotFound, Err: ErrNotFound}
}

func conflict(op string) error {
	return &StoreError{Op: op, Kind: ErrConflict, Err: ErrConflict}
}

func rejected(op, reason string) error {
	return &StoreError{Op: op, Kind: ErrInvalid, Err: errors.New(reason)}
}

// Admin operations

func (m *MemoryRepository) CreateAdmin(_ context.Context, admin *models.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if a.Email == admin.Email {
			return conflict("create admin")
		}
	}
	admin.ID = newID(admin.ID)
	admin.CreatedAt = m.now()
	admin.UpdatedAt = admin.CreatedAt
	m.admins[admin.ID] = *admin
	return nil
}

func (m *MemoryRepository) GetAdminByEmail(_ context.Context, email string) (*models.Admin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.admins {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, nil
}

func (m *MemoryRepository) GetAdminByID(_ context.Context, id string) (*models.Admin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.admins[id]; ok {
		return &a, nil
	}
	return nil, nil
}

// Manager operations

func (m *MemoryRepository) ListManagers(_ context.Context, activeOnly bool) ([]models.Manager, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Manager{}
	for _, mg := range m.managers {
		if !activeOnly || mg.IsActive {
			out = append(out, mg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryRepository) GetManager(_ context.Context, id string) (*models.Manager, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if mg, ok := m.managers[id]; ok {
		return &mg, nil
	}
	return nil, nil
}

func (m *MemoryRepository) CreateManager(_ context.Context, mg *models.Manager) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mg.ID = newID(mg.ID)
	if _, ok := m.managers[mg.ID]; ok {
		return conflict("create manager")
	}
	mg.CreatedAt = m.now()
	mg.UpdatedAt = mg.CreatedAt
	m.managers[mg.ID] = *mg
	return nil
}

func (m *MemoryRepository) UpdateManager(_ context.Context, mg *models.Manager) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.managers[mg.ID]
	if !ok {
		return notFound("update manager")
	}
	cur.Name, cur.Email, cur.Phone, cur.Notes = mg.Name, mg.Email, mg.Phone, mg.Notes
	cur.UpdatedAt = m.now()
	m.managers[mg.ID] = cur
	*mg = cur
	return nil
}

func (m *MemoryRepository) SetManagerActive(_ context.Context, id string, active bool) (*models.Manager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.managers[id]
	if !ok {
		return nil, notFound("set manager active")
	}
	cur.IsActive = active
	cur.UpdatedAt = m.now()
	m.managers[id] = cur
	return &cur, nil
}

// Reseller operations

func (m *MemoryRepository) ListResellers(_ context.Context, filter ResellerFilter) ([]models.Reseller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Reseller{}
	for _, r := range m.resellers {
		if filter.ManagerID != "" && r.ManagerID != filter.ManagerID {
			continue
		}
		if filter.ActiveOnly && !r.IsActive {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryRepository) GetReseller(_ context.Context, id string) (*models.Reseller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.resellers[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *MemoryRepository) CreateReseller(_ context.Context, r *models.Reseller) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.managers[r.ManagerID]; !ok {
		return rejected("create reseller", "manager_id references a missing manager")
	}
	r.ID = newID(r.ID)
	if _, ok := m.resellers[r.ID]; ok {
		return conflict("create reseller")
	}
	r.CreatedAt = m.now()
	r.UpdatedAt = r.CreatedAt
	m.resellers[r.ID] = *r
	return nil
}

func (m *MemoryRepository) UpdateReseller(_ context.Context, r *models.Reseller) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.resellers[r.ID]
	if !ok {
		return notFound("update reseller")
	}
	cur.ManagerID, cur.Name, cur.Email, cur.Phone, cur.Notes = r.ManagerID, r.Name, r.Email, r.Phone, r.Notes
	cur.UpdatedAt = m.now()
	m.resellers[r.ID] = cur
	*r = cur
	return nil
}

func (m *MemoryRepository) SetResellerActive(_ context.Context, id string, active bool) (*models.Reseller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.resellers[id]
	if !ok {
		return nil, notFound("set reseller active")
	}
	cur.IsActive = active
	cur.UpdatedAt = m.now()
	m.resellers[id] = cur
	return &cur, nil
}

// Subscription user operations

func matchesPtr(p *string, want string) bool {
	return want == "" || (p != nil && *p == want)
}

func (m *MemoryRepository) ListSubscriptionUsers(_ context.Context, filter UserFilter) ([]models.SubscriptionUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.SubscriptionUser{}
	for _, u := range m.users {
		if !filter.IncludeDeleted && u.DeletedAt != nil {
			continue
		}
		if !matchesPtr(u.ManagerID, filter.ManagerID) || !matchesPtr(u.ResellerID, filter.ResellerID) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpiryDate.Equal(out[j].ExpiryDate) {
			return out[i].ExpiryDate.Before(out[j].ExpiryDate)
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryRepository) GetSubscriptionUser(_ context.Context, id string) (*models.SubscriptionUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok && u.DeletedAt == nil {
		return &u, nil
	}
	return nil, nil
}

func (m *MemoryRepository) CreateSubscriptionUser(_ context.Context, u *models.SubscriptionUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ExpiryDate.Before(u.SubscriptionStartDate) {
		return rejected("create subscription user", "expiry_date before subscription_start_date")
	}
	u.ID = newID(u.ID)
	if _, ok := m.users[u.ID]; ok {
		return conflict("create subscription user")
	}
	u.CreatedAt = m.now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryRepository) UpdateSubscriptionUser(_ context.Context, u *models.SubscriptionUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.users[u.ID]
	if !ok || cur.DeletedAt != nil {
		return notFound("update subscription user")
	}
	if u.ExpiryDate.Before(u.SubscriptionStartDate) {
		return rejected("update subscription user", "expiry_date before subscription_start_date")
	}
	u.CreatedAt = cur.CreatedAt
	u.UpdatedAt = m.now()
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryRepository) SoftDeleteSubscriptionUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.users[id]
	if !ok || cur.DeletedAt != nil {
		return notFound("delete subscription user")
	}
	now := m.now()
	cur.DeletedAt = &now
	cur.UpdatedAt = now
	m.users[id] = cur
	return nil
}

func (m *MemoryRepository) UpdateSubscriptionStatuses(_ context.Context, statuses map[string]string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	updated := 0
	for id, status := range statuses {
		cur, ok := m.users[id]
		if !ok || cur.Status == status {
			continue
		}
		cur.Status = status
		cur.UpdatedAt = m.now()
		m.users[id] = cur
		updated++
	}
	return updated, nil
}

// Ledger operations

func (m *MemoryRepository) ListPayments(_ context.Context, userID string) ([]models.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Payment{}
	for _, p := range m.payments {
		if userID == "" || p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PaymentDate.After(out[j].PaymentDate) })
	return out, nil
}

func (m *MemoryRepository) CreatePayment(_ context.Context, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[p.UserID]; !ok {
		return rejected("create payment", "user_id references a missing subscription user")
	}
	p.ID = newID(p.ID)
	p.CreatedAt = m.now()
	m.payments = append(m.payments, *p)
	return nil
}

func (m *MemoryRepository) ListSubmissions(_ context.Context, managerID string) ([]models.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Submission{}
	for _, s := range m.submissions {
		if managerID == "" || s.ManagerID == managerID {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmissionDate.After(out[j].SubmissionDate) })
	return out, nil
}

func (m *MemoryRepository) CreateSubmission(_ context.Context, s *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.managers[s.ManagerID]; !ok {
		return rejected("create submission", "manager_id references a missing manager")
	}
	s.ID = newID(s.ID)
	s.CreatedAt = m.now()
	m.submissions = append(m.submissions, *s)
	return nil
}

// Intake operations

func (m *MemoryRepository) CreateLead(_ context.Context, l *models.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = newID(l.ID)
	l.CreatedAt = m.now()
	l.UpdatedAt = l.CreatedAt
	m.leads[l.ID] = *l
	return nil
}

func (m *MemoryRepository) ListLeads(_ context.Context, status string) ([]models.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Lead{}
	for _, l := range m.leads {
		if status == "" || l.Status == status {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepository) UpdateLead(_ context.Context, id, status, notes string) (*models.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.leads[id]
	if !ok {
		return nil, notFound("update lead")
	}
	cur.Status = status
	if notes != "" {
		cur.Notes = notes
	}
	cur.UpdatedAt = m.now()
	m.leads[id] = cur
	return &cur, nil
}

func (m *MemoryRepository) DeleteLead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[id]; !ok {
		return notFound("delete lead")
	}
	delete(m.leads, id)
	return nil
}

func (m *MemoryRepository) CreateContact(_ context.Context, c *models.ContactSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = newID(c.ID)
	c.CreatedAt = m.now()
	c.UpdatedAt = c.CreatedAt
	m.contacts[c.ID] = *c
	return nil
}

func (m *MemoryRepository) ListContacts(_ context.Context, status string) ([]models.ContactSubmission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.ContactSubmission{}
	for _, c := range m.contacts {
		if status == "" || c.Status == status {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepository) UpdateContactStatus(_ context.Context, id, status string) (*models.ContactSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.contacts[id]
	if !ok {
		return nil, notFound("update contact")
	}
	cur.Status = status
	cur.UpdatedAt = m.now()
	m.contacts[id] = cur
	return &cur, nil
}

func (m *MemoryRepository) DeleteContact(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contacts[id]; !ok {
		return notFound("delete contact")
	}
	delete(m.contacts, id)
	return nil
}
