package application

import (
	"github.com/google/uuid"
	"github.com/jmroczek/PayVault/internal/user"
)

// MockAccountService is an in-memory AccountService for card-service tests.
type MockAccountService struct {
	Accounts       map[string]*user.User // keyed by email
	CustomerWrites int
	SetCustomerErr error
}

func NewMockAccountService() *MockAccountService {
	return &MockAccountService{Accounts: make(map[string]*user.User)}
}

func (m *MockAccountService) Seed(email string) *user.User {
	seeded := &user.User{ID: uuid.NewString(), Email: email}
	m.Accounts[email] = seeded
	return seeded
}

func (m *MockAccountService) FindOrCreate(email string) (*user.User, error) {
	if err := user.ValidateEmail(email); err != nil {
		return nil, err
	}
	if existing, ok := m.Accounts[email]; ok {
		copied := *existing
		return &copied, nil
	}
	created := m.Seed(email)
	copied := *created
	return &copied, nil
}

func (m *MockAccountService) GetUserByEmail(email string) (*user.User, error) {
	existing, ok := m.Accounts[email]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	copied := *existing
	return &copied, nil
}

func (m *MockAccountService) SetStripeCustomerID(userID, customerRef string) error {
	if m.SetCustomerErr != nil {
		return m.SetCustomerErr
	}
	for _, existing := range m.Accounts {
		if existing.ID == userID {
			existing.StripeCustomerID = customerRef
			m.CustomerWrites++
			return nil
		}
	}
	return user.ErrUserNotFound
}
