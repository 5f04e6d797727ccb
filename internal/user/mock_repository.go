package user

// MockUserRepository is an in-memory Repository used by service tests. It
// counts writes so tests can assert that failed verifications never mutate
// the store.
type MockUserRepository struct {
	Users            map[string]*User // keyed by email
	CredentialWrites int
	CustomerWrites   int
	Err              error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{Users: make(map[string]*User)}
}

func (m *MockUserRepository) createUser(user *User) error {
	if m.Err != nil {
		return m.Err
	}
	m.Users[user.Email] = user
	return nil
}

func (m *MockUserRepository) getUserByEmail(email string) (*User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	existingUser, ok := m.Users[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *existingUser
	return &copied, nil
}

func (m *MockUserRepository) getUserByID(id string) (*User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, existingUser := range m.Users {
		if existingUser.ID == id {
			copied := *existingUser
			return &copied, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MockUserRepository) updateCredential(userID, newCredential string) error {
	if m.Err != nil {
		return m.Err
	}
	for _, existingUser := range m.Users {
		if existingUser.ID == userID {
			existingUser.Credential = newCredential
			m.CredentialWrites++
			return nil
		}
	}
	return ErrUserNotFound
}

func (m *MockUserRepository) updateStripeCustomerID(userID, customerRef string) error {
	if m.Err != nil {
		return m.Err
	}
	for _, existingUser := range m.Users {
		if existingUser.ID == userID {
			existingUser.StripeCustomerID = customerRef
			m.CustomerWrites++
			return nil
		}
	}
	return ErrUserNotFound
}
