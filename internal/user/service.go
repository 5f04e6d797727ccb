package user

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"
)

const (
	maxEmailLength    = 254
	minEmailLength    = 3
	minPasswordLength = 6
	bcryptCost        = 12
)

var (
	ErrInvalidEmail       = fmt.Errorf("email address is not valid")
	ErrEmailLength        = fmt.Errorf("email address is too long or too short, max length: %d, min length: %d", maxEmailLength, minEmailLength)
	ErrMissingFields      = errors.New("missing required fields")
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInternalError      = errors.New("internal Server Error")
)

type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	FullName         string    `json:"fullname"`
	Credential       string    `json:"-"`
	StripeCustomerID string    `json:"-"`
	Balance          int64     `json:"balance"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Service interface {
	Authenticate(email, password string) (*User, error)
	ChangePassword(email, currentPassword, newPassword string) error
	GetUserByEmail(email string) (*User, error)
	FindOrCreate(email string) (*User, error)
	SetStripeCustomerID(userID, customerRef string) error
}

type service struct {
	repo Repository
}

func NewUserService(repo Repository) Service {
	return &service{repo: repo}
}

// ValidateEmail checks the address format before any store access.
func ValidateEmail(email string) error {
	if err := checkmail.ValidateFormat(email); err != nil {
		fmt.Println("Email Validation FORMAT check error")
		return ErrInvalidEmail
	}
	if len(email) > maxEmailLength || len(email) <= minEmailLength {
		fmt.Println("Email Validation length check error")
		return ErrEmailLength
	}
	return nil
}

// Authenticate verifies the presented password against the stored credential.
// A confirmed legacy credential is replaced with its bcrypt upgrade in the
// same call; a failed attempt never writes anything. Unknown email and wrong
// password stay distinct errors here, the sign-in surface collapses them.
func (s *service) Authenticate(email, password string) (*User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrMissingFields
	}

	existingUser, err := s.repo.getUserByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		fmt.Println("Error with database request: ", err)
		return nil, ErrInternalError
	}

	result, err := ParseCredential(existingUser.Credential).Verify(password)
	if err != nil {
		fmt.Println("Error during verifying the password: ", err)
		return nil, ErrInternalError
	}
	if !result.Valid {
		return nil, ErrInvalidCredentials
	}

	if result.UpgradedHash != "" {
		if err := s.repo.updateCredential(existingUser.ID, result.UpgradedHash); err != nil {
			// Sign-in already succeeded; the next legacy sign-in retries the upgrade.
			fmt.Println("Error during upgrading legacy credential: ", err)
		} else {
			existingUser.Credential = result.UpgradedHash
		}
	}

	return existingUser, nil
}

func (s *service) ChangePassword(email, currentPassword, newPassword string) error {
	if strings.TrimSpace(email) == "" || currentPassword == "" || newPassword == "" {
		return ErrMissingFields
	}
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	existingUser, err := s.repo.getUserByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		fmt.Println("Error with database request: ", err)
		return ErrInternalError
	}

	result, err := ParseCredential(existingUser.Credential).Verify(currentPassword)
	if err != nil {
		fmt.Println("Error during verifying the password: ", err)
		return ErrInternalError
	}
	if !result.Valid {
		return ErrInvalidCredentials
	}

	// The rotation overwrites the credential anyway, so a legacy upgrade
	// produced by the check above is discarded.
	newHash, err := HashPassword(newPassword)
	if err != nil {
		fmt.Println("Error during hashing the password: ", err)
		return ErrInternalError
	}

	if err := s.repo.updateCredential(existingUser.ID, newHash); err != nil {
		fmt.Println("Error during updating the credential: ", err)
		return ErrInternalError
	}
	return nil
}

func (s *service) GetUserByEmail(email string) (*User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, ErrMissingFields
	}
	return s.repo.getUserByEmail(email)
}

// FindOrCreate returns the account for the email, creating a bare account
// (no credential) when none exists. The setup-intent flow uses it so cards
// can be saved before the user ever registers a password.
func (s *service) FindOrCreate(email string) (*User, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	existingUser, err := s.repo.getUserByEmail(email)
	if err == nil {
		return existingUser, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		fmt.Println("Error with database request: ", err)
		return nil, ErrInternalError
	}

	newUser := &User{
		ID:    uuid.NewString(),
		Email: email,
	}
	if err := s.repo.createUser(newUser); err != nil {
		fmt.Println("Error during creating the user: ", err)
		return nil, ErrInternalError
	}
	return newUser, nil
}

func (s *service) SetStripeCustomerID(userID, customerRef string) error {
	if userID == "" || customerRef == "" {
		return ErrMissingFields
	}
	if _, err := s.repo.getUserByID(userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		fmt.Println("Error with database request: ", err)
		return ErrInternalError
	}
	return s.repo.updateStripeCustomerID(userID, customerRef)
}
