package auth

import (
	"errors"

	"github.com/jmroczek/PayVault/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInternalError      = errors.New("internal Server Error")
)

type Service interface {
	Login(email, password string) (*user.User, error)
}

type service struct {
	userService user.Service
}

func NewAuthService(userService user.Service) Service {
	return &service{userService: userService}
}

// Login verifies the credentials and returns the account. Unknown email and
// wrong password collapse into ErrInvalidCredentials here so the response
// never reveals whether the account exists.
func (s *service) Login(email, password string) (*user.User, error) {
	signedIn, err := s.userService.Authenticate(email, password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUserNotFound), errors.Is(err, user.ErrInvalidCredentials):
			return nil, ErrInvalidCredentials
		case errors.Is(err, user.ErrMissingFields):
			return nil, user.ErrMissingFields
		default:
			return nil, ErrInternalError
		}
	}
	return signedIn, nil
}
