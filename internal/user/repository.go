package user

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

type Repository interface {
	createUser(user *User) error
	getUserByEmail(email string) (*User, error)
	getUserByID(id string) (*User, error)
	updateCredential(userID, newCredential string) error
	updateStripeCustomerID(userID, customerRef string) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) Repository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) createUser(user *User) error {
	query := `
		INSERT INTO users (id, email, fullname, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at;
	`
	err := r.db.QueryRow(query, user.ID, user.Email, user.FullName, user.Credential).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("could not create user: %v", err)
	}
	return nil
}

func (r *userRepository) getUserByEmail(email string) (*User, error) {
	query := `
		SELECT id, email, fullname, password_hash, stripe_customer_id, balance, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	var user User
	var customerID sql.NullString
	err := r.db.QueryRow(query, email).Scan(&user.ID, &user.Email, &user.FullName, &user.Credential, &customerID, &user.Balance, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not find user: %v", err)
	}
	user.StripeCustomerID = customerID.String

	return &user, nil
}

func (r *userRepository) getUserByID(id string) (*User, error) {
	query := `
		SELECT id, email, fullname, password_hash, stripe_customer_id, balance, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user User
	var customerID sql.NullString
	err := r.db.QueryRow(query, id).Scan(&user.ID, &user.Email, &user.FullName, &user.Credential, &customerID, &user.Balance, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not find user: %v", err)
	}
	user.StripeCustomerID = customerID.String

	return &user, nil
}

func (r *userRepository) updateCredential(userID, newCredential string) error {
	query := `
        UPDATE users
        SET password_hash = $1,
            updated_at = $2
        WHERE id = $3
    `
	_, err := r.db.Exec(query, newCredential, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("could not update credential: %v", err)
	}
	return nil
}

func (r *userRepository) updateStripeCustomerID(userID, customerRef string) error {
	query := `
        UPDATE users
        SET stripe_customer_id = $1,
            updated_at = $2
        WHERE id = $3
    `
	_, err := r.db.Exec(query, customerRef, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("could not update stripe customer id: %v", err)
	}
	return nil
}
