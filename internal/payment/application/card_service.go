package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmroczek/PayVault/internal/payment/domain"
	paymentErrors "github.com/jmroczek/PayVault/internal/payment/errors"
	"github.com/jmroczek/PayVault/internal/user"
)

// AccountService is the slice of the user service the card registry needs.
type AccountService interface {
	FindOrCreate(email string) (*user.User, error)
	GetUserByEmail(email string) (*user.User, error)
	SetStripeCustomerID(userID, customerRef string) error
}

type SetupIntentResult struct {
	ClientSecret string `json:"clientSecret"`
	CustomerID   string `json:"customerId"`
}

// CardService owns the saved-card lifecycle and the one-default-per-owner
// invariant. The invariant itself is enforced by the repository's atomic
// insert and transactional delete; this layer sequences the gateway and
// store steps so they never diverge into an undocumented state.
type CardService struct {
	accounts AccountService
	cards    domain.CardRepository
	gateway  domain.PaymentGateway
}

func NewCardService(accounts AccountService, cards domain.CardRepository, gateway domain.PaymentGateway) *CardService {
	return &CardService{
		accounts: accounts,
		cards:    cards,
		gateway:  gateway,
	}
}

// BeginSetup resolves or creates the account and its processor customer,
// then opens a setup intent. Customer creation is idempotent through the
// stored ref: if persisting the ref fails after the processor call, the
// processor-side customer stays orphaned and the next call creates a fresh
// one.
func (s *CardService) BeginSetup(ctx context.Context, email string) (*SetupIntentResult, error) {
	account, err := s.accounts.FindOrCreate(email)
	if err != nil {
		if errors.Is(err, user.ErrInvalidEmail) || errors.Is(err, user.ErrEmailLength) {
			return nil, paymentErrors.NewInvalidInput(err.Error())
		}
		return nil, fmt.Errorf("could not resolve account: %w", err)
	}

	customerRef := account.StripeCustomerID
	if customerRef == "" {
		customerRef, err = s.gateway.CreateCustomer(ctx, account.Email, account.ID)
		if err != nil {
			return nil, paymentErrors.WrapUpstream("could not create customer", err)
		}
		if err := s.accounts.SetStripeCustomerID(account.ID, customerRef); err != nil {
			return nil, fmt.Errorf("could not link customer %s: %w", customerRef, err)
		}
	}

	clientSecret, err := s.gateway.CreateSetupIntent(ctx, customerRef)
	if err != nil {
		return nil, paymentErrors.WrapUpstream("could not create setup intent", err)
	}

	return &SetupIntentResult{
		ClientSecret: clientSecret,
		CustomerID:   customerRef,
	}, nil
}

// ConfirmCard persists a payment method the processor reports as set up.
// The card becomes the default iff the owner had none; the repository
// decides that atomically.
func (s *CardService) ConfirmCard(ctx context.Context, email, methodRef string) (*domain.SavedCard, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(methodRef) == "" {
		return nil, paymentErrors.NewInvalidInput("email and payment method ID are required")
	}

	account, err := s.accounts.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, paymentErrors.NewNotFound("user not found")
		}
		return nil, fmt.Errorf("could not resolve account: %w", err)
	}

	details, err := s.gateway.RetrieveMethod(ctx, methodRef)
	if err != nil {
		return nil, paymentErrors.WrapUpstream("could not retrieve payment method", err)
	}
	if details == nil {
		return nil, paymentErrors.NewInvalidInput("invalid payment method")
	}

	card := &domain.SavedCard{
		ID:                    uuid.NewString(),
		UserID:                account.ID,
		StripePaymentMethodID: methodRef,
		Last4:                 details.Last4,
		Brand:                 details.Brand,
		ExpMonth:              details.ExpMonth,
		ExpYear:               details.ExpYear,
	}
	if err := s.cards.InsertCard(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// ListCards returns the owner's saved cards, oldest first. An unknown owner
// yields an empty list, not an error.
func (s *CardService) ListCards(ctx context.Context, email string) ([]domain.SavedCard, error) {
	if strings.TrimSpace(email) == "" {
		return nil, paymentErrors.NewInvalidInput("email is required")
	}

	account, err := s.accounts.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return []domain.SavedCard{}, nil
		}
		return nil, fmt.Errorf("could not resolve account: %w", err)
	}

	cards, err := s.cards.FindUserCards(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if cards == nil {
		return []domain.SavedCard{}, nil
	}
	return cards, nil
}

// RemoveCard detaches the payment method at the processor and then deletes
// the row. The order matters: a failed detach aborts before the store is
// touched, so a card is never gone locally while still live remotely.
// An owner mismatch reports the same not-found as a missing card so the
// response does not confirm another user's card ID.
func (s *CardService) RemoveCard(ctx context.Context, email, cardID string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(cardID) == "" {
		return paymentErrors.NewInvalidInput("card ID and email are required")
	}

	account, err := s.accounts.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return paymentErrors.NewNotFound("user not found")
		}
		return fmt.Errorf("could not resolve account: %w", err)
	}

	card, err := s.cards.FindCardByID(ctx, cardID)
	if err != nil {
		return err
	}
	if card.UserID != account.ID {
		return paymentErrors.NewNotFound("card not found")
	}

	if err := s.gateway.DetachMethod(ctx, card.StripePaymentMethodID); err != nil {
		return paymentErrors.WrapUpstream("could not detach payment method", err)
	}

	return s.cards.DeleteCardAndPromote(ctx, card.ID, account.ID)
}

// Reconcile diffs the processor's view of the customer against the stored
// rows. Aborted confirm/remove operations leave the two sides diverged; the
// report makes that visible without correcting anything.
func (s *CardService) Reconcile(ctx context.Context, email string) (*domain.ReconciliationReport, error) {
	if strings.TrimSpace(email) == "" {
		return nil, paymentErrors.NewInvalidInput("email is required")
	}

	account, err := s.accounts.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, paymentErrors.NewNotFound("user not found")
		}
		return nil, fmt.Errorf("could not resolve account: %w", err)
	}

	cards, err := s.cards.FindUserCards(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	report := &domain.ReconciliationReport{
		MissingLocally:  []string{},
		MissingRemotely: []domain.SavedCard{},
	}

	var remoteRefs []string
	if account.StripeCustomerID != "" {
		remoteRefs, err = s.gateway.ListMethods(ctx, account.StripeCustomerID)
		if err != nil {
			return nil, paymentErrors.WrapUpstream("could not list payment methods", err)
		}
	}

	stored := make(map[string]bool, len(cards))
	for _, card := range cards {
		stored[card.StripePaymentMethodID] = true
	}
	remote := make(map[string]bool, len(remoteRefs))
	for _, ref := range remoteRefs {
		remote[ref] = true
		if !stored[ref] {
			report.MissingLocally = append(report.MissingLocally, ref)
		}
	}
	for _, card := range cards {
		if !remote[card.StripePaymentMethodID] {
			report.MissingRemotely = append(report.MissingRemotely, card)
		}
	}

	return report, nil
}
