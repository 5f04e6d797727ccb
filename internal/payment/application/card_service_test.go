package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jmroczek/PayVault/internal/payment/domain"
	paymentErrors "github.com/jmroczek/PayVault/internal/payment/errors"
	"github.com/jmroczek/PayVault/internal/payment/infrastructure"
	"github.com/stretchr/testify/assert"
)

func newCardService() (*CardService, *MockAccountService, *infrastructure.MockCardRepository, *MockPaymentGateway) {
	accounts := NewMockAccountService()
	cards := infrastructure.NewMockCardRepository()
	gateway := NewMockPaymentGateway()
	return NewCardService(accounts, cards, gateway), accounts, cards, gateway
}

func countDefaults(t *testing.T, service *CardService, email string) int {
	t.Helper()
	cards, err := service.ListCards(context.Background(), email)
	assert.NoError(t, err)
	defaults := 0
	for _, card := range cards {
		if card.IsDefault {
			defaults++
		}
	}
	return defaults
}

func TestBeginSetup_CreatesAccountAndCustomer(t *testing.T) {
	service, accounts, _, gateway := newCardService()

	result, err := service.BeginSetup(context.Background(), "a@x.com")
	assert.NoError(t, err)
	assert.Equal(t, "cus_1", result.CustomerID)
	assert.Equal(t, "cus_1_secret", result.ClientSecret)
	assert.Contains(t, accounts.Accounts, "a@x.com")
	assert.Equal(t, "cus_1", accounts.Accounts["a@x.com"].StripeCustomerID)
	assert.Len(t, gateway.CreatedCustomers, 1)
}

func TestBeginSetup_ReusesExistingCustomer(t *testing.T) {
	service, _, _, gateway := newCardService()

	first, err := service.BeginSetup(context.Background(), "a@x.com")
	assert.NoError(t, err)
	second, err := service.BeginSetup(context.Background(), "a@x.com")
	assert.NoError(t, err)

	assert.Equal(t, first.CustomerID, second.CustomerID)
	assert.Len(t, gateway.CreatedCustomers, 1, "second call must not create another customer")
	assert.Len(t, gateway.SetupIntents, 2)
}

func TestBeginSetup_InvalidEmail(t *testing.T) {
	service, _, _, gateway := newCardService()

	_, err := service.BeginSetup(context.Background(), "not-an-email")
	assert.True(t, paymentErrors.IsInvalidInput(err))
	assert.Empty(t, gateway.CreatedCustomers)
}

func TestBeginSetup_GatewayFailure(t *testing.T) {
	service, _, _, gateway := newCardService()
	gateway.CreateCustomerErr = errors.New("stripe is down")

	_, err := service.BeginSetup(context.Background(), "a@x.com")
	assert.True(t, paymentErrors.IsUpstreamFailure(err))
}

func TestBeginSetup_OrphanedCustomerAfterPersistFailure(t *testing.T) {
	service, accounts, _, gateway := newCardService()
	accounts.SetCustomerErr = errors.New("db write lost")

	_, err := service.BeginSetup(context.Background(), "a@x.com")
	assert.Error(t, err)
	assert.Len(t, gateway.CreatedCustomers, 1)

	// The account is still unlinked, so the next call creates a second
	// customer instead of failing hard.
	accounts.SetCustomerErr = nil
	result, err := service.BeginSetup(context.Background(), "a@x.com")
	assert.NoError(t, err)
	assert.Equal(t, "cus_2", result.CustomerID)
	assert.Len(t, gateway.CreatedCustomers, 2)
}

func TestConfirmCard_FirstCardBecomesDefault(t *testing.T) {
	service, accounts, _, gateway := newCardService()
	accounts.Seed("a@x.com")
	gateway.Cards["pm_1"] = &domain.CardDetails{Last4: "4242", Brand: "visa", ExpMonth: 12, ExpYear: 2030}
	gateway.Cards["pm_2"] = &domain.CardDetails{Last4: "1111", Brand: "mastercard", ExpMonth: 1, ExpYear: 2031}

	first, err := service.ConfirmCard(context.Background(), "a@x.com", "pm_1")
	assert.NoError(t, err)
	assert.True(t, first.IsDefault)
	assert.Equal(t, "4242", first.Last4)
	assert.Equal(t, "visa", first.Brand)

	second, err := service.ConfirmCard(context.Background(), "a@x.com", "pm_2")
	assert.NoError(t, err)
	assert.False(t, second.IsDefault)
	assert.Equal(t, 1, countDefaults(t, service, "a@x.com"))
}

func TestConfirmCard_UnknownOwner(t *testing.T) {
	service, _, cards, _ := newCardService()

	_, err := service.ConfirmCard(context.Background(), "nobody@x.com", "pm_1")
	assert.True(t, paymentErrors.IsNotFound(err))
	assert.Equal(t, 0, cards.Inserts)
}

func TestConfirmCard_NonCardMethodRejected(t *testing.T) {
	service, accounts, cards, _ := newCardService()
	accounts.Seed("a@x.com")

	// pm_sepa is retrievable but has no card payload.
	_, err := service.ConfirmCard(context.Background(), "a@x.com", "pm_sepa")
	assert.True(t, paymentErrors.IsInvalidInput(err))
	assert.Equal(t, 0, cards.Inserts)
}

func TestListCards_UnknownOwnerIsEmptyNotError(t *testing.T) {
	service, _, _, _ := newCardService()

	cards, err := service.ListCards(context.Background(), "nobody@x.com")
	assert.NoError(t, err)
	assert.NotNil(t, cards)
	assert.Empty(t, cards)
}

func TestRemoveCard_DefaultInvariantAcrossLifecycle(t *testing.T) {
	service, accounts, _, gateway := newCardService()
	accounts.Seed("a@x.com")

	const total = 4
	var saved []*domain.SavedCard
	for i := 0; i < total; i++ {
		ref := fmt.Sprintf("pm_%d", i)
		gateway.Cards[ref] = &domain.CardDetails{Last4: "4242", Brand: "visa", ExpMonth: 12, ExpYear: 2030}
		card, err := service.ConfirmCard(context.Background(), "a@x.com", ref)
		assert.NoError(t, err)
		saved = append(saved, card)
		assert.Equal(t, 1, countDefaults(t, service, "a@x.com"))
	}

	// Remove every card, always deleting the current oldest; after each
	// removal the owner has exactly min(1, remaining) defaults.
	for i, card := range saved {
		err := service.RemoveCard(context.Background(), "a@x.com", card.ID)
		assert.NoError(t, err)
		remaining := total - i - 1
		expectedDefaults := 0
		if remaining > 0 {
			expectedDefaults = 1
		}
		assert.Equal(t, expectedDefaults, countDefaults(t, service, "a@x.com"))
	}
	assert.Equal(t, total, len(gateway.DetachedMethods))
}

func TestRemoveCard_NonDefaultLeavesDefaultUntouched(t *testing.T) {
	service, accounts, _, gateway := newCardService()
	accounts.Seed("a@x.com")
	gateway.Cards["pm_0"] = &domain.CardDetails{Last4: "4242", Brand: "visa"}
	gateway.Cards["pm_1"] = &domain.CardDetails{Last4: "1111", Brand: "visa"}

	defaultCard, err := service.ConfirmCard(context.Background(), "a@x.com", "pm_0")
	assert.NoError(t, err)
	otherCard, err := service.ConfirmCard(context.Background(), "a@x.com", "pm_1")
	assert.NoError(t, err)

	assert.NoError(t, service.RemoveCard(context.Background(), "a@x.com", otherCard.ID))

	remaining, err := service.ListCards(context.Background(), "a@x.com")
	assert.NoError(t, err)
	assert.Len(t, remaining, 1)
	assert.Equal(t, defaultCard.ID, remaining[0].ID)
	assert.True(t, remaining[0].IsDefault)
}

func TestRemoveCard_DefaultRemovalPromotesOldestRemaining(t *testing.T) {
	service, accounts, _, gateway := newCardService()
	accounts.Seed("a@x.com")
	for i := 0; i < 3; i++ {
		ref := fmt.Sprintf("pm_%d", i)
		gateway.Cards[ref] = &domain.CardDetails{Last4: "4242", Brand: "visa"}
	}
	first, err := service.ConfirmCard(context.Background(), "a@x.com", "pm_0")
	assert.NoError(t, err)
	second, err := service.ConfirmCard(context.Background(), "a@x.com", "pm_1")
	assert.NoError(t, err)
	_, err = service.ConfirmCard(context.Background(), "a@x.com", "pm_2")
	assert.NoError(t, err)

	assert.NoError(t, service.RemoveCard(context.Background(), "a@x.com", first.ID))

	remaining, err := service.ListCards(context.Background(), "a@x.com")
	assert.NoError(t, err)
	assert.Len(t, remaining, 2)
	assert.Equal(t, second.ID, remaining[0].ID)
	assert.True(t, remaining[0].IsDefault)
	assert.False(t, remaining[1].IsDefault)
}

func TestRemoveCard_OwnershipMismatchIsNotFoundWithNoSideEffects(t *testing.T) {
	service, accounts, cards, gateway := newCardService()
	accounts.Seed("a@x.com")
	accounts.Seed("b@x.com")
	gateway.Cards["pm_1"] = &domain.CardDetails{Last4: "4242", Brand: "visa"}

	owned, err := service.ConfirmCard(context.Background(), "a@x.com", "pm_1")
	assert.NoError(t, err)

	err = service.RemoveCard(context.Background(), "b@x.com", owned.ID)
	assert.True(t, paymentErrors.IsNotFound(err))
	assert.Empty(t, gateway.DetachedMethods, "no detach may happen for another user's card")
	assert.Equal(t, 0, cards.Deletes)
}

func TestRemoveCard_DetachFailureAbortsBeforeStore(t *testing.T) {
	service, accounts, cards, gateway := newCardService()
	accounts.Seed("a@x.com")
	gateway.Cards["pm_1"] = &domain.CardDetails{Last4: "4242", Brand: "visa"}

	saved, err := service.ConfirmCard(context.Background(), "a@x.com", "pm_1")
	assert.NoError(t, err)

	gateway.DetachErr = errors.New("stripe timeout")
	err = service.RemoveCard(context.Background(), "a@x.com", saved.ID)
	assert.True(t, paymentErrors.IsUpstreamFailure(err))
	assert.Equal(t, 0, cards.Deletes)
	assert.Equal(t, 1, countDefaults(t, service, "a@x.com"))
}

func TestReconcile_SurfacesBothDirections(t *testing.T) {
	service, accounts, _, gateway := newCardService()
	seeded := accounts.Seed("a@x.com")
	seeded.StripeCustomerID = "cus_1"
	gateway.Cards["pm_kept"] = &domain.CardDetails{Last4: "4242", Brand: "visa"}
	gateway.Cards["pm_gone_remotely"] = &domain.CardDetails{Last4: "1111", Brand: "visa"}

	kept, err := service.ConfirmCard(context.Background(), "a@x.com", "pm_kept")
	assert.NoError(t, err)
	_, err = service.ConfirmCard(context.Background(), "a@x.com", "pm_gone_remotely")
	assert.NoError(t, err)

	// Remotely the customer has the kept card plus one the store never saw.
	gateway.AttachedToList = []string{kept.StripePaymentMethodID, "pm_orphaned"}

	report, err := service.Reconcile(context.Background(), "a@x.com")
	assert.NoError(t, err)
	assert.Equal(t, []string{"pm_orphaned"}, report.MissingLocally)
	if assert.Len(t, report.MissingRemotely, 1) {
		assert.Equal(t, "pm_gone_remotely", report.MissingRemotely[0].StripePaymentMethodID)
	}
}

func TestReconcile_NoCustomerRefMeansNothingRemote(t *testing.T) {
	service, accounts, _, _ := newCardService()
	accounts.Seed("a@x.com")

	report, err := service.Reconcile(context.Background(), "a@x.com")
	assert.NoError(t, err)
	assert.Empty(t, report.MissingLocally)
	assert.Empty(t, report.MissingRemotely)
}
