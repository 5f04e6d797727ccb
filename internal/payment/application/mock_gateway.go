package application

import (
	"context"
	"fmt"

	"github.com/jmroczek/PayVault/internal/payment/domain"
)

// MockPaymentGateway records calls and hands back scripted results so
// service tests can assert call ordering and counts.
type MockPaymentGateway struct {
	CustomerSeq       int
	CreatedCustomers  []string
	SetupIntents      []string
	DetachedMethods   []string
	RetrievedMethods  []string
	Cards             map[string]*domain.CardDetails // by method ref; missing entry means no card payload
	AttachedToList    []string
	CreateCustomerErr error
	SetupIntentErr    error
	RetrieveErr       error
	DetachErr         error
	ListErr           error
}

func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{Cards: make(map[string]*domain.CardDetails)}
}

func (m *MockPaymentGateway) CreateCustomer(_ context.Context, email, _ string) (string, error) {
	if m.CreateCustomerErr != nil {
		return "", m.CreateCustomerErr
	}
	m.CustomerSeq++
	ref := fmt.Sprintf("cus_%d", m.CustomerSeq)
	m.CreatedCustomers = append(m.CreatedCustomers, ref)
	return ref, nil
}

func (m *MockPaymentGateway) CreateSetupIntent(_ context.Context, customerRef string) (string, error) {
	if m.SetupIntentErr != nil {
		return "", m.SetupIntentErr
	}
	m.SetupIntents = append(m.SetupIntents, customerRef)
	return customerRef + "_secret", nil
}

func (m *MockPaymentGateway) RetrieveMethod(_ context.Context, methodRef string) (*domain.CardDetails, error) {
	if m.RetrieveErr != nil {
		return nil, m.RetrieveErr
	}
	m.RetrievedMethods = append(m.RetrievedMethods, methodRef)
	details, ok := m.Cards[methodRef]
	if !ok {
		return nil, nil
	}
	copied := *details
	return &copied, nil
}

func (m *MockPaymentGateway) DetachMethod(_ context.Context, methodRef string) error {
	if m.DetachErr != nil {
		return m.DetachErr
	}
	m.DetachedMethods = append(m.DetachedMethods, methodRef)
	return nil
}

func (m *MockPaymentGateway) ListMethods(_ context.Context, _ string) ([]string, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.AttachedToList, nil
}
