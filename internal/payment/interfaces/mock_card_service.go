package interfaces

import (
	"context"

	"github.com/jmroczek/PayVault/internal/payment/application"
	"github.com/jmroczek/PayVault/internal/payment/domain"
)

type MockCardService struct {
	SetupResult *application.SetupIntentResult
	Card        *domain.SavedCard
	Cards       []domain.SavedCard
	Report      *domain.ReconciliationReport
	Err         error

	RemovedCardIDs []string
}

func NewMockCardService() *MockCardService {
	return &MockCardService{}
}

func (m *MockCardService) BeginSetup(_ context.Context, _ string) (*application.SetupIntentResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.SetupResult, nil
}

func (m *MockCardService) ConfirmCard(_ context.Context, _, _ string) (*domain.SavedCard, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Card, nil
}

func (m *MockCardService) ListCards(_ context.Context, _ string) ([]domain.SavedCard, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Cards, nil
}

func (m *MockCardService) RemoveCard(_ context.Context, _, cardID string) error {
	if m.Err != nil {
		return m.Err
	}
	m.RemovedCardIDs = append(m.RemovedCardIDs, cardID)
	return nil
}

func (m *MockCardService) Reconcile(_ context.Context, _ string) (*domain.ReconciliationReport, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Report, nil
}
