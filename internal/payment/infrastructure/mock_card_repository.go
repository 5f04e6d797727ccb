package infrastructure

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jmroczek/PayVault/internal/payment/domain"
	paymentErrors "github.com/jmroczek/PayVault/internal/payment/errors"
)

// MockCardRepository is an in-memory CardRepository with the same default
// semantics as the SQL implementation: first card per owner becomes default,
// deleting the default promotes the oldest remaining card.
type MockCardRepository struct {
	mu      sync.Mutex
	cards   map[string]*domain.SavedCard
	seq     int
	Inserts int
	Deletes int
	Err     error
}

func NewMockCardRepository() *MockCardRepository {
	return &MockCardRepository{cards: make(map[string]*domain.SavedCard)}
}

func (m *MockCardRepository) InsertCard(_ context.Context, card *domain.SavedCard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}

	hasDefault := false
	for _, existing := range m.cards {
		if existing.UserID == card.UserID && existing.IsDefault {
			hasDefault = true
			break
		}
	}
	card.IsDefault = !hasDefault
	m.seq++
	card.CreatedAt = time.Unix(int64(m.seq), 0).UTC()

	stored := *card
	m.cards[card.ID] = &stored
	m.Inserts++
	return nil
}

func (m *MockCardRepository) FindUserCards(_ context.Context, userID string) ([]domain.SavedCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	var cards []domain.SavedCard
	for _, card := range m.cards {
		if card.UserID == userID {
			cards = append(cards, *card)
		}
	}
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].CreatedAt.Equal(cards[j].CreatedAt) {
			return cards[i].ID < cards[j].ID
		}
		return cards[i].CreatedAt.Before(cards[j].CreatedAt)
	})
	return cards, nil
}

func (m *MockCardRepository) FindCardByID(_ context.Context, cardID string) (*domain.SavedCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	card, ok := m.cards[cardID]
	if !ok {
		return nil, paymentErrors.NewNotFound("card not found")
	}
	copied := *card
	return &copied, nil
}

func (m *MockCardRepository) DeleteCardAndPromote(ctx context.Context, cardID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}

	card, ok := m.cards[cardID]
	if !ok || card.UserID != userID {
		return paymentErrors.NewNotFound("card not found")
	}
	wasDefault := card.IsDefault
	delete(m.cards, cardID)
	m.Deletes++

	if !wasDefault {
		return nil
	}

	var oldest *domain.SavedCard
	for _, remaining := range m.cards {
		if remaining.UserID != userID {
			continue
		}
		if oldest == nil || remaining.CreatedAt.Before(oldest.CreatedAt) ||
			(remaining.CreatedAt.Equal(oldest.CreatedAt) && remaining.ID < oldest.ID) {
			oldest = remaining
		}
	}
	if oldest != nil {
		oldest.IsDefault = true
	}
	return nil
}
