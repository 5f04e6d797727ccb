package domain

import (
	"context"
	"time"
)

// SavedCard is a stored payment method. Only display metadata lives here;
// the card number never reaches this service, Stripe holds the instrument
// and we keep a reference to it.
type SavedCard struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"userId"`
	StripePaymentMethodID string    `json:"stripePaymentMethodId"`
	Last4                 string    `json:"last4"`
	Brand                 string    `json:"brand"`
	ExpMonth              int       `json:"expMonth"`
	ExpYear               int       `json:"expYear"`
	IsDefault             bool      `json:"isDefault"`
	CreatedAt             time.Time `json:"createdAt"`
}

// CardDetails is the card payload of a processor-side payment method.
type CardDetails struct {
	Last4    string
	Brand    string
	ExpMonth int
	ExpYear  int
}

// ReconciliationReport surfaces processor/store divergence left behind by
// aborted confirm or remove operations. It is informational only, nothing
// is corrected automatically.
type ReconciliationReport struct {
	// MissingLocally lists payment method refs attached to the customer at
	// the processor with no stored row.
	MissingLocally []string `json:"missingLocally"`
	// MissingRemotely lists stored rows whose processor-side object is gone.
	MissingRemotely []SavedCard `json:"missingRemotely"`
}

type CardRepository interface {
	// InsertCard persists the card, deciding is_default atomically: the card
	// becomes default iff the owner has no default row at insert time. The
	// decided flag and creation time are written back into the card.
	InsertCard(ctx context.Context, card *SavedCard) error
	FindUserCards(ctx context.Context, userID string) ([]SavedCard, error)
	FindCardByID(ctx context.Context, cardID string) (*SavedCard, error)
	// DeleteCardAndPromote removes the row and, when it was the default and
	// other rows remain, promotes the oldest remaining row in the same
	// transaction.
	DeleteCardAndPromote(ctx context.Context, cardID, userID string) error
}

// PaymentGateway abstracts the remote payment processor.
type PaymentGateway interface {
	CreateCustomer(ctx context.Context, email, userID string) (string, error)
	CreateSetupIntent(ctx context.Context, customerRef string) (string, error)
	// RetrieveMethod returns nil details (and nil error) when the payment
	// method exists but carries no card.
	RetrieveMethod(ctx context.Context, methodRef string) (*CardDetails, error)
	DetachMethod(ctx context.Context, methodRef string) error
	ListMethods(ctx context.Context, customerRef string) ([]string, error)
}
