package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmroczek/PayVault/internal/payment/domain"
	paymentErrors "github.com/jmroczek/PayVault/internal/payment/errors"
)

const (
	uniqueViolationCode = "23505"
	oneDefaultIndexName = "saved_cards_one_default_per_user"
)

type CardRepository struct {
	db *sql.DB
}

func NewCardRepository(db *sql.DB) *CardRepository {
	return &CardRepository{db: db}
}

func violatesConstraint(err error, constraint string) bool {
	var pgError *pgconn.PgError
	if !errors.As(err, &pgError) {
		return false
	}
	return pgError.Code == uniqueViolationCode && pgError.ConstraintName == constraint
}

// InsertCard decides is_default inside the INSERT itself: the row becomes
// default iff no default row exists for the owner at that moment. Two
// concurrent first-card inserts both pass the NOT EXISTS check, but the
// partial unique index rejects the second; that loser is re-inserted as
// non-default, so a single read never sees two defaults.
func (r *CardRepository) InsertCard(ctx context.Context, card *domain.SavedCard) error {
	query := `
		INSERT INTO saved_cards (id, user_id, stripe_payment_method_id, last4, brand, exp_month, exp_year, is_default, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
			NOT EXISTS (SELECT 1 FROM saved_cards WHERE user_id = $2 AND is_default), NOW())
		RETURNING is_default, created_at;
	`
	err := r.db.QueryRowContext(ctx, query,
		card.ID, card.UserID, card.StripePaymentMethodID, card.Last4, card.Brand, card.ExpMonth, card.ExpYear,
	).Scan(&card.IsDefault, &card.CreatedAt)

	if violatesConstraint(err, oneDefaultIndexName) {
		fallback := `
			INSERT INTO saved_cards (id, user_id, stripe_payment_method_id, last4, brand, exp_month, exp_year, is_default, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, false, NOW())
			RETURNING is_default, created_at;
		`
		err = r.db.QueryRowContext(ctx, fallback,
			card.ID, card.UserID, card.StripePaymentMethodID, card.Last4, card.Brand, card.ExpMonth, card.ExpYear,
		).Scan(&card.IsDefault, &card.CreatedAt)
		if violatesConstraint(err, oneDefaultIndexName) {
			return paymentErrors.NewConflict("could not settle the default card, please retry")
		}
	}
	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == uniqueViolationCode {
			return paymentErrors.NewConflict("payment method is already saved")
		}
		return fmt.Errorf("could not save card: %v", err)
	}
	return nil
}

func (r *CardRepository) FindUserCards(ctx context.Context, userID string) ([]domain.SavedCard, error) {
	query := `
		SELECT id, user_id, stripe_payment_method_id, last4, brand, exp_month, exp_year, is_default, created_at
		FROM saved_cards
		WHERE user_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("could not list cards: %v", err)
	}
	defer rows.Close()

	var cards []domain.SavedCard
	for rows.Next() {
		var card domain.SavedCard
		if err := rows.Scan(&card.ID, &card.UserID, &card.StripePaymentMethodID, &card.Last4, &card.Brand, &card.ExpMonth, &card.ExpYear, &card.IsDefault, &card.CreatedAt); err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}

func (r *CardRepository) FindCardByID(ctx context.Context, cardID string) (*domain.SavedCard, error) {
	query := `
		SELECT id, user_id, stripe_payment_method_id, last4, brand, exp_month, exp_year, is_default, created_at
		FROM saved_cards
		WHERE id = $1
	`

	var card domain.SavedCard
	err := r.db.QueryRowContext(ctx, query, cardID).Scan(&card.ID, &card.UserID, &card.StripePaymentMethodID, &card.Last4, &card.Brand, &card.ExpMonth, &card.ExpYear, &card.IsDefault, &card.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, paymentErrors.NewNotFound("card not found")
		}
		return nil, fmt.Errorf("could not find card: %v", err)
	}

	return &card, nil
}

// DeleteCardAndPromote deletes the row and, when the deleted row was the
// default and other rows remain, promotes the oldest remaining row. Both
// steps run in one transaction so no read observes a cardholder with rows
// but no default.
func (r *CardRepository) DeleteCardAndPromote(ctx context.Context, cardID, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %v", err)
	}
	defer tx.Rollback()

	var wasDefault bool
	err = tx.QueryRowContext(ctx, `
		DELETE FROM saved_cards
		WHERE id = $1 AND user_id = $2
		RETURNING is_default;
	`, cardID, userID).Scan(&wasDefault)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return paymentErrors.NewNotFound("card not found")
		}
		return fmt.Errorf("could not delete card: %v", err)
	}

	if wasDefault {
		_, err = tx.ExecContext(ctx, `
			UPDATE saved_cards
			SET is_default = true
			WHERE id = (
				SELECT id FROM saved_cards
				WHERE user_id = $1
				ORDER BY created_at, id
				LIMIT 1
			);
		`, userID)
		if err != nil {
			return fmt.Errorf("could not promote a new default card: %v", err)
		}
	}

	return tx.Commit()
}
