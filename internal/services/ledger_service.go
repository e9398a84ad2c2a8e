package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/flinderax/backend/internal/audit"
	"github.com/flinderax/backend/internal/cache"
)

var (
	// ErrCardNotFound covers both a missing card and a card owned by
	// someone else; the two are indistinguishable to the caller.
	ErrCardNotFound = errors.New("card not found")

	// ErrStaleTransaction means the reported total fell below the current
	// balance and the monotonicity condition rejected the update.
	ErrStaleTransaction = errors.New("reported total below current balance")

	// ErrStateMissing means a card exists without its running state row.
	// Cards and running states are created together, so this is a
	// data-integrity failure, not a user error.
	ErrStateMissing = errors.New("running state missing for card")
)

// LedgerService owns the append-only event log and the derived running state.
// Every mutation is one atomic unit of work: the event append and the
// conditional balance update commit or roll back together, so the log and
// the state can never diverge. Concurrent transactions on one card serialize
// on the running_states row lock; transactions on different cards are
// independent.
type LedgerService struct {
	db    *sql.DB
	cache cache.CardCache
	audit *audit.AuditLogger
}

func NewLedgerService(db *sql.DB, cardCache cache.CardCache) *LedgerService {
	return &LedgerService{
		db:    db,
		cache: cardCache,
		audit: audit.NewAuditLogger(),
	}
}

// InsertTransaction appends a transaction event reporting an absolute balance
// and moves the card's running state to it. The update is conditioned on
// reportedTotal >= last_total_due and executed as a single conditional UPDATE,
// so the storage engine, not the application, arbitrates concurrent inserts.
// Returns the fresh transaction id and the signed delta from the previous
// balance.
func (s *LedgerService) InsertTransaction(ctx context.Context, cardID, userID string, reportedTotal float64) (string, float64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	transactionID, delta, err := s.insertTransactionTx(ctx, tx, cardID, userID, reportedTotal)
	if err != nil {
		s.audit.LogError(transactionID, cardID, err)
		return "", 0, err
	}

	if err := tx.Commit(); err != nil {
		s.audit.LogError(transactionID, cardID, err)
		return "", 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.audit.LogTransaction(transactionID, cardID, reportedTotal, delta, "ACCEPTED")
	s.invalidateOwner(ctx, userID)

	return transactionID, delta, nil
}

func (s *LedgerService) insertTransactionTx(ctx context.Context, tx *sql.Tx, cardID, userID string, reportedTotal float64) (string, float64, error) {
	// Ownership predicate lives inside the same unit of work as the
	// mutation, so there is no check/use window.
	var owned bool
	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM cards WHERE card_id = $1 AND user_id = $2)
	`, cardID, userID).Scan(&owned)
	if err != nil {
		return "", 0, fmt.Errorf("ownership check failed: %w", err)
	}
	if !owned {
		return "", 0, ErrCardNotFound
	}

	transactionID := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO transaction_events (transaction_id, card_id, total_due_input, created_at)
		VALUES ($1, $2, $3, NOW())
	`, transactionID, cardID, reportedTotal)
	if err != nil {
		return transactionID, 0, fmt.Errorf("failed to append event: %w", err)
	}

	// Single atomic read-modify-write: the WHERE clause carries the
	// monotonicity condition and the row lock serializes concurrent
	// inserts on the same card.
	var delta float64
	err = tx.QueryRowContext(ctx, `
		UPDATE running_states
		SET last_delta = $2 - last_total_due, last_total_due = $2, updated_at = NOW()
		WHERE card_id = $1 AND last_total_due <= $2
		RETURNING last_delta
	`, cardID, reportedTotal).Scan(&delta)

	if err == sql.ErrNoRows {
		return transactionID, 0, s.classifyRejectedUpdate(ctx, tx, cardID)
	}
	if err != nil {
		return transactionID, 0, fmt.Errorf("failed to update running state: %w", err)
	}

	return transactionID, delta, nil
}

// classifyRejectedUpdate distinguishes a monotonicity rejection from a
// missing state row. Either way the caller rolls back, taking the appended
// event with it.
func (s *LedgerService) classifyRejectedUpdate(ctx context.Context, tx *sql.Tx, cardID string) error {
	var exists bool
	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM running_states WHERE card_id = $1)
	`, cardID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to inspect running state: %w", err)
	}
	if exists {
		return ErrStaleTransaction
	}
	return ErrStateMissing
}

// Reset erases the card's event history and zeroes its running state in one
// atomic unit. The FOR UPDATE lock on the state row serializes the reset
// against concurrent inserts on the same card.
func (s *LedgerService) Reset(ctx context.Context, cardID, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var currentTotal float64
	err = tx.QueryRowContext(ctx, `
		SELECT rs.last_total_due
		FROM running_states rs
		JOIN cards c ON c.card_id = rs.card_id
		WHERE rs.card_id = $1 AND c.user_id = $2
		FOR UPDATE OF rs
	`, cardID, userID).Scan(&currentTotal)
	if err == sql.ErrNoRows {
		return ErrCardNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock running state: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM transaction_events WHERE card_id = $1
	`, cardID); err != nil {
		return fmt.Errorf("failed to clear event log: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE running_states
		SET last_total_due = 0, last_delta = 0, updated_at = NOW()
		WHERE card_id = $1
	`, cardID); err != nil {
		return fmt.Errorf("failed to reset running state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}

	s.audit.LogOperation(cardID, userID, "RESET", fmt.Sprintf("history cleared, previous total %.2f", currentTotal))
	s.invalidateOwner(ctx, userID)

	return nil
}

// invalidateOwner drops the owner's cached card list after a commit.
// Best effort: a cache failure costs one extra pass through Postgres,
// never the request.
func (s *LedgerService) invalidateOwner(ctx context.Context, userID string) {
	if err := s.cache.InvalidateUser(ctx, userID); err != nil {
		log.Printf("[LEDGER] Cache invalidation failed for user %s: %v", userID, err)
	}
}
