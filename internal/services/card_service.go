package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/flinderax/backend/internal/audit"
	"github.com/flinderax/backend/internal/cache"
	"github.com/flinderax/backend/internal/models"
	"github.com/flinderax/backend/internal/wire"
)

const binaryContentType = "application/octet-stream"

// CardService exposes the card CRUD and ledger operations over HTTP.
// Reads of the full card list go through the cache-aside layer; every
// mutation invalidates the owner's cached view after its own commit.
type CardService struct {
	db        *sql.DB
	cache     cache.CardCache
	ledger    *LedgerService
	audit     *audit.AuditLogger
	validator *ValidationHelper
}

func NewCardService(db *sql.DB, cardCache cache.CardCache) *CardService {
	return &CardService{
		db:        db,
		cache:     cardCache,
		ledger:    NewLedgerService(db, cardCache),
		audit:     audit.NewAuditLogger(),
		validator: NewValidationHelper(),
	}
}

// Ledger exposes the underlying ledger service.
func (cs *CardService) Ledger() *LedgerService {
	return cs.ledger
}

func userFromContext(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value("userID").(string)
	return userID, ok && userID != ""
}

// invalidateOwner drops the cached card list after a successful commit.
func (cs *CardService) invalidateOwner(r *http.Request, userID string) {
	if err := cs.cache.InvalidateUser(r.Context(), userID); err != nil {
		log.Printf("[CARD] Cache invalidation failed for user %s: %v", userID, err)
	}
}

// CreateCard creates a card together with its zeroed running state
// @Summary Create a card
// @Description Create a display card and its running balance state atomically
// @Tags cards
// @Accept json
// @Produce json
// @Param card body models.CreateCardPayload true "Card details"
// @Success 200 {object} models.CardStatusResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /card/create [post]
func (cs *CardService) CreateCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.CreateCardPayload
	if !cs.validator.DecodeRequest(w, r, &req) {
		return
	}

	cardID := uuid.NewString()
	primaryColor := models.PackColor(req.CardPrimaryColor)
	secondaryColor := models.PackColor(req.CardSecondaryColor)

	// Card and running state are born together; a failure on either side
	// rolls back both.
	tx, err := cs.db.BeginTx(r.Context(), nil)
	if err != nil {
		log.Printf("[CARD] Failed to begin transaction: %v", err)
		SendErrorResponse(w, "Failed to create card", http.StatusInternalServerError, nil)
		return
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(r.Context(), `
		INSERT INTO cards (card_id, user_id, card_name, card_bank, card_primary_color, card_secondary_color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`, cardID, userID, req.CardName, req.CardBank, primaryColor, secondaryColor)
	if err != nil {
		log.Printf("[CARD] Failed to insert card: %v", err)
		SendErrorResponse(w, "Failed to create card", http.StatusInternalServerError, nil)
		return
	}

	_, err = tx.ExecContext(r.Context(), `
		INSERT INTO running_states (card_id, last_total_due, last_delta, updated_at)
		VALUES ($1, 0, 0, NOW())
	`, cardID)
	if err != nil {
		log.Printf("[CARD] Failed to insert running state: %v", err)
		SendErrorResponse(w, "Failed to create card", http.StatusInternalServerError, nil)
		return
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[CARD] Failed to commit card creation: %v", err)
		SendErrorResponse(w, "Failed to create card", http.StatusInternalServerError, nil)
		return
	}

	cs.invalidateOwner(r, userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.CardStatusResponse{CardID: cardID, Status: true})
}

// UpdateCard updates a card's display attributes
// @Summary Update a card
// @Tags cards
// @Accept json
// @Produce json
// @Param card body models.UpdateCardPayload true "Card details"
// @Success 200 {object} models.CardStatusResponse
// @Failure 404 {object} ErrorResponse
// @Router /card/update [post]
func (cs *CardService) UpdateCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.UpdateCardPayload
	if !cs.validator.DecodeRequest(w, r, &req) {
		return
	}

	result, err := cs.db.ExecContext(r.Context(), `
		UPDATE cards
		SET card_name = $3, card_bank = $4, card_primary_color = $5, card_secondary_color = $6, updated_at = NOW()
		WHERE card_id = $1 AND user_id = $2
	`, req.CardID, userID, req.CardName, req.CardBank,
		models.PackColor(req.CardPrimaryColor), models.PackColor(req.CardSecondaryColor))
	if err != nil {
		log.Printf("[CARD] Failed to update card %s: %v", req.CardID, err)
		SendErrorResponse(w, "Failed to update card", http.StatusInternalServerError, nil)
		return
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		SendErrorResponse(w, "Failed to update card", http.StatusInternalServerError, nil)
		return
	}
	if rowsAffected == 0 {
		SendErrorResponse(w, "Card not found", http.StatusNotFound, nil)
		return
	}

	cs.invalidateOwner(r, userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.CardStatusResponse{CardID: req.CardID, Status: true})
}

// DeleteCard removes a card with its running state and event history
// @Summary Delete a card
// @Description Delete a card; running state and transaction events cascade in the same transaction
// @Tags cards
// @Accept json
// @Produce json
// @Param card body models.CardIDPayload true "Card id"
// @Success 200 {object} models.CardStatusResponse
// @Failure 404 {object} ErrorResponse
// @Router /card/delete [post]
func (cs *CardService) DeleteCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.CardIDPayload
	if !cs.validator.DecodeRequest(w, r, &req) {
		return
	}

	tx, err := cs.db.BeginTx(r.Context(), nil)
	if err != nil {
		log.Printf("[CARD] Failed to begin transaction: %v", err)
		SendErrorResponse(w, "Failed to delete card", http.StatusInternalServerError, nil)
		return
	}
	defer tx.Rollback()

	var owned bool
	err = tx.QueryRowContext(r.Context(), `
		SELECT EXISTS(SELECT 1 FROM cards WHERE card_id = $1 AND user_id = $2)
	`, req.CardID, userID).Scan(&owned)
	if err != nil {
		log.Printf("[CARD] Ownership check failed for card %s: %v", req.CardID, err)
		SendErrorResponse(w, "Failed to delete card", http.StatusInternalServerError, nil)
		return
	}
	if !owned {
		SendErrorResponse(w, "Card not found or you don't have permission to delete it", http.StatusNotFound, nil)
		return
	}

	// Cascade: events, then state, then the card itself.
	for _, query := range []string{
		`DELETE FROM transaction_events WHERE card_id = $1`,
		`DELETE FROM running_states WHERE card_id = $1`,
		`DELETE FROM cards WHERE card_id = $1`,
	} {
		if _, err := tx.ExecContext(r.Context(), query, req.CardID); err != nil {
			log.Printf("[CARD] Failed to delete card %s: %v", req.CardID, err)
			SendErrorResponse(w, "Failed to delete card", http.StatusInternalServerError, nil)
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[CARD] Failed to commit card deletion: %v", err)
		SendErrorResponse(w, "Failed to delete card", http.StatusInternalServerError, nil)
		return
	}

	cs.audit.LogOperation(req.CardID, userID, "CARD_DELETE", "card, state and events removed")
	cs.invalidateOwner(r, userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.CardStatusResponse{CardID: req.CardID, Status: true})
}

// GetCard returns one card with its running state
// @Summary Get a card
// @Tags cards
// @Accept json
// @Produce json
// @Param card body models.CardIDPayload true "Card id"
// @Success 200 {object} models.GetCardResponse
// @Failure 404 {object} ErrorResponse
// @Router /card/get_card [post]
func (cs *CardService) GetCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.CardIDPayload
	if !cs.validator.DecodeRequest(w, r, &req) {
		return
	}

	var (
		resp           models.GetCardResponse
		primaryColor   int32
		secondaryColor int32
	)
	err := cs.db.QueryRowContext(r.Context(), `
		SELECT c.card_id, c.card_name, c.card_bank, c.card_primary_color, c.card_secondary_color,
		       rs.last_total_due, rs.last_delta
		FROM cards c
		JOIN running_states rs ON rs.card_id = c.card_id
		WHERE c.card_id = $1 AND c.user_id = $2
	`, req.CardID, userID).Scan(
		&resp.CardID, &resp.CardName, &resp.CardBank, &primaryColor, &secondaryColor,
		&resp.LastTotalDue, &resp.LastDelta,
	)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, "Card not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[CARD] Failed to fetch card %s: %v", req.CardID, err)
		SendErrorResponse(w, "Failed to fetch card", http.StatusInternalServerError, nil)
		return
	}

	resp.CardPrimaryColor = models.UnpackColor(primaryColor)
	resp.CardSecondaryColor = models.UnpackColor(secondaryColor)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetAllCards returns every card of the requester as a binary CardList
// @Summary List all cards
// @Description Cache-accelerated; the response is a flinderax_backend.CardList protobuf payload
// @Tags cards
// @Produce octet-stream
// @Success 200 {string} binary
// @Router /card/get_all_cards [get]
func (cs *CardService) GetAllCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	// Cache-aside: a hit returns the stored payload verbatim without
	// touching Postgres; any cache error is treated as a miss.
	payload, err := cs.cache.GetCardsForUser(r.Context(), userID)
	if err == nil {
		w.Header().Set("Content-Type", binaryContentType)
		w.Write(payload)
		return
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("[CARD] Cache read failed for user %s: %v", userID, err)
	}

	rows, err := cs.db.QueryContext(r.Context(), `
		SELECT c.card_id, c.card_name, c.card_bank, c.card_primary_color, c.card_secondary_color,
		       rs.last_total_due, rs.last_delta
		FROM cards c
		JOIN running_states rs ON rs.card_id = c.card_id
		WHERE c.user_id = $1
		ORDER BY c.created_at ASC
	`, userID)
	if err != nil {
		log.Printf("[CARD] Failed to list cards for user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch cards", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	list := wire.CardList{}
	for rows.Next() {
		var (
			c                       wire.Card
			lastTotalDue, lastDelta float64
		)
		if err := rows.Scan(&c.CardID, &c.CardName, &c.CardBank,
			&c.CardPrimaryColor, &c.CardSecondaryColor, &lastTotalDue, &lastDelta); err != nil {
			log.Printf("[CARD] Failed to scan card row: %v", err)
			SendErrorResponse(w, "Failed to fetch cards", http.StatusInternalServerError, nil)
			return
		}
		c.LastTotalDue = float32(lastTotalDue)
		c.LastDelta = float32(lastDelta)
		list.Cards = append(list.Cards, c)
	}
	if err := rows.Err(); err != nil {
		SendErrorResponse(w, "Failed to fetch cards", http.StatusInternalServerError, nil)
		return
	}

	payload = list.Marshal()

	if err := cs.cache.PutCardsForUser(r.Context(), userID, payload); err != nil {
		log.Printf("[CARD] Cache write failed for user %s: %v", userID, err)
	}

	w.Header().Set("Content-Type", binaryContentType)
	w.Write(payload)
}

// GetHistory returns a card's event log as a binary CardHistoryList
// @Summary Get transaction history
// @Description Events ordered newest first; the response is a flinderax_backend.CardHistoryList protobuf payload
// @Tags cards
// @Accept json
// @Produce octet-stream
// @Param card body models.CardIDPayload true "Card id"
// @Success 200 {string} binary
// @Failure 404 {object} ErrorResponse
// @Router /card/history [post]
func (cs *CardService) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.CardIDPayload
	if !cs.validator.DecodeRequest(w, r, &req) {
		return
	}

	var owned bool
	err := cs.db.QueryRowContext(r.Context(), `
		SELECT EXISTS(SELECT 1 FROM cards WHERE card_id = $1 AND user_id = $2)
	`, req.CardID, userID).Scan(&owned)
	if err != nil {
		log.Printf("[CARD] Ownership check failed for card %s: %v", req.CardID, err)
		SendErrorResponse(w, "Failed to fetch history", http.StatusInternalServerError, nil)
		return
	}
	if !owned {
		SendErrorResponse(w, "Card not found", http.StatusNotFound, nil)
		return
	}

	// Descending timestamp, insertion order breaking ties.
	rows, err := cs.db.QueryContext(r.Context(), `
		SELECT transaction_id, total_due_input, to_char(created_at, 'YYYY-MM-DD HH24:MI:SS')
		FROM transaction_events
		WHERE card_id = $1
		ORDER BY created_at DESC, id DESC
	`, req.CardID)
	if err != nil {
		log.Printf("[CARD] Failed to fetch history for card %s: %v", req.CardID, err)
		SendErrorResponse(w, "Failed to fetch history", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	list := wire.CardHistoryList{}
	for rows.Next() {
		var (
			h             wire.CardTransactionHistory
			totalDueInput float64
			createdAt     string
		)
		if err := rows.Scan(&h.TransactionID, &totalDueInput, &createdAt); err != nil {
			log.Printf("[CARD] Failed to scan history row: %v", err)
			SendErrorResponse(w, "Failed to fetch history", http.StatusInternalServerError, nil)
			return
		}
		h.TotalDueInput = float32(totalDueInput)
		h.TimestampSeconds, h.TimestampNanos = wire.SplitTimestamp(wire.ParseEventTimestamp(createdAt))
		list.Histories = append(list.Histories, h)
	}
	if err := rows.Err(); err != nil {
		SendErrorResponse(w, "Failed to fetch history", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", binaryContentType)
	w.Write(list.Marshal())
}

// InsertTransaction records a reported balance against a card
// @Summary Insert a transaction
// @Description Append a balance report to the card's event log and move its running state; rejected when the reported total falls below the current balance
// @Tags cards
// @Accept json
// @Produce json
// @Param transaction body models.InsertTransactionPayload true "Reported balance"
// @Success 200 {object} models.InsertTransactionResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /card/insert_transaction [post]
func (cs *CardService) InsertTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.InsertTransactionPayload
	if !cs.validator.DecodeRequest(w, r, &req) {
		return
	}

	transactionID, delta, err := cs.ledger.InsertTransaction(r.Context(), req.CardID, userID, req.AmountDue)
	if err != nil {
		switch {
		case errors.Is(err, ErrCardNotFound):
			SendErrorResponse(w, "Card not found", http.StatusNotFound, nil)
		case errors.Is(err, ErrStaleTransaction):
			SendErrorResponse(w, fmt.Sprintf("Reported total %.2f is below the current balance", req.AmountDue), http.StatusConflict, nil)
		case errors.Is(err, ErrStateMissing):
			SendErrorResponse(w, "Card state is inconsistent", http.StatusConflict, nil)
		default:
			log.Printf("[CARD] Failed to insert transaction for card %s: %v", req.CardID, err)
			SendErrorResponse(w, "Failed to insert transaction", http.StatusInternalServerError, nil)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.InsertTransactionResponse{
		TransactionID: transactionID,
		AmountDue:     delta,
		Status:        true,
	})
}

// Reset clears a card's history and zeroes its balance
// @Summary Reset a card
// @Tags cards
// @Accept json
// @Produce json
// @Param card body models.CardIDPayload true "Card id"
// @Success 200 {object} models.CardStatusResponse
// @Failure 404 {object} ErrorResponse
// @Router /card/reset [post]
func (cs *CardService) Reset(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.CardIDPayload
	if !cs.validator.DecodeRequest(w, r, &req) {
		return
	}

	if err := cs.ledger.Reset(r.Context(), req.CardID, userID); err != nil {
		if errors.Is(err, ErrCardNotFound) {
			SendErrorResponse(w, "Card not found", http.StatusNotFound, nil)
			return
		}
		log.Printf("[CARD] Failed to reset card %s: %v", req.CardID, err)
		SendErrorResponse(w, "Failed to reset card", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.CardStatusResponse{CardID: req.CardID, Status: true})
}
