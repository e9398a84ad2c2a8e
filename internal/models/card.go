package models

import "time"

// Card is a display card owned by exactly one user. Ownership is fixed at
// creation; colors are stored packed as 24-bit integers.
type Card struct {
	CardID             string    `json:"card_id" db:"card_id"`
	UserID             string    `json:"user_id" db:"user_id"`
	CardName           string    `json:"card_name" db:"card_name"`
	CardBank           string    `json:"card_bank" db:"card_bank"`
	CardPrimaryColor   int32     `json:"card_primary_color" db:"card_primary_color"`
	CardSecondaryColor int32     `json:"card_secondary_color" db:"card_secondary_color"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// RunningState is the single current-balance record for a card. It is only
// ever written by the ledger's conditional update and by reset.
type RunningState struct {
	CardID       string    `json:"card_id" db:"card_id"`
	LastTotalDue float64   `json:"last_total_due" db:"last_total_due"`
	LastDelta    float64   `json:"last_delta" db:"last_delta"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// TransactionEvent is one append-only entry in a card's event log.
// total_due_input is the absolute balance reported at transaction time,
// not a relative amount.
type TransactionEvent struct {
	TransactionID string    `json:"transaction_id" db:"transaction_id"`
	CardID        string    `json:"card_id" db:"card_id"`
	TotalDueInput float64   `json:"total_due_input" db:"total_due_input"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// CreateCardPayload is the /card/create request body.
type CreateCardPayload struct {
	CardName           string `json:"card_name" validate:"required,max=100"`
	CardBank           string `json:"card_bank" validate:"required,max=100"`
	CardPrimaryColor   RGB    `json:"card_primary_color"`
	CardSecondaryColor RGB    `json:"card_secondary_color"`
}

// UpdateCardPayload is the /card/update request body.
type UpdateCardPayload struct {
	CardID             string `json:"card_id" validate:"required"`
	CardName           string `json:"card_name" validate:"required,max=100"`
	CardBank           string `json:"card_bank" validate:"required,max=100"`
	CardPrimaryColor   RGB    `json:"card_primary_color"`
	CardSecondaryColor RGB    `json:"card_secondary_color"`
}

// CardIDPayload covers the request bodies that address a single card
// (/card/delete, /card/get_card, /card/history, /card/reset).
type CardIDPayload struct {
	CardID string `json:"card_id" validate:"required"`
}

// InsertTransactionPayload is the /card/insert_transaction request body.
// AmountDue is the reported absolute balance.
type InsertTransactionPayload struct {
	CardID    string  `json:"card_id" validate:"required"`
	AmountDue float64 `json:"amount_due" validate:"gte=0"`
}

// CardStatusResponse is the shared {card_id, status} mutation response.
type CardStatusResponse struct {
	CardID string `json:"card_id"`
	Status bool   `json:"status"`
}

// InsertTransactionResponse carries the fresh event id and the delta the
// accepted transaction produced (in amount_due, matching the client contract).
type InsertTransactionResponse struct {
	TransactionID string  `json:"transaction_id"`
	AmountDue     float64 `json:"amount_due"`
	Status        bool    `json:"status"`
}

// GetCardResponse is the JSON view of one card with its running state,
// colors unpacked back to [r, g, b].
type GetCardResponse struct {
	CardID             string  `json:"card_id"`
	CardName           string  `json:"card_name"`
	CardBank           string  `json:"card_bank"`
	CardPrimaryColor   RGB     `json:"card_primary_color"`
	CardSecondaryColor RGB     `json:"card_secondary_color"`
	LastTotalDue       float64 `json:"last_total_due"`
	LastDelta          float64 `json:"last_delta"`
}
