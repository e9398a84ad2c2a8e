package audit

import (
	"encoding/json"
	"log"
	"time"
)

type AuditEvent struct {
	Timestamp     time.Time `json:"timestamp"`
	EventType     string    `json:"event_type"`
	TransactionID string    `json:"transaction_id,omitempty"`
	CardID        string    `json:"card_id"`
	Status        string    `json:"status"`
	Details       any       `json:"details,omitempty"`
}

type AuditLogger struct{}

func NewAuditLogger() *AuditLogger {
	return &AuditLogger{}
}

func (a *AuditLogger) LogTransaction(transactionID, cardID string, total, delta float64, status string) {
	event := AuditEvent{
		Timestamp:     time.Now(),
		EventType:     "TRANSACTION",
		TransactionID: transactionID,
		CardID:        cardID,
		Status:        status,
		Details: map[string]float64{
			"total_due": total,
			"delta":     delta,
		},
	}
	a.log(event)
}

func (a *AuditLogger) LogOperation(cardID, userID, operation, details string) {
	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: operation,
		CardID:    cardID,
		Status:    "SUCCESS",
		Details: map[string]string{
			"user_id": userID,
			"details": details,
		},
	}
	a.log(event)
}

func (a *AuditLogger) LogError(transactionID, cardID string, err error) {
	event := AuditEvent{
		Timestamp:     time.Now(),
		EventType:     "ERROR",
		TransactionID: transactionID,
		CardID:        cardID,
		Status:        "FAILED",
		Details:       map[string]string{"error": err.Error()},
	}
	a.log(event)
}

func (a *AuditLogger) log(event AuditEvent) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
