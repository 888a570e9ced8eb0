package event

import (
	"time"

	"github.com/google/uuid"
)

// Payload keys shared by publishers and handlers
const (
	KeyPreviousStatus = "previous_status"
	KeyNewStatus      = "new_status"
	KeyOwnerID        = "owner_id"
	KeyAmount         = "amount"
	KeyVendor         = "vendor"
	KeyReason         = "reason"
)

// Event represents a change to one expense
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	ExpenseID     string                 `json:"expense_id"`
	ActorID       string                 `json:"actor_id"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates a domain event with a generated ID and timestamp
func NewEvent(eventType Type, expenseID, actorID string, payload map[string]interface{}) *Event {
	id := uuid.NewString()
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return &Event{
		ID:            id,
		Type:          eventType,
		ExpenseID:     expenseID,
		ActorID:       actorID,
		Payload:       payload,
		Timestamp:     time.Now().UTC(),
		CorrelationID: id,
	}
}

// WithPayload returns a copy of the event with one more payload entry
func (e *Event) WithPayload(key string, value interface{}) *Event {
	payload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload[key] = value

	clone := *e
	clone.Payload = payload
	return &clone
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
