package entity

import "time"

// ExpenseHistory is one entry of an expense's audit trail
type ExpenseHistory struct {
	ID             int64     `json:"id"`
	ExpenseID      string    `json:"expense_id"`
	ActorID        string    `json:"actor_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Action         string    `json:"action"`
	Note           string    `json:"note,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
