package models

import "time"

// OrderEventMessage is published to the order events fanout exchange whenever
// an order changes state server-side (submitted, completed).
type OrderEventMessage struct {
	OrderID   string    `json:"order_id"`
	User      string    `json:"user"`
	Event     string    `json:"event"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	Timestamp time.Time `json:"timestamp"`
}

// NewOrderEventMessage creates an OrderEventMessage for an order state change.
func NewOrderEventMessage(orderID, user, event, oldStatus, newStatus string) *OrderEventMessage {
	return &OrderEventMessage{
		OrderID:   orderID,
		User:      user,
		Event:     event,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Timestamp: time.Now().UTC(),
	}
}
