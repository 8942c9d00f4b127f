package models

import "time"

// OrderStatus represents the status of an order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusCompleted OrderStatus = "completed"
	StatusCanceled  OrderStatus = "canceled"
)

// OrderLine is one server-confirmed item-add within an order. The id is
// assigned by the server; the client never fabricates one.
type OrderLine struct {
	ID              string               `json:"id"`
	Item            string               `json:"item"`
	Qty             int                  `json:"qty"`
	DisplayItemName string               `json:"displayItemName,omitempty"`
	Selections      []SelectionWithNames `json:"selections"`
}

// Order is the client-side mirror of a server order. It is discarded on
// submit-complete, logout or explicit clear, never resumed from storage.
type Order struct {
	ID        string      `json:"id"`
	User      string      `json:"user"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	Lines     []OrderLine `json:"lines"`
}

// OrderSummary is a row of the by-status order listing.
type OrderSummary struct {
	ID        string      `json:"id"`
	User      string      `json:"user"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}
