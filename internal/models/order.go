package models

import "time"

// OrderStatus captures the order tracking lifecycle.
type OrderStatus string

const (
	OrderPlaced     OrderStatus = "PLACED"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderDispatched OrderStatus = "DISPATCHED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// orderTransitions is the allowed edge set of the order lifecycle.
// DELIVERED and CANCELLED are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPlaced:     {OrderConfirmed, OrderCancelled},
	OrderConfirmed:  {OrderDispatched, OrderCancelled},
	OrderDispatched: {OrderDelivered},
}

// CanTransitionOrder reports whether moving from one order status to
// another follows the lifecycle graph.
func CanTransitionOrder(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order represents a stock order placed by a distributor or dealer.
type Order struct {
	ID          string      `db:"id" json:"id"`
	Number      string      `db:"number" json:"number"`
	ModelID     string      `db:"model_id" json:"model_id"`
	Quantity    int         `db:"quantity" json:"quantity"`
	PlacedByID  string      `db:"placed_by_id" json:"placed_by_id"`
	PlacedRole  UserRole    `db:"placed_role" json:"placed_role"`
	Status      OrderStatus `db:"status" json:"status"`
	ConfirmedAt *time.Time  `db:"confirmed_at" json:"confirmed_at,omitempty"`
	DeliveredAt *time.Time  `db:"delivered_at" json:"delivered_at,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// OrderFilter captures filtering criteria for listing orders.
type OrderFilter struct {
	Status     *OrderStatus
	PlacedByID string
	ModelID    string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
