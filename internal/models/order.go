package models

import (
	"time"
)

// OrderStatus values follow the original checkout flow: orders start active
// and the admin moves them through completed/cancelled from the back office.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusActive    OrderStatus = "active"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order lives in PostgreSQL (orders table), not MongoDB. Checkout writes a
// denormalized snapshot of the service so order history survives catalog edits.
type Order struct {
	ID        string      `json:"id"`
	ClientID  string      `json:"client_id"`
	ServiceID string      `json:"service_id"`

	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	ZipCode       string `json:"zip_code"`

	ProductName  string      `json:"product_name"`
	ProductImage string      `json:"product_image,omitempty"`
	TotalAmount  float64     `json:"total_amount"`
	Status       OrderStatus `json:"status"`
	Deliverables string      `json:"deliverables,omitempty"` // URL set by admin on completion
	CreatedAt    time.Time   `json:"created_at"`
}

// ValidStatus reports whether s is one of the known order states.
func ValidStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusActive, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}
