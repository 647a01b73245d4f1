package models

import (
	"atelier/src/types"
	"time"
)

// Client is the studio's lightweight CRM record, keyed by lowercased email.
// It is maintained best-effort on guest checkout and never blocks an order.
type Client struct {
	ID                uint       `gorm:"primarykey" json:"id"`
	Email             string     `gorm:"uniqueIndex" json:"email"`
	Name              string     `json:"name,omitempty"`
	Phone             string     `json:"phone,omitempty"`
	TotalOrders       uint       `gorm:"default:0" json:"total_orders"`
	TotalReservations uint       `gorm:"default:0" json:"total_reservations"`
	LastOrderDate     *time.Time `json:"last_order_date,omitempty"`

	types.Timestamps
}
