package models

import (
	"atelier/src/types"
	"time"

	"github.com/google/uuid"
)

type Order struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Reference uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();uniqueIndex" json:"reference"`
	UserID    *uint     `json:"user_id,omitempty"`

	GuestName    string `json:"guest_name,omitempty"`
	GuestEmail   string `json:"guest_email,omitempty"`
	GuestPhone   string `json:"guest_phone,omitempty"`
	GuestAddress string `json:"guest_address,omitempty"`

	Total         float64             `json:"total"`
	Status        types.OrderStatus   `gorm:"default:'pending'" json:"status"`
	PaymentStatus types.PaymentStatus `gorm:"default:'unpaid'" json:"payment_status"`
	PaymentMethod types.PaymentProvider `json:"payment_method,omitempty"`

	// Exactly one of these is set once a provider checkout has been created.
	StripePaymentIntentId *string `json:"-"`
	SquarePaymentId       *string `json:"-"`
	CheckoutReference     *string `json:"-"`

	GiftCardCode   string  `json:"gift_card_code,omitempty"`
	GiftCardAmount float64 `json:"gift_card_amount,omitempty"`

	RefundAmount  float64      `json:"refund_amount,omitempty"`
	RefundReason  string       `json:"refund_reason,omitempty"`
	RefundedAt    *time.Time   `json:"refunded_at,omitempty"`
	RefundDetails *types.JSONB `gorm:"type:jsonb" json:"refund_details,omitempty"`

	Items []OrderItem `json:"items,omitempty"`
	User  *User       `gorm:"foreignKey:user_id" json:"user,omitempty"`

	types.Timestamps
}

type OrderItem struct {
	ID        uint    `gorm:"primarykey" json:"id"`
	OrderID   uint    `json:"order_id,omitempty"`
	ProductID uint    `json:"product_id,omitempty"`
	Name      string  `json:"name,omitempty"`
	Qty       uint    `json:"qty"`
	UnitPrice float64 `json:"unit_price"`

	Product *Product `gorm:"foreignKey:product_id" json:"product,omitempty"`

	types.Timestamps
}

// ProviderReference returns whichever provider payment reference the order
// carries, if any.
func (o *Order) ProviderReference() *string {
	if o.StripePaymentIntentId != nil {
		return o.StripePaymentIntentId
	}
	return o.SquarePaymentId
}

// ChargedAmount is the portion of the total settled through the payment
// gateway, i.e. total minus whatever a gift card covered.
func (o *Order) ChargedAmount() float64 {
	return o.Total - o.GiftCardAmount
}
