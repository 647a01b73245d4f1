package models

import (
	"atelier/src/types"
	"time"

	"github.com/google/uuid"
)

type Reservation struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Reference uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();uniqueIndex" json:"reference"`
	SessionID uint      `json:"session_id,omitempty"`
	UserID    *uint     `json:"user_id,omitempty"`

	GuestName  string `json:"guest_name,omitempty"`
	GuestEmail string `json:"guest_email,omitempty"`
	GuestPhone string `json:"guest_phone,omitempty"`

	Qty              uint                    `json:"qty"`
	Status           types.ReservationStatus `gorm:"default:'pending'" json:"status"`
	PaymentStatus    types.PaymentStatus     `gorm:"default:'unpaid'" json:"payment_status"`
	PaymentMethod    types.PaymentProvider   `json:"payment_method,omitempty"`
	WaitlistPosition *uint                   `json:"waitlist_position,omitempty"`
	AmountPaid       float64                 `json:"amount_paid"`

	StripePaymentIntentId *string `json:"-"`
	SquarePaymentId       *string `json:"-"`
	CheckoutReference     *string `json:"-"`

	GiftCardCode   string  `json:"gift_card_code,omitempty"`
	GiftCardAmount float64 `json:"gift_card_amount,omitempty"`

	RefundAmount  float64      `json:"refund_amount,omitempty"`
	RefundReason  string       `json:"refund_reason,omitempty"`
	RefundedAt    *time.Time   `json:"refunded_at,omitempty"`
	RefundDetails *types.JSONB `gorm:"type:jsonb" json:"refund_details,omitempty"`

	Session *WorkshopSession `gorm:"foreignKey:session_id" json:"session,omitempty"`
	User    *User            `gorm:"foreignKey:user_id" json:"user,omitempty"`

	types.Timestamps
}

func (r *Reservation) ProviderReference() *string {
	if r.StripePaymentIntentId != nil {
		return r.StripePaymentIntentId
	}
	return r.SquarePaymentId
}

func (r *Reservation) ChargedAmount() float64 {
	return r.AmountPaid - r.GiftCardAmount
}
