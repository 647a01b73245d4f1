package models

import (
	"atelier/src/types"
	"time"
)

type GiftCard struct {
	ID      uint    `gorm:"primarykey" json:"id"`
	Code    string  `gorm:"uniqueIndex;size:8" json:"code"`
	Amount  float64 `json:"amount"`
	Balance float64 `json:"balance"`
	Status  types.GiftCardStatus `gorm:"default:'active'" json:"status"`
	Used    bool                 `gorm:"default:false" json:"used"`

	PurchaserName  string     `json:"purchaser_name,omitempty"`
	PurchaserEmail string     `json:"purchaser_email,omitempty"`
	RecipientEmail string     `json:"recipient_email,omitempty"`
	Message        string     `json:"message,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`

	Transactions []GiftCardTransaction `json:"transactions,omitempty"`

	types.Timestamps
}

// DerivedStatus recomputes status from expiry and balance: expiry wins, then
// a drained balance, else active.
func (g *GiftCard) DerivedStatus(now time.Time) types.GiftCardStatus {
	if g.ExpiresAt != nil && g.ExpiresAt.Before(now) {
		return types.GIFTCARD_EXPIRED
	}
	if g.Balance <= 0 {
		return types.GIFTCARD_USED
	}
	return types.GIFTCARD_ACTIVE
}

// GiftCardTransaction is an append-only ledger row. Positive amounts credit
// the card (purchase, refund), negative amounts debit it (usage). Ledger rows
// are never updated or deleted.
type GiftCardTransaction struct {
	ID         uint                  `gorm:"primarykey" json:"id"`
	GiftCardID uint                  `json:"gift_card_id,omitempty"`
	Amount     float64               `json:"amount"`
	Type       types.GiftCardTxnType `json:"type"`
	OrderRef   *string               `json:"order_ref,omitempty"`
	Note       string                `json:"note,omitempty"`

	GiftCard *GiftCard `json:"-"`

	types.Timestamps
}
