package models

import (
	"atelier/src/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGiftCardDerivedStatus(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	expired := GiftCard{Balance: 20, ExpiresAt: &past}
	assert.Equal(t, types.GIFTCARD_EXPIRED, expired.DerivedStatus(now))

	drained := GiftCard{Balance: 0, ExpiresAt: &future}
	assert.Equal(t, types.GIFTCARD_USED, drained.DerivedStatus(now))

	active := GiftCard{Balance: 20, ExpiresAt: &future}
	assert.Equal(t, types.GIFTCARD_ACTIVE, active.DerivedStatus(now))

	noExpiry := GiftCard{Balance: 20}
	assert.Equal(t, types.GIFTCARD_ACTIVE, noExpiry.DerivedStatus(now))
}

func TestSessionSpotsLeft(t *testing.T) {
	s := WorkshopSession{Capacity: 8, BookedCount: 5}
	assert.Equal(t, uint(3), s.SpotsLeft())

	full := WorkshopSession{Capacity: 8, BookedCount: 8}
	assert.Equal(t, uint(0), full.SpotsLeft())

	drifted := WorkshopSession{Capacity: 8, BookedCount: 9}
	assert.Equal(t, uint(0), drifted.SpotsLeft())
}

func TestOrderChargedAmount(t *testing.T) {
	order := Order{Total: 50, GiftCardAmount: 30}
	assert.Equal(t, 20.0, order.ChargedAmount())

	noCard := Order{Total: 50}
	assert.Equal(t, 50.0, noCard.ChargedAmount())
}

func TestReservationChargedAmount(t *testing.T) {
	r := Reservation{AmountPaid: 90, GiftCardAmount: 90}
	assert.Equal(t, 0.0, r.ChargedAmount())
}
