package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, ORDER_CANCELED.Terminal())
	assert.True(t, ORDER_REFUNDED.Terminal())
	for _, s := range []OrderStatus{ORDER_PENDING, ORDER_CONFIRMED, ORDER_PREPARING, ORDER_SHIPPED, ORDER_DELIVERED} {
		assert.Falsef(t, s.Terminal(), "%s must not be terminal", s)
	}
}

func TestReservationStatusTerminal(t *testing.T) {
	assert.True(t, RESERVATION_CANCELED.Terminal())
	assert.True(t, RESERVATION_REFUNDED.Terminal())
	assert.False(t, RESERVATION_WAITLIST.Terminal())
	assert.False(t, RESERVATION_PENDING.Terminal())
	assert.False(t, RESERVATION_CONFIRMED.Terminal())
}

func TestReservationStatusHoldsSeats(t *testing.T) {
	assert.True(t, RESERVATION_PENDING.HoldsSeats())
	assert.True(t, RESERVATION_CONFIRMED.HoldsSeats())
	// Waitlisted reservations were never counted in booked_count, so a later
	// cancellation must not release anything.
	assert.False(t, RESERVATION_WAITLIST.HoldsSeats())
	assert.False(t, RESERVATION_CANCELED.HoldsSeats())
	assert.False(t, RESERVATION_REFUNDED.HoldsSeats())
}
