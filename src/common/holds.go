package common

import (
	"atelier/src/db"
	"atelier/src/models"
	"atelier/src/types"
	"log"
	"os"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// HoldExpiry returns the configured lease duration for provisional holds.
// Unset means holds never expire, which matches the historical behavior of
// the platform.
func HoldExpiry() (time.Duration, bool) {
	env := os.Getenv("HOLD_EXPIRY_MINUTES")
	if env == "" {
		return 0, false
	}
	minutes, err := strconv.Atoi(env)
	if err != nil || minutes <= 0 {
		log.Printf("[holds] invalid HOLD_EXPIRY_MINUTES value %q, sweeper disabled\n", env)
		return 0, false
	}
	return time.Duration(minutes) * time.Minute, true
}

// ExpireStaleHolds cancels pending orders and reservations whose payment
// never arrived within the lease, releasing any seats they held.
func ExpireStaleHolds() {
	lease, ok := HoldExpiry()
	if !ok {
		return
	}
	cutoff := time.Now().Add(-lease)
	dbi := db.GetDb()

	res := dbi.
		Model(&models.Order{}).
		Where("status = ? AND payment_status IN ? AND created_at < ?",
			types.ORDER_PENDING,
			[]types.PaymentStatus{types.PAYMENT_UNPAID, types.PAYMENT_PENDING},
			cutoff).
		Update("status", types.ORDER_CANCELED)
	if res.Error != nil {
		log.Printf("[holds] error expiring orders: %s\n", res.Error.Error())
	} else if res.RowsAffected > 0 {
		log.Printf("[holds] expired %d stale pending orders\n", res.RowsAffected)
	}

	var stale []models.Reservation
	if err := dbi.
		Where("status = ? AND payment_status IN ? AND created_at < ?",
			types.RESERVATION_PENDING,
			[]types.PaymentStatus{types.PAYMENT_UNPAID, types.PAYMENT_PENDING},
			cutoff).
		Find(&stale).
		Error; err != nil {
		log.Printf("[holds] error listing stale reservations: %s\n", err.Error())
		return
	}
	for _, r := range stale {
		err := dbi.Transaction(func(tx *gorm.DB) error {
			res := tx.
				Model(&models.Reservation{}).
				Where("id = ? AND status = ?", r.ID, types.RESERVATION_PENDING).
				Update("status", types.RESERVATION_CANCELED)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return nil
			}
			_, err := ReleaseSeats(tx, r.SessionID, r.Qty)
			return err
		})
		if err != nil {
			log.Printf("[holds] error expiring reservation %d: %s\n", r.ID, err.Error())
			continue
		}
		log.Printf("[holds] expired reservation %s, released %d seats on session %d\n", r.Reference, r.Qty, r.SessionID)
	}
}
