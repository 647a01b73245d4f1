package common

import (
	"atelier/src/models"
	"atelier/src/types"

	"gorm.io/gorm"
)

// TryReserveSeats atomically takes qty seats on a session. The conditional
// update keeps booked_count <= capacity even under concurrent bookings; the
// affected-row count tells the caller whether the seats were taken.
func TryReserveSeats(tx *gorm.DB, sessionId uint, qty uint) (bool, error) {
	res := tx.Exec(
		"UPDATE workshop_sessions SET booked_count = booked_count + ? WHERE id = ? AND status = ? AND booked_count + ? <= capacity",
		qty, sessionId, types.SESSION_SCHEDULED, qty,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ReleaseSeats gives qty seats back. The guard keeps booked_count from going
// negative if a release is retried.
func ReleaseSeats(tx *gorm.DB, sessionId uint, qty uint) (bool, error) {
	res := tx.Exec(
		"UPDATE workshop_sessions SET booked_count = booked_count - ? WHERE id = ? AND booked_count >= ?",
		qty, sessionId, qty,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// NextWaitlistPosition is one past the number of reservations already waiting
// on the session.
func NextWaitlistPosition(tx *gorm.DB, sessionId uint) (uint, error) {
	var count int64
	err := tx.
		Model(&models.Reservation{}).
		Where(&models.Reservation{SessionID: sessionId, Status: types.RESERVATION_WAITLIST}).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return uint(count) + 1, nil
}
