package common

import (
	"atelier/src/db"
	"atelier/src/lib"
	"atelier/src/models"
	"atelier/src/types"
	"atelier/src/utils"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionUnavailable = errors.New("session is not open for booking")
)

// CreateReservation books qty seats on a workshop session. Seat taking is a
// single atomic conditional update; when it fails the reservation is parked
// on the waitlist instead of being rejected. Paid sessions follow the same
// provisional-hold checkout as shop orders.
func CreateReservation(userId *uint, sessionId uint, body *types.CreateReservationRequestBody) (*CheckoutResult, error) {
	dbi := db.GetDb()

	var session models.WorkshopSession
	if err := dbi.
		Where(&models.WorkshopSession{ID: sessionId}).
		Preload("Workshop").
		First(&session).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.Status != types.SESSION_SCHEDULED || session.DateTime.Before(time.Now()) {
		return nil, ErrSessionUnavailable
	}

	price := 0.0
	title := fmt.Sprintf("Atelier session %d", session.ID)
	if session.Workshop != nil {
		price = session.Workshop.Price * float64(body.Qty)
		title = session.Workshop.Title
	}

	reservation := models.Reservation{
		Reference:     uuid.New(),
		SessionID:     session.ID,
		UserID:        userId,
		Qty:           body.Qty,
		Status:        types.RESERVATION_PENDING,
		PaymentStatus: types.PAYMENT_UNPAID,
		PaymentMethod: body.PaymentMethod,
		AmountPaid:    price,
	}
	if body.Guest != nil {
		reservation.GuestName = body.Guest.Name
		reservation.GuestEmail = body.Guest.Email
		reservation.GuestPhone = body.Guest.Phone
	}

	var application *GiftCardApplication
	settled := false
	waitlisted := false
	err := dbi.Transaction(func(tx *gorm.DB) error {
		reserved, err := TryReserveSeats(tx, session.ID, body.Qty)
		if err != nil {
			return err
		}
		if !reserved {
			// Full house. The reservation is parked without payment; staff
			// promote from the waitlist when seats free up.
			position, err := NextWaitlistPosition(tx, session.ID)
			if err != nil {
				return err
			}
			waitlisted = true
			reservation.Status = types.RESERVATION_WAITLIST
			reservation.WaitlistPosition = &position
			reservation.AmountPaid = 0
			return tx.Create(&reservation).Error
		}

		if body.GiftCardCode != "" && price > 0 {
			app, err := ApplyGiftCard(tx, body.GiftCardCode, price)
			if err != nil {
				return err
			}
			application = app
			reservation.GiftCardCode = app.Code
			reservation.GiftCardAmount = app.AmountApplied
		}

		covered := price <= 0 || (application != nil && application.FullyCovered)
		if !covered && reservation.PaymentMethod == "" {
			return ErrPaymentMethodRequired
		}

		if err := tx.Create(&reservation).Error; err != nil {
			return err
		}

		if covered {
			if reservation.GiftCardAmount > 0 {
				if err := RedeemGiftCard(tx, reservation.GiftCardCode, reservation.GiftCardAmount, reservation.Reference.String()); err != nil {
					return err
				}
			}
			settled = true
			reservation.Status = types.RESERVATION_CONFIRMED
			reservation.PaymentStatus = types.PAYMENT_PAID
			return tx.
				Model(&models.Reservation{}).
				Where("id = ?", reservation.ID).
				Updates(map[string]any{
					"status":         types.RESERVATION_CONFIRMED,
					"payment_status": types.PAYMENT_PAID,
				}).
				Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &CheckoutResult{Reservation: &reservation, GiftCard: application}
	ref := reservation.Reference.String()

	if waitlisted || settled {
		go utils.SyncClientRecord(reservation.GuestEmail, reservation.GuestName, reservation.GuestPhone, true)
		go utils.SendReservationConfirmationEmail(&reservation)
		return result, nil
	}

	amountDue := reservation.ChargedAmount()
	items := []lib.StripeLineItem{{
		Name:        fmt.Sprintf("%s × %d", title, reservation.Qty),
		AmountCents: utils.EurosToCents(amountDue),
		Qty:         1,
	}}
	url, checkoutRef, err := createProviderCheckout(reservation.PaymentMethod, title, items, amountDue, ref)
	if err != nil {
		log.Printf("[checkout] provider checkout failed for reservation %s: %s\n", ref, err.Error())
		derr := dbi.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&reservation).Error; err != nil {
				return err
			}
			_, err := ReleaseSeats(tx, session.ID, reservation.Qty)
			return err
		})
		if derr != nil {
			log.Printf("[checkout] could not drop orphaned reservation %s: %s\n", ref, derr.Error())
		}
		return nil, err
	}

	if err := dbi.
		Model(&models.Reservation{}).
		Where("id = ?", reservation.ID).
		Updates(map[string]any{
			"checkout_reference": checkoutRef,
			"payment_status":     types.PAYMENT_PENDING,
		}).
		Error; err != nil {
		return nil, err
	}
	reservation.CheckoutReference = &checkoutRef
	reservation.PaymentStatus = types.PAYMENT_PENDING

	storeCheckoutCorrelation(checkoutRef, ref)
	go utils.SyncClientRecord(reservation.GuestEmail, reservation.GuestName, reservation.GuestPhone, true)

	result.PaymentURL = url
	return result, nil
}

var ErrNotWaitlisted = errors.New("reservation is not on the waitlist")

// PromoteReservation moves a waitlisted reservation into a confirmed seat,
// used by staff after a cancellation frees seats. The promoted guest booked
// while the session was full, so the seat grab must still go through the
// conditional update.
func PromoteReservation(reservationId uint) (*models.Reservation, error) {
	dbi := db.GetDb()
	var promoted models.Reservation
	err := dbi.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&models.Reservation{ID: reservationId}).First(&promoted).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if promoted.Status != types.RESERVATION_WAITLIST {
			return ErrNotWaitlisted
		}
		reserved, err := TryReserveSeats(tx, promoted.SessionID, promoted.Qty)
		if err != nil {
			return err
		}
		if !reserved {
			return ErrSessionUnavailable
		}
		if err := tx.
			Model(&models.Reservation{}).
			Where("id = ?", promoted.ID).
			Updates(map[string]any{
				"status":            types.RESERVATION_CONFIRMED,
				"waitlist_position": nil,
			}).
			Error; err != nil {
			return err
		}
		promoted.Status = types.RESERVATION_CONFIRMED
		promoted.WaitlistPosition = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	go utils.SendReservationConfirmationEmail(&promoted)
	return &promoted, nil
}
