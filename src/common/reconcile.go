package common

import (
	"atelier/src/db"
	"atelier/src/lib"
	"atelier/src/models"
	"atelier/src/types"
	"atelier/src/utils"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

const (
	PAYMENT_EVENT_SUCCEEDED = "succeeded"
	PAYMENT_EVENT_FAILED    = "failed"
	PAYMENT_EVENT_CANCELED  = "canceled"
)

// PaymentEvent is the provider-neutral shape both webhook handlers reduce
// their payloads to. Reference carries the provider's checkout/order id,
// PaymentRef the payment (intent) id; either may be empty depending on the
// event type.
type PaymentEvent struct {
	Provider   types.PaymentProvider
	EventID    string
	Reference  string
	PaymentRef string
	Status     string
}

// ReconcilePayment converges local order/reservation state with an
// asynchronous provider notification. Events that match nothing are logged
// and dropped so the provider stops retrying; applying the same event twice
// is safe. The dedup mark is written only once reconciliation has converged,
// so a transient failure leaves the provider's retry free to run.
func ReconcilePayment(event *PaymentEvent) error {
	if event.Reference == "" && event.PaymentRef == "" {
		log.Printf("[%s] event %s carries no usable reference, ignoring\n", event.Provider, event.EventID)
		return nil
	}
	if eventAlreadySeen(event) {
		log.Printf("[%s] duplicate delivery of event %s, ignoring\n", event.Provider, event.EventID)
		return nil
	}

	dbi := db.GetDb()

	var order models.Order
	err := dbi.
		Where("checkout_reference = ? OR stripe_payment_intent_id = ? OR square_payment_id = ?",
			event.Reference, event.PaymentRef, event.PaymentRef).
		First(&order).
		Error
	if err == nil {
		if err := reconcileOrder(dbi, &order, event); err != nil {
			return err
		}
		markEventSeen(event)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	var reservation models.Reservation
	err = dbi.
		Where("checkout_reference = ? OR stripe_payment_intent_id = ? OR square_payment_id = ?",
			event.Reference, event.PaymentRef, event.PaymentRef).
		First(&reservation).
		Error
	if err == nil {
		if err := reconcileReservation(dbi, &reservation, event); err != nil {
			return err
		}
		markEventSeen(event)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	log.Printf("[%s] no order or reservation matches event %s (ref=%s payment=%s), ignoring\n",
		event.Provider, event.EventID, event.Reference, event.PaymentRef)
	markEventSeen(event)
	return nil
}

func webhookEventKey(event *PaymentEvent) string {
	return fmt.Sprintf("webhook:%s:%s", event.Provider, event.EventID)
}

// eventAlreadySeen reports whether this delivery was already fully processed.
// Best-effort: with no cache available reconciliation still behaves
// idempotently, the cache just saves the database round trips.
func eventAlreadySeen(event *PaymentEvent) bool {
	if event.EventID == "" {
		return false
	}
	rd := lib.GetRedisClient()
	if rd == nil {
		return false
	}
	n, err := rd.Exists(context.Background(), webhookEventKey(event)).Result()
	return err == nil && n > 0
}

func markEventSeen(event *PaymentEvent) {
	if event.EventID == "" {
		return
	}
	rd := lib.GetRedisClient()
	if rd == nil {
		return
	}
	if err := rd.SetEx(context.Background(), webhookEventKey(event), 1, 24*time.Hour).Err(); err != nil {
		log.Printf("[%s] could not record event %s as processed: %s\n", event.Provider, event.EventID, err.Error())
	}
}

func reconcileOrder(dbi *gorm.DB, order *models.Order, event *PaymentEvent) error {
	if event.Status != PAYMENT_EVENT_SUCCEEDED {
		return markOrderFailed(dbi, order, event)
	}
	confirmed := false
	err := dbi.Transaction(func(tx *gorm.DB) error {
		var current models.Order
		if err := tx.Where(&models.Order{ID: order.ID}).First(&current).Error; err != nil {
			return err
		}
		if current.PaymentStatus == types.PAYMENT_PAID {
			return nil
		}
		if current.Status.Terminal() {
			log.Printf("[%s] order %s is %s, not reviving it for event %s\n",
				event.Provider, current.Reference, current.Status, event.EventID)
			return nil
		}
		updates := map[string]any{
			"payment_status": types.PAYMENT_PAID,
			"status":         types.ORDER_CONFIRMED,
		}
		if event.PaymentRef != "" {
			switch event.Provider {
			case types.PROVIDER_STRIPE:
				updates["stripe_payment_intent_id"] = event.PaymentRef
			case types.PROVIDER_SQUARE:
				updates["square_payment_id"] = event.PaymentRef
			}
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", current.ID).Updates(updates).Error; err != nil {
			return err
		}
		// Deferred redemption: the card was only applied at checkout time so
		// an abandoned payment never debits it. Now the money is in, debit.
		if current.GiftCardCode != "" && current.GiftCardAmount > 0 {
			if err := RedeemGiftCard(tx, current.GiftCardCode, current.GiftCardAmount, current.Reference.String()); err != nil {
				return err
			}
		}
		confirmed = true
		return nil
	})
	if err != nil {
		return err
	}
	if confirmed {
		go utils.SendOrderConfirmationEmail(order)
	}
	return nil
}

func markOrderFailed(dbi *gorm.DB, order *models.Order, event *PaymentEvent) error {
	// Provisional holds are not reversed here; an admin (or the hold
	// sweeper, when enabled) handles stuck pending orders.
	return dbi.
		Model(&models.Order{}).
		Where("id = ? AND payment_status NOT IN ?", order.ID, []types.PaymentStatus{types.PAYMENT_PAID, types.PAYMENT_REFUNDED}).
		Update("payment_status", types.PAYMENT_FAILED).
		Error
}

func reconcileReservation(dbi *gorm.DB, reservation *models.Reservation, event *PaymentEvent) error {
	if event.Status != PAYMENT_EVENT_SUCCEEDED {
		return dbi.
			Model(&models.Reservation{}).
			Where("id = ? AND payment_status NOT IN ?", reservation.ID, []types.PaymentStatus{types.PAYMENT_PAID, types.PAYMENT_REFUNDED}).
			Update("payment_status", types.PAYMENT_FAILED).
			Error
	}
	confirmed := false
	err := dbi.Transaction(func(tx *gorm.DB) error {
		var current models.Reservation
		if err := tx.Where(&models.Reservation{ID: reservation.ID}).First(&current).Error; err != nil {
			return err
		}
		if current.PaymentStatus == types.PAYMENT_PAID {
			return nil
		}
		if current.Status.Terminal() {
			log.Printf("[%s] reservation %s is %s, not reviving it for event %s\n",
				event.Provider, current.Reference, current.Status, event.EventID)
			return nil
		}
		updates := map[string]any{
			"payment_status": types.PAYMENT_PAID,
			"status":         types.RESERVATION_CONFIRMED,
		}
		if event.PaymentRef != "" {
			switch event.Provider {
			case types.PROVIDER_STRIPE:
				updates["stripe_payment_intent_id"] = event.PaymentRef
			case types.PROVIDER_SQUARE:
				updates["square_payment_id"] = event.PaymentRef
			}
		}
		if err := tx.Model(&models.Reservation{}).Where("id = ?", current.ID).Updates(updates).Error; err != nil {
			return err
		}
		if current.GiftCardCode != "" && current.GiftCardAmount > 0 {
			if err := RedeemGiftCard(tx, current.GiftCardCode, current.GiftCardAmount, current.Reference.String()); err != nil {
				return err
			}
		}
		confirmed = true
		return nil
	})
	if err != nil {
		return err
	}
	if confirmed {
		go utils.SendReservationConfirmationEmail(reservation)
	}
	return nil
}
