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

var (
	ErrAlreadyTerminal = errors.New("already cancelled or refunded")
	ErrNotFound        = errors.New("record not found")
)

const giftCardMethodLabel = "Carte cadeau"

func providerLabel(p types.PaymentProvider) string {
	switch p {
	case types.PROVIDER_STRIPE:
		return "Stripe"
	case types.PROVIDER_SQUARE:
		return "Square"
	}
	return string(p)
}

// refundGateway issues the provider-side refund for the charged portion.
// The caller has already claimed the record and releases the claim when this
// fails, so the refund stays retryable.
func refundGateway(provider types.PaymentProvider, stripeRef, squareRef *string, amount float64, reason string) error {
	switch provider {
	case types.PROVIDER_STRIPE:
		if stripeRef == nil {
			return errors.New("no stripe payment reference on record")
		}
		_, err := lib.StripeRefundPayment(context.Background(), *stripeRef)
		return err
	case types.PROVIDER_SQUARE:
		if squareRef == nil {
			return errors.New("no square payment reference on record")
		}
		sq := lib.GetSquareClient()
		_, err := sq.SquareRefundPayment(context.Background(), *squareRef, utils.EurosToCents(amount), reason)
		return err
	}
	return fmt.Errorf("unknown payment provider %q", provider)
}

// RefundOrder performs a full refund of an order: the record is claimed with
// a conditional status flip first (so two concurrent refund requests cannot
// both reach the gateway), then the gateway refund for the charged portion
// (the claim is released on failure), then best-effort gift card restoration,
// then a refund_details audit breakdown. markCancelled selects the admin
// "cancel" flavor (status=cancelled, payment_status=refunded) over plain
// "refund" (status=refunded).
func RefundOrder(orderId uint, reason string, markCancelled bool) (*models.Order, error) {
	dbi := db.GetDb()
	var order models.Order
	if err := dbi.Where(&models.Order{ID: orderId}).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, ErrAlreadyTerminal
	}

	ref := order.Reference.String()

	// The split is disjoint: the gift card covered GiftCardAmount, the
	// gateway charged the rest. Only a settled payment has anything to give
	// back on either side.
	paid := order.PaymentStatus == types.PAYMENT_PAID
	chargedAmount := order.Total - order.GiftCardAmount

	newStatus := types.ORDER_REFUNDED
	if markCancelled {
		newStatus = types.ORDER_CANCELED
	}
	paymentStatus := order.PaymentStatus
	if paid {
		paymentStatus = types.PAYMENT_REFUNDED
	}

	claim := dbi.
		Model(&models.Order{}).
		Where("id = ? AND status NOT IN ?", order.ID, []types.OrderStatus{types.ORDER_CANCELED, types.ORDER_REFUNDED}).
		Updates(map[string]any{
			"status":         newStatus,
			"payment_status": paymentStatus,
		})
	if claim.Error != nil {
		return nil, claim.Error
	}
	if claim.RowsAffected == 0 {
		return nil, ErrAlreadyTerminal
	}

	steps := []any{}
	methods := []any{}
	gatewayRefunded := 0.0
	giftRefunded := 0.0

	if paid && chargedAmount > 0 {
		if err := refundGateway(order.PaymentMethod, order.StripePaymentIntentId, order.SquarePaymentId, chargedAmount, reason); err != nil {
			log.Printf("[refund] gateway refund failed for order %s: %s\n", ref, err.Error())
			// Release the claim so the refund can be retried once the
			// provider recovers.
			if rerr := dbi.
				Model(&models.Order{}).
				Where("id = ?", order.ID).
				Updates(map[string]any{
					"status":         order.Status,
					"payment_status": order.PaymentStatus,
				}).
				Error; rerr != nil {
				log.Printf("[refund] could not release claim on order %s: %s\n", ref, rerr.Error())
			}
			return nil, fmt.Errorf("gateway refund failed: %w", err)
		}
		gatewayRefunded = chargedAmount
		methods = append(methods, providerLabel(order.PaymentMethod))
		steps = append(steps, types.JSONB{"step": "gateway_refund", "status": "ok", "amount": chargedAmount})
	}

	if paid && order.GiftCardCode != "" && order.GiftCardAmount > 0 {
		err := dbi.Transaction(func(tx *gorm.DB) error {
			return RestoreGiftCard(tx, order.GiftCardCode, order.GiftCardAmount, ref, "")
		})
		if err != nil {
			// The gateway refund already went through and is not rolled
			// back. The failed step stays in the log for manual
			// reconciliation.
			log.Printf("[refund] gift card restore failed for order %s: %s\n", ref, err.Error())
			steps = append(steps, types.JSONB{"step": "gift_card_restore", "status": "failed", "amount": order.GiftCardAmount, "error": err.Error()})
		} else {
			giftRefunded = order.GiftCardAmount
			methods = append(methods, giftCardMethodLabel)
			steps = append(steps, types.JSONB{"step": "gift_card_restore", "status": "ok", "amount": order.GiftCardAmount})
		}
	}

	totalRefunded := gatewayRefunded + giftRefunded
	now := time.Now()
	details := types.JSONB{
		"total_refunded":     totalRefunded,
		"gateway_refunded":   gatewayRefunded,
		"gift_card_refunded": giftRefunded,
		"methods":            methods,
		"steps":              steps,
	}
	if err := dbi.
		Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"refund_amount":  totalRefunded,
			"refund_reason":  reason,
			"refunded_at":    now,
			"refund_details": &details,
		}).
		Error; err != nil {
		return nil, err
	}

	var updated models.Order
	if err := dbi.Where(&models.Order{ID: order.ID}).Preload("Items").First(&updated).Error; err != nil {
		return nil, err
	}
	go utils.SendCancellationEmail(utils.ContactEmailForOrder(&updated), ref, totalRefunded, markCancelled, false)
	return &updated, nil
}

// RefundReservation mirrors RefundOrder and additionally releases the
// session seats, but only when the reservation actually held them: a
// waitlisted reservation never counted toward booked_count.
func RefundReservation(reservationId uint, reason string, markCancelled bool) (*models.Reservation, error) {
	dbi := db.GetDb()
	var reservation models.Reservation
	if err := dbi.Where(&models.Reservation{ID: reservationId}).First(&reservation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if reservation.Status.Terminal() {
		return nil, ErrAlreadyTerminal
	}

	ref := reservation.Reference.String()

	paid := reservation.PaymentStatus == types.PAYMENT_PAID
	chargedAmount := reservation.AmountPaid - reservation.GiftCardAmount

	newStatus := types.RESERVATION_REFUNDED
	if markCancelled {
		newStatus = types.RESERVATION_CANCELED
	}
	paymentStatus := reservation.PaymentStatus
	if paid {
		paymentStatus = types.PAYMENT_REFUNDED
	}
	releaseSeats := reservation.Status.HoldsSeats()

	claim := dbi.
		Model(&models.Reservation{}).
		Where("id = ? AND status NOT IN ?", reservation.ID, []types.ReservationStatus{types.RESERVATION_CANCELED, types.RESERVATION_REFUNDED}).
		Updates(map[string]any{
			"status":         newStatus,
			"payment_status": paymentStatus,
		})
	if claim.Error != nil {
		return nil, claim.Error
	}
	if claim.RowsAffected == 0 {
		return nil, ErrAlreadyTerminal
	}

	steps := []any{}
	methods := []any{}
	gatewayRefunded := 0.0
	giftRefunded := 0.0

	if paid && chargedAmount > 0 {
		if err := refundGateway(reservation.PaymentMethod, reservation.StripePaymentIntentId, reservation.SquarePaymentId, chargedAmount, reason); err != nil {
			log.Printf("[refund] gateway refund failed for reservation %s: %s\n", ref, err.Error())
			if rerr := dbi.
				Model(&models.Reservation{}).
				Where("id = ?", reservation.ID).
				Updates(map[string]any{
					"status":         reservation.Status,
					"payment_status": reservation.PaymentStatus,
				}).
				Error; rerr != nil {
				log.Printf("[refund] could not release claim on reservation %s: %s\n", ref, rerr.Error())
			}
			return nil, fmt.Errorf("gateway refund failed: %w", err)
		}
		gatewayRefunded = chargedAmount
		methods = append(methods, providerLabel(reservation.PaymentMethod))
		steps = append(steps, types.JSONB{"step": "gateway_refund", "status": "ok", "amount": chargedAmount})
	}

	if paid && reservation.GiftCardCode != "" && reservation.GiftCardAmount > 0 {
		err := dbi.Transaction(func(tx *gorm.DB) error {
			return RestoreGiftCard(tx, reservation.GiftCardCode, reservation.GiftCardAmount, ref, "")
		})
		if err != nil {
			log.Printf("[refund] gift card restore failed for reservation %s: %s\n", ref, err.Error())
			steps = append(steps, types.JSONB{"step": "gift_card_restore", "status": "failed", "amount": reservation.GiftCardAmount, "error": err.Error()})
		} else {
			giftRefunded = reservation.GiftCardAmount
			methods = append(methods, giftCardMethodLabel)
			steps = append(steps, types.JSONB{"step": "gift_card_restore", "status": "ok", "amount": reservation.GiftCardAmount})
		}
	}

	totalRefunded := gatewayRefunded + giftRefunded
	now := time.Now()
	details := types.JSONB{
		"total_refunded":     totalRefunded,
		"gateway_refunded":   gatewayRefunded,
		"gift_card_refunded": giftRefunded,
		"methods":            methods,
		"steps":              steps,
	}
	err := dbi.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&models.Reservation{}).
			Where("id = ?", reservation.ID).
			Updates(map[string]any{
				"refund_amount":  totalRefunded,
				"refund_reason":  reason,
				"refunded_at":    now,
				"refund_details": &details,
			}).
			Error; err != nil {
			return err
		}
		if releaseSeats {
			released, err := ReleaseSeats(tx, reservation.SessionID, reservation.Qty)
			if err != nil {
				return err
			}
			if !released {
				log.Printf("[refund] booked_count for session %d was below %d, nothing released\n", reservation.SessionID, reservation.Qty)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var updated models.Reservation
	if err := dbi.Where(&models.Reservation{ID: reservation.ID}).First(&updated).Error; err != nil {
		return nil, err
	}
	go utils.SendCancellationEmail(utils.ContactEmailForReservation(&updated), ref, totalRefunded, markCancelled, true)
	return &updated, nil
}
