package common

import (
	"atelier/src/config"
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

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrProductUnavailable    = errors.New("product is unavailable")
	ErrPaymentMethodRequired = errors.New("a payment method is required")
	ErrInvalidTransition     = errors.New("invalid status transition")
)

// Fulfillment moves forward only; cancelled/refunded are never reached here,
// those go through the refund orchestrator.
var orderStatusRank = map[types.OrderStatus]int{
	types.ORDER_PENDING:   0,
	types.ORDER_CONFIRMED: 1,
	types.ORDER_PREPARING: 2,
	types.ORDER_SHIPPED:   3,
	types.ORDER_DELIVERED: 4,
}

// UpdateOrderStatus advances an order through the fulfillment pipeline.
func UpdateOrderStatus(orderId uint, next types.OrderStatus) (*models.Order, error) {
	nextRank, ok := orderStatusRank[next]
	if !ok {
		return nil, ErrInvalidTransition
	}
	dbi := db.GetDb()
	var order models.Order
	err := dbi.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&models.Order{ID: orderId}).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if order.Status.Terminal() {
			return ErrAlreadyTerminal
		}
		if nextRank <= orderStatusRank[order.Status] {
			return ErrInvalidTransition
		}
		order.Status = next
		return tx.
			Model(&models.Order{}).
			Where("id = ?", order.ID).
			Update("status", next).
			Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CheckoutResult is what a successful checkout hands back to the handler:
// the persisted record, the gift card split if one was applied, and the
// provider URL the customer is redirected to (empty when nothing is due).
type CheckoutResult struct {
	Order       *models.Order        `json:"order,omitempty"`
	Reservation *models.Reservation  `json:"reservation,omitempty"`
	GiftCard    *GiftCardApplication `json:"gift_card,omitempty"`
	PaymentURL  string               `json:"payment_url,omitempty"`
}

// createProviderCheckout builds the hosted checkout for the amount still due
// and returns the redirect URL plus the provider reference to store on the
// record (the checkout session id for Stripe, the order id for Square).
func createProviderCheckout(provider types.PaymentProvider, label string, items []lib.StripeLineItem, amountDue float64, referenceId string) (url string, checkoutRef string, err error) {
	frontend := config.FrontendURL()
	successURL := fmt.Sprintf("%s/checkout/success?ref=%s", frontend, referenceId)
	cancelURL := fmt.Sprintf("%s/checkout/cancelled?ref=%s", frontend, referenceId)
	switch provider {
	case types.PROVIDER_STRIPE:
		cs, err := lib.StripeCreateCheckout(context.Background(), items, referenceId, successURL, cancelURL)
		if err != nil {
			return "", "", err
		}
		return cs.URL, cs.ID, nil
	case types.PROVIDER_SQUARE:
		sq := lib.GetSquareClient()
		link, err := sq.SquareCreatePaymentLink(context.Background(), label, utils.EurosToCents(amountDue), referenceId, successURL)
		if err != nil {
			return "", "", err
		}
		return link.URL, link.OrderID, nil
	}
	return "", "", fmt.Errorf("unknown payment provider %q", provider)
}

// storeCheckoutCorrelation caches checkout reference -> local reference so
// support can trace a payment without a database scan. Best-effort.
func storeCheckoutCorrelation(checkoutRef, localRef string) {
	rd := lib.GetRedisClient()
	if rd == nil {
		return
	}
	if err := rd.SetEx(context.Background(), fmt.Sprintf("checkout:%s", checkoutRef), localRef, 48*time.Hour).Err(); err != nil {
		log.Printf("[checkout] could not cache correlation for %s: %s\n", checkoutRef, err.Error())
	}
}

// CreateOrder runs the shop checkout: prices are read from the catalog, a
// gift card (if given) is applied read-only, and the order is persisted as a
// provisional pending hold before any provider round trip. Redemption of the
// applied card is deferred to payment confirmation unless the card covers
// the whole total, in which case the order confirms on the spot.
func CreateOrder(userId *uint, body *types.CreateOrderRequestBody) (*CheckoutResult, error) {
	dbi := db.GetDb()

	order := models.Order{
		Reference:     uuid.New(),
		UserID:        userId,
		Status:        types.ORDER_PENDING,
		PaymentStatus: types.PAYMENT_UNPAID,
		PaymentMethod: body.PaymentMethod,
	}
	if body.Guest != nil {
		order.GuestName = body.Guest.Name
		order.GuestEmail = body.Guest.Email
		order.GuestPhone = body.Guest.Phone
		order.GuestAddress = body.Guest.Address
	}

	var application *GiftCardApplication
	var lineItems []lib.StripeLineItem
	err := dbi.Transaction(func(tx *gorm.DB) error {
		total := 0.0
		items := []models.OrderItem{}
		for _, input := range body.Items {
			var product models.Product
			if err := tx.Where(&models.Product{ID: input.ProductID}).First(&product).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrProductUnavailable
				}
				return err
			}
			if product.Status != types.PRODUCT_AVAILABLE || !product.InStock {
				return ErrProductUnavailable
			}
			items = append(items, models.OrderItem{
				ProductID: product.ID,
				Name:      product.Name,
				Qty:       input.Qty,
				UnitPrice: product.Price,
			})
			total += product.Price * float64(input.Qty)
			lineItems = append(lineItems, lib.StripeLineItem{
				Name:        product.Name,
				AmountCents: utils.EurosToCents(product.Price),
				Qty:         int64(input.Qty),
			})
		}
		order.Total = total
		order.Items = items

		if body.GiftCardCode != "" {
			app, err := ApplyGiftCard(tx, body.GiftCardCode, total)
			if err != nil {
				return err
			}
			application = app
			order.GiftCardCode = app.Code
			order.GiftCardAmount = app.AmountApplied
		}

		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		// Fully covered by the card: nothing for a gateway to collect, so
		// the order settles synchronously.
		if application != nil && application.FullyCovered {
			if err := RedeemGiftCard(tx, order.GiftCardCode, order.GiftCardAmount, order.Reference.String()); err != nil {
				return err
			}
			order.Status = types.ORDER_CONFIRMED
			order.PaymentStatus = types.PAYMENT_PAID
			return tx.
				Model(&models.Order{}).
				Where("id = ?", order.ID).
				Updates(map[string]any{
					"status":         types.ORDER_CONFIRMED,
					"payment_status": types.PAYMENT_PAID,
				}).
				Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &CheckoutResult{Order: &order, GiftCard: application}
	ref := order.Reference.String()

	if application != nil && application.FullyCovered {
		go utils.SyncClientRecord(order.GuestEmail, order.GuestName, order.GuestPhone, false)
		go utils.SendOrderConfirmationEmail(&order)
		return result, nil
	}

	amountDue := order.ChargedAmount()
	items := lineItems
	if application != nil {
		// The card covered part of the total, so the gateway collects a
		// single consolidated balance instead of the itemized lines.
		items = []lib.StripeLineItem{{
			Name:        fmt.Sprintf("Commande %s (solde après carte cadeau)", ref),
			AmountCents: utils.EurosToCents(amountDue),
			Qty:         1,
		}}
	}
	url, checkoutRef, err := createProviderCheckout(order.PaymentMethod, fmt.Sprintf("Commande %s", ref), items, amountDue, ref)
	if err != nil {
		// The provisional hold is useless without a way to pay it; drop it
		// best-effort so the customer can retry cleanly.
		log.Printf("[checkout] provider checkout failed for order %s: %s\n", ref, err.Error())
		if derr := dbi.Select("Items").Delete(&order).Error; derr != nil {
			log.Printf("[checkout] could not drop orphaned order %s: %s\n", ref, derr.Error())
		}
		return nil, err
	}

	if err := dbi.
		Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"checkout_reference": checkoutRef,
			"payment_status":     types.PAYMENT_PENDING,
		}).
		Error; err != nil {
		return nil, err
	}
	order.CheckoutReference = &checkoutRef
	order.PaymentStatus = types.PAYMENT_PENDING

	storeCheckoutCorrelation(checkoutRef, ref)
	go utils.SyncClientRecord(order.GuestEmail, order.GuestName, order.GuestPhone, false)

	result.PaymentURL = url
	return result, nil
}
