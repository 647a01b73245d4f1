package main

import (
	"atelier/src/common"
	"atelier/src/config"
	"atelier/src/lib"
	"atelier/src/types"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/tidwall/gjson"
)

// Signature checks are enforced only in production with a configured secret;
// local and staging environments replay captured payloads without one.
func verifyStripePayload(ctx *gin.Context, payload []byte) (*stripe.Event, bool) {
	whsecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if config.IsProd() && whsecret != "" {
		event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), whsecret)
		if err != nil {
			log.Printf("[Stripe] Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return nil, false
		}
		return &event, true
	}
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		log.Printf("[Stripe] Error parsing event: %s\n", err.Error())
		ctx.Status(http.StatusBadRequest)
		return nil, false
	}
	return &event, true
}

func stripePaymentEvent(event *stripe.Event) *common.PaymentEvent {
	pe := &common.PaymentEvent{
		Provider: types.PROVIDER_STRIPE,
		EventID:  event.ID,
	}
	switch event.Type {
	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			log.Printf("[Stripe] Error parsing CheckoutSession: %s\n", err.Error())
			return nil
		}
		pe.Reference = cs.ID
		if cs.PaymentIntent != nil {
			pe.PaymentRef = cs.PaymentIntent.ID
		}
		pe.Status = common.PAYMENT_EVENT_SUCCEEDED
	case "checkout.session.expired":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			log.Printf("[Stripe] Error parsing CheckoutSession: %s\n", err.Error())
			return nil
		}
		pe.Reference = cs.ID
		pe.Status = common.PAYMENT_EVENT_CANCELED
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
			return nil
		}
		pe.PaymentRef = pi.ID
		pe.Status = common.PAYMENT_EVENT_SUCCEEDED
	case "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
			return nil
		}
		pe.PaymentRef = pi.ID
		pe.Status = common.PAYMENT_EVENT_FAILED
	default:
		return nil
	}
	return pe
}

func squarePaymentEvent(payload []byte) *common.PaymentEvent {
	if gjson.GetBytes(payload, "type").String() != "payment.updated" {
		return nil
	}
	payment := gjson.GetBytes(payload, "data.object.payment")
	status := common.PAYMENT_EVENT_SUCCEEDED
	switch payment.Get("status").String() {
	case "COMPLETED":
		status = common.PAYMENT_EVENT_SUCCEEDED
	case "FAILED":
		status = common.PAYMENT_EVENT_FAILED
	case "CANCELED":
		status = common.PAYMENT_EVENT_CANCELED
	default:
		// APPROVED and PENDING are intermediate, nothing to converge yet.
		return nil
	}
	return &common.PaymentEvent{
		Provider:   types.PROVIDER_SQUARE,
		EventID:    gjson.GetBytes(payload, "event_id").String(),
		Reference:  payment.Get("order_id").String(),
		PaymentRef: payment.Get("id").String(),
		Status:     status,
	}
}

func webhookRoutes(g *gin.Engine) *gin.RouterGroup {
	hooks := apiGroup(g).Group("/webhooks")
	hooks.
		POST("/stripe", func(ctx *gin.Context) {
			payload, err := io.ReadAll(ctx.Request.Body)
			if err != nil {
				log.Printf("Error reading request body: %s\n", err.Error())
				ctx.Status(http.StatusServiceUnavailable)
				return
			}
			event, ok := verifyStripePayload(ctx, payload)
			if !ok {
				return
			}
			log.Printf("[StripeEvent] %s %s\n", event.ID, event.Type)
			pe := stripePaymentEvent(event)
			if pe == nil {
				ctx.Status(http.StatusOK)
				return
			}
			if err := common.ReconcilePayment(pe); err != nil {
				log.Printf("[Stripe] reconciliation failed for %s: %s\n", event.ID, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			ctx.Status(http.StatusOK)
		}).
		POST("/square", func(ctx *gin.Context) {
			payload, err := io.ReadAll(ctx.Request.Body)
			if err != nil {
				log.Printf("Error reading request body: %s\n", err.Error())
				ctx.Status(http.StatusServiceUnavailable)
				return
			}
			whsecret := os.Getenv("SQUARE_WEBHOOK_SECRET")
			if config.IsProd() && whsecret != "" {
				signature := ctx.GetHeader("x-square-hmacsha256-signature")
				notificationURL := os.Getenv("SQUARE_WEBHOOK_URL")
				if !lib.SquareVerifySignature(signature, notificationURL, payload, whsecret) {
					log.Println("[Square] webhook signature mismatch")
					ctx.Status(http.StatusUnauthorized)
					return
				}
			}
			eventId := gjson.GetBytes(payload, "event_id").String()
			log.Printf("[SquareEvent] %s %s\n", eventId, gjson.GetBytes(payload, "type").String())
			pe := squarePaymentEvent(payload)
			if pe == nil {
				ctx.Status(http.StatusOK)
				return
			}
			if err := common.ReconcilePayment(pe); err != nil {
				log.Printf("[Square] reconciliation failed for %s: %s\n", eventId, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			ctx.Status(http.StatusOK)
		})
	return hooks
}
