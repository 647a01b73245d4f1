package lib

import (
	"context"
	"os"

	"github.com/stripe/stripe-go/v82"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

// NewStripeClient replaces the shared client. Used by tests.
func NewStripeClient(c *stripe.Client) {
	stripeClient = c
}

type StripeLineItem struct {
	Name        string
	AmountCents int64
	Qty         int64
}

// StripeCreateCheckout creates a hosted checkout session using ad-hoc
// price_data line items. referenceId round-trips through ClientReferenceID
// and the session metadata so the webhook can match the local record.
func StripeCreateCheckout(ctx context.Context, items []StripeLineItem, referenceId, successURL, cancelURL string) (*stripe.CheckoutSession, error) {
	sc := GetStripeClient()
	lineItems := []*stripe.CheckoutSessionCreateLineItemParams{}
	for _, item := range items {
		lineItems = append(lineItems, &stripe.CheckoutSessionCreateLineItemParams{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:   stripe.String("eur"),
				UnitAmount: stripe.Int64(item.AmountCents),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
			Quantity: stripe.Int64(item.Qty),
		})
	}
	createParams := &stripe.CheckoutSessionCreateParams{
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		UIMode:            stripe.String("hosted"),
		Mode:              stripe.String("payment"),
		LineItems:         lineItems,
		ClientReferenceID: stripe.String(referenceId),
		Metadata:          map[string]string{"reference": referenceId},
	}
	return sc.V1CheckoutSessions.Create(ctx, createParams)
}

// StripeRefundPayment refunds the full charge behind a payment intent.
func StripeRefundPayment(ctx context.Context, paymentIntentId string) (*stripe.Refund, error) {
	sc := GetStripeClient()
	params := &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(paymentIntentId),
	}
	return sc.V1Refunds.Create(ctx, params)
}
