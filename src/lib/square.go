package lib

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// SquareClient is a thin wrapper over the Square REST API. Square publishes
// no official Go SDK, so the handful of calls this service needs are made
// directly.
type SquareClient struct {
	baseURL     string
	accessToken string
	locationId  string
	http        *http.Client
}

var squareClient *SquareClient

func GetSquareClient() *SquareClient {
	if squareClient != nil {
		return squareClient
	}
	baseURL := os.Getenv("SQUARE_API_URL")
	if baseURL == "" {
		baseURL = "https://connect.squareup.com"
	}
	squareClient = &SquareClient{
		baseURL:     baseURL,
		accessToken: os.Getenv("SQUARE_ACCESS_TOKEN"),
		locationId:  os.Getenv("SQUARE_LOCATION_ID"),
		http:        &http.Client{Timeout: 30 * time.Second},
	}
	return squareClient
}

// NewSquareClient replaces the shared client. Used by tests.
func NewSquareClient(c *SquareClient) {
	squareClient = c
}

func (c *SquareClient) do(ctx context.Context, method, path string, body any) (string, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return "", err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	rbytes, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	sbody := string(rbytes)
	if res.StatusCode >= 400 {
		detail := gjson.Get(sbody, "errors.0.detail").String()
		if detail == "" {
			detail = sbody
		}
		return sbody, fmt.Errorf("square: %s %s returned %d: %s", method, path, res.StatusCode, detail)
	}
	return sbody, nil
}

type SquarePaymentLink struct {
	ID      string
	URL     string
	OrderID string
}

// SquareCreatePaymentLink creates a hosted checkout link. amount is in euro
// cents; the reference id round-trips through the webhook payload.
func (c *SquareClient) SquareCreatePaymentLink(ctx context.Context, name string, amountCents int64, referenceId, redirectURL string) (*SquarePaymentLink, error) {
	payload := map[string]any{
		"idempotency_key": uuid.NewString(),
		"quick_pay": map[string]any{
			"name": name,
			"price_money": map[string]any{
				"amount":   amountCents,
				"currency": "EUR",
			},
			"location_id": c.locationId,
		},
		"checkout_options": map[string]any{
			"redirect_url": redirectURL,
		},
		"payment_note": referenceId,
	}
	sbody, err := c.do(ctx, http.MethodPost, "/v2/online-checkout/payment-links", payload)
	if err != nil {
		return nil, err
	}
	return &SquarePaymentLink{
		ID:      gjson.Get(sbody, "payment_link.id").String(),
		URL:     gjson.Get(sbody, "payment_link.url").String(),
		OrderID: gjson.Get(sbody, "payment_link.order_id").String(),
	}, nil
}

// SquareRefundPayment refunds amountCents from the given payment.
func (c *SquareClient) SquareRefundPayment(ctx context.Context, paymentId string, amountCents int64, reason string) (string, error) {
	payload := map[string]any{
		"idempotency_key": uuid.NewString(),
		"payment_id":      paymentId,
		"amount_money": map[string]any{
			"amount":   amountCents,
			"currency": "EUR",
		},
		"reason": reason,
	}
	sbody, err := c.do(ctx, http.MethodPost, "/v2/refunds", payload)
	if err != nil {
		return "", err
	}
	return gjson.Get(sbody, "refund.id").String(), nil
}

// SquareVerifySignature checks the x-square-hmacsha256-signature header:
// base64(HMAC-SHA256(secret, notificationURL+body)).
func SquareVerifySignature(signature, notificationURL string, body []byte, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(notificationURL))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
