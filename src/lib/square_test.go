package lib

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSquareVerifySignature(t *testing.T) {
	secret := "whsec_test"
	url := "https://api.example.com/api/webhooks/square"
	body := []byte(`{"event_id":"abc","type":"payment.updated"}`)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(url))
	mac.Write(body)
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.True(t, SquareVerifySignature(signature, url, body, secret))
	assert.False(t, SquareVerifySignature(signature, url, []byte(`{}`), secret), "tampered body")
	assert.False(t, SquareVerifySignature("bogus", url, body, secret))
	assert.False(t, SquareVerifySignature(signature, url, body, "other_secret"))
}
