package common

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHoldExpiryUnset(t *testing.T) {
	os.Unsetenv("HOLD_EXPIRY_MINUTES")
	_, ok := HoldExpiry()
	assert.False(t, ok, "holds must not expire unless configured")
}

func TestHoldExpiryConfigured(t *testing.T) {
	os.Setenv("HOLD_EXPIRY_MINUTES", "30")
	defer os.Unsetenv("HOLD_EXPIRY_MINUTES")
	lease, ok := HoldExpiry()
	assert.True(t, ok)
	assert.Equal(t, 30*time.Minute, lease)
}

func TestHoldExpiryInvalid(t *testing.T) {
	for _, v := range []string{"abc", "-5", "0"} {
		os.Setenv("HOLD_EXPIRY_MINUTES", v)
		_, ok := HoldExpiry()
		assert.Falsef(t, ok, "value %q must disable the sweeper", v)
	}
	os.Unsetenv("HOLD_EXPIRY_MINUTES")
}
