package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEurosToCents(t *testing.T) {
	assert.Equal(t, int64(5000), EurosToCents(50))
	assert.Equal(t, int64(1999), EurosToCents(19.99))
	// 0.1+0.2 style float residue must not drop a cent.
	assert.Equal(t, int64(30), EurosToCents(0.1+0.2))
	assert.Equal(t, int64(0), EurosToCents(0))
}

func TestFormatEuros(t *testing.T) {
	assert.Equal(t, "50.00 €", FormatEuros(50))
	assert.Equal(t, "19.99 €", FormatEuros(19.99))
}

func TestCancellationBody(t *testing.T) {
	order := cancellationBody("ref-1", 0, true, false)
	assert.Contains(t, order, "Votre commande")
	assert.Contains(t, order, "annulée")
	assert.NotContains(t, order, "Montant remboursé")

	reservation := cancellationBody("ref-2", 12.5, true, true)
	assert.Contains(t, reservation, "Votre réservation")
	assert.Contains(t, reservation, "12.50 €")

	refund := cancellationBody("ref-3", 40, false, false)
	assert.Contains(t, refund, "remboursée")
	assert.Contains(t, refund, "40.00 €")
}
