package common

import (
	"atelier/src/models"
	"atelier/src/types"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestGenerateGiftCardCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateGiftCardCode()
		assert.Nil(t, err)
		assert.Len(t, code, GiftCardCodeLength)
		for _, c := range code {
			assert.Containsf(t, giftCardCharset, string(c), "unexpected character %q in code %s", c, code)
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1, "generator returned the same code every time")
}

func TestGenerateGiftCardCodeExcludesConfusables(t *testing.T) {
	for _, c := range "0O1IL" {
		assert.False(t, strings.ContainsRune(giftCardCharset, c))
	}
}

func TestValidGiftCardCode(t *testing.T) {
	assert.True(t, ValidGiftCardCode("ABCD2345"))
	assert.False(t, ValidGiftCardCode("ABC2345"), "too short")
	assert.False(t, ValidGiftCardCode("ABCD23456"), "too long")
	assert.False(t, ValidGiftCardCode("ABCD234O"), "confusable O")
	assert.False(t, ValidGiftCardCode("abcd2345"), "lowercase")
}

func TestComputeApplicationPartialCover(t *testing.T) {
	card := &models.GiftCard{
		Code:    "ABCD2345",
		Amount:  30,
		Balance: 30,
		Status:  types.GIFTCARD_ACTIVE,
	}
	app, err := ComputeApplication(card, 50, time.Now())
	assert.Nil(t, err)
	assert.Equal(t, 30.0, app.AmountApplied)
	assert.Equal(t, 20.0, app.RemainingToPay)
	assert.False(t, app.FullyCovered)
}

func TestComputeApplicationFullCover(t *testing.T) {
	card := &models.GiftCard{
		Code:    "ABCD2345",
		Amount:  100,
		Balance: 80,
		Status:  types.GIFTCARD_ACTIVE,
	}
	app, err := ComputeApplication(card, 50, time.Now())
	assert.Nil(t, err)
	assert.Equal(t, 50.0, app.AmountApplied)
	assert.Equal(t, 0.0, app.RemainingToPay)
	assert.True(t, app.FullyCovered)
}

func TestComputeApplicationExpired(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	card := &models.GiftCard{
		Code:      "ABCD2345",
		Balance:   30,
		Status:    types.GIFTCARD_ACTIVE,
		ExpiresAt: &past,
	}
	_, err := ComputeApplication(card, 50, time.Now())
	assert.ErrorIs(t, err, ErrGiftCardExpired)
}

func TestComputeApplicationDrained(t *testing.T) {
	card := &models.GiftCard{
		Code:    "ABCD2345",
		Balance: 0,
		Status:  types.GIFTCARD_ACTIVE,
	}
	_, err := ComputeApplication(card, 50, time.Now())
	assert.ErrorIs(t, err, ErrGiftCardEmpty)
}

func TestComputeApplicationInactive(t *testing.T) {
	card := &models.GiftCard{
		Code:    "ABCD2345",
		Balance: 30,
		Status:  types.GIFTCARD_USED,
	}
	_, err := ComputeApplication(card, 50, time.Now())
	assert.ErrorIs(t, err, ErrGiftCardInactive)
}

func TestRedeemGiftCardPartialDebit(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "code", "amount", "balance", "status"}).
		AddRow(4, "ABCD2345", 30.0, 30.0, "active")
	// The row lock serializes concurrent redemptions for the same card.
	mock.ExpectQuery(`SELECT \* FROM "gift_cards".*FOR UPDATE`).WillReturnRows(rows)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "gift_card_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`UPDATE gift_cards SET balance = balance - `).
		WithArgs(20.0, 4, 20.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// 10€ remain, so the drain guard matches nothing and the card stays active.
	mock.ExpectExec(`UPDATE gift_cards SET status = `).
		WithArgs(string(types.GIFTCARD_USED), 4).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO "gift_card_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))

	assert.Nil(t, RedeemGiftCard(db, "ABCD2345", 20, "order-ref-1"))
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestRedeemGiftCardDrainsToUsed(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "code", "amount", "balance", "status"}).
		AddRow(4, "ABCD2345", 30.0, 10.0, "active")
	mock.ExpectQuery(`SELECT \* FROM "gift_cards".*FOR UPDATE`).WillReturnRows(rows)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "gift_card_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`UPDATE gift_cards SET balance = balance - `).
		WithArgs(10.0, 4, 10.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE gift_cards SET status = `).
		WithArgs(string(types.GIFTCARD_USED), 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "gift_card_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))

	assert.Nil(t, RedeemGiftCard(db, "ABCD2345", 10, "order-ref-2"))
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestRedeemGiftCardRepeatIsNoOp(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "code", "amount", "balance", "status"}).
		AddRow(4, "ABCD2345", 30.0, 10.0, "active")
	mock.ExpectQuery(`SELECT \* FROM "gift_cards".*FOR UPDATE`).WillReturnRows(rows)
	// A usage row already references this order: no debit, no new ledger row.
	mock.ExpectQuery(`SELECT count\(\*\) FROM "gift_card_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	assert.Nil(t, RedeemGiftCard(db, "ABCD2345", 20, "order-ref-1"))
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestRedeemGiftCardOverdraw(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "code", "amount", "balance", "status"}).
		AddRow(4, "ABCD2345", 30.0, 10.0, "active")
	mock.ExpectQuery(`SELECT \* FROM "gift_cards".*FOR UPDATE`).WillReturnRows(rows)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "gift_card_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	err := RedeemGiftCard(db, "ABCD2345", 20, "order-ref-3")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Nil(t, mock.ExpectationsWereMet())
}
