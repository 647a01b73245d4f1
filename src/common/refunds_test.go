package common

import (
	"atelier/src/db"
	"atelier/src/lib"
	"database/sql/driver"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

// capturedArg records a string bind value so its content can be asserted on
// after the statement ran.
type capturedArg struct {
	value string
}

func (c *capturedArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if ok {
		c.value = s
	}
	return ok
}

func TestRefundOrderTerminalGuard(t *testing.T) {
	gormDB, mock := newMockDB(t)
	db.NewDB(gormDB)

	rows := sqlmock.NewRows([]string{"id", "reference", "status", "payment_status", "total", "gift_card_amount"}).
		AddRow(12, uuid.NewString(), "refunded", "refunded", 50.0, 0.0)
	mock.ExpectQuery(`SELECT \* FROM "orders"`).WillReturnRows(rows)

	_, err := RefundOrder(12, "double click", false)
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestRefundOrderNotFound(t *testing.T) {
	gormDB, mock := newMockDB(t)
	db.NewDB(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := RefundOrder(99, "", false)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestRefundOrderPaidBreakdown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"refund":{"id":"rf_1","status":"PENDING"}}`))
	}))
	defer srv.Close()
	os.Setenv("SQUARE_API_URL", srv.URL)
	defer os.Unsetenv("SQUARE_API_URL")
	lib.NewSquareClient(nil)
	defer lib.NewSquareClient(nil)

	gormDB, mock := newMockDB(t)
	db.NewDB(gormDB)

	orderRef := uuid.NewString()
	rows := sqlmock.NewRows([]string{"id", "reference", "status", "payment_status", "payment_method", "square_payment_id", "total", "gift_card_code", "gift_card_amount"}).
		AddRow(12, orderRef, "confirmed", "paid", "square", "sq_pay_1", 40.0, "ABCD2345", 15.0)
	mock.ExpectQuery(`SELECT \* FROM "orders"`).WillReturnRows(rows)

	// Claim before the gateway call.
	mock.ExpectExec(`UPDATE "orders" SET`).WillReturnResult(sqlmock.NewResult(0, 1))

	// Gift card restore: credit plus the paired refund ledger row.
	mock.ExpectBegin()
	cardRows := sqlmock.NewRows([]string{"id", "code", "amount", "balance", "status"}).
		AddRow(4, "ABCD2345", 50.0, 0.0, "used")
	mock.ExpectQuery(`SELECT \* FROM "gift_cards"`).WillReturnRows(cardRows)
	mock.ExpectExec(`UPDATE gift_cards SET balance = balance \+ `).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "gift_card_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	details := &capturedArg{}
	mock.ExpectExec(`UPDATE "orders" SET`).
		WithArgs(40.0, details, "damaged kiln load", sqlmock.AnyArg(), sqlmock.AnyArg(), 12).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(`SELECT \* FROM "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reference", "status", "payment_status", "refund_amount"}).
			AddRow(12, orderRef, "refunded", "refunded", 40.0))
	mock.ExpectQuery(`SELECT \* FROM "order_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	updated, err := RefundOrder(12, "damaged kiln load", false)
	assert.Nil(t, err)
	assert.Nil(t, mock.ExpectationsWereMet())
	assert.Equal(t, 40.0, updated.RefundAmount)

	// The audit breakdown separates the gateway portion from the card credit.
	assert.Equal(t, 40.0, gjson.Get(details.value, "total_refunded").Float())
	assert.Equal(t, 25.0, gjson.Get(details.value, "gateway_refunded").Float())
	assert.Equal(t, 15.0, gjson.Get(details.value, "gift_card_refunded").Float())
	assert.Equal(t, "Square", gjson.Get(details.value, "methods.0").String())
	assert.Equal(t, "Carte cadeau", gjson.Get(details.value, "methods.1").String())
	assert.Equal(t, "gateway_refund", gjson.Get(details.value, "steps.0.step").String())
	assert.Equal(t, "ok", gjson.Get(details.value, "steps.1.status").String())
}

func TestRefundOrderConcurrentClaim(t *testing.T) {
	gormDB, mock := newMockDB(t)
	db.NewDB(gormDB)

	rows := sqlmock.NewRows([]string{"id", "reference", "status", "payment_status", "total", "gift_card_amount"}).
		AddRow(12, uuid.NewString(), "confirmed", "paid", 50.0, 0.0)
	mock.ExpectQuery(`SELECT \* FROM "orders"`).WillReturnRows(rows)
	// Another request flipped the status between the read and the claim: the
	// conditional update matches nothing and the gateway is never called.
	mock.ExpectExec(`UPDATE "orders" SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := RefundOrder(12, "", false)
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestRefundReservationTerminalGuard(t *testing.T) {
	gormDB, mock := newMockDB(t)
	db.NewDB(gormDB)

	rows := sqlmock.NewRows([]string{"id", "reference", "status", "payment_status", "amount_paid"}).
		AddRow(3, uuid.NewString(), "cancelled", "refunded", 45.0)
	mock.ExpectQuery(`SELECT \* FROM "reservations"`).WillReturnRows(rows)

	_, err := RefundReservation(3, "", true)
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
	assert.Nil(t, mock.ExpectationsWereMet())
}
