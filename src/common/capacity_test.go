package common

import (
	"atelier/src/types"
	"log"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	return gormDB, mock
}

func TestTryReserveSeatsTaken(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("UPDATE workshop_sessions SET booked_count").
		WithArgs(2, 7, string(types.SESSION_SCHEDULED), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := TryReserveSeats(db, 7, 2)
	assert.Nil(t, err)
	assert.True(t, ok)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestTryReserveSeatsFull(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("UPDATE workshop_sessions SET booked_count").
		WithArgs(4, 7, string(types.SESSION_SCHEDULED), 4).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := TryReserveSeats(db, 7, 4)
	assert.Nil(t, err)
	assert.False(t, ok, "conditional update must refuse seats past capacity")
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestReleaseSeatsFloor(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("UPDATE workshop_sessions SET booked_count").
		WithArgs(3, 7, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := ReleaseSeats(db, 7, 3)
	assert.Nil(t, err)
	assert.False(t, ok, "release past zero must not match any row")
	assert.Nil(t, mock.ExpectationsWereMet())
}
