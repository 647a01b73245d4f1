package main

import (
	"atelier/src/db"
	"atelier/src/middlewares"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type TestSuite struct {
	suite.Suite
	DB   *gorm.DB
	Mock sqlmock.Sqlmock
}

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	mockDb, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 mockDb,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	return gormDB, mock
}

func (s *TestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("giftcardcode", giftCardCodeValidatorFunc)
		v.RegisterValidation("futuredate", futureDateValidatorFunc)
	}
	d, mock := NewMockDB()
	db.NewDB(d)
	s.DB = d
	s.Mock = mock
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Unsetenv("MAINTENANCE_MODE")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	apiGroup(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func (s *TestSuite) TestCreateOrderValidation() {
	router := setupRouter()
	public := apiGroup(router)
	orderHandlers(public)

	s.Run("rejects an unknown payment method", func() {
		body := map[string]any{
			"items":          []map[string]any{{"product": 1, "qty": 1}},
			"payment_method": "paypal",
		}
		sbody, _ := json.Marshal(&body)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/orders", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		assert.False(s.T(), gjson.Get(w.Body.String(), "success").Bool())
	})

	s.Run("rejects an empty cart", func() {
		body := map[string]any{
			"items":          []map[string]any{},
			"payment_method": "stripe",
		}
		sbody, _ := json.Marshal(&body)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/orders", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("rejects a malformed gift card code", func() {
		body := map[string]any{
			"items":          []map[string]any{{"product": 1, "qty": 1}},
			"payment_method": "stripe",
			"gift_card_code": "not-a-code",
		}
		sbody, _ := json.Marshal(&body)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/orders", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestGiftCardBalance() {
	router := setupRouter()
	public := apiGroup(router)
	giftCardHandlers(public)

	s.Run("unknown card returns 404", func() {
		s.Mock.ExpectQuery(`SELECT \* FROM "gift_cards"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/gift-cards/ABCD2345/balance", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 404, w.Code)
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})

	s.Run("known card reports its remaining balance", func() {
		rows := sqlmock.NewRows([]string{"id", "code", "amount", "balance", "status"}).
			AddRow(1, "ABCD2345", 50.0, 27.5, "active")
		s.Mock.ExpectQuery(`SELECT \* FROM "gift_cards"`).WillReturnRows(rows)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/gift-cards/ABCD2345/balance", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), 27.5, gjson.Get(w.Body.String(), "data.balance").Float())
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})

	s.Run("malformed code is rejected before touching the database", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/gift-cards/0000/balance", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestProductList() {
	router := setupRouter()
	public := apiGroup(router)
	productHandlers(public)

	rows := sqlmock.NewRows([]string{"id", "name", "slug", "price", "status", "in_stock"}).
		AddRow(1, "Bol en grès", "bol-en-gres", 24.0, "available", true).
		AddRow(2, "Tasse émaillée", "tasse-emaillee", 18.0, "available", true)
	s.Mock.ExpectQuery(`SELECT \* FROM "products"`).WillReturnRows(rows)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/products", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
	assert.Equal(s.T(), int64(2), gjson.Get(w.Body.String(), "data.#").Int())
	assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
}

func (s *TestSuite) TestAdminRequiresAuth() {
	router := setupRouter()
	admin := router.Group("/api/admin")
	admin.Use(middlewares.AuthMiddleware)
	admin.Use(middlewares.AdminMiddleware)
	adminOrderHandlers(admin)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/admin/orders", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 401, w.Code)
}

func (s *TestSuite) TestStripeWebhookBadPayload() {
	router := setupRouter()
	webhookRoutes(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/webhooks/stripe", strings.NewReader("not json"))
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 400, w.Code)
}

func (s *TestSuite) TestStripeWebhookIgnoredEventType() {
	router := setupRouter()
	webhookRoutes(router)

	payload := `{"id":"evt_1","type":"customer.created","data":{"object":{}}}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/webhooks/stripe", strings.NewReader(payload))
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestSquareWebhookIgnoredEventType() {
	router := setupRouter()
	webhookRoutes(router)

	payload := `{"event_id":"evt_2","type":"refund.created","data":{}}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/webhooks/square", strings.NewReader(payload))
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
