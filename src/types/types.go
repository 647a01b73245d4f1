package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Metadata map[string]any

type OrderStatus string

const (
	ORDER_PENDING   OrderStatus = "pending"
	ORDER_CONFIRMED OrderStatus = "confirmed"
	ORDER_PREPARING OrderStatus = "preparing"
	ORDER_SHIPPED   OrderStatus = "shipped"
	ORDER_DELIVERED OrderStatus = "delivered"
	ORDER_CANCELED  OrderStatus = "cancelled"
	ORDER_REFUNDED  OrderStatus = "refunded"
)

// Terminal reports whether no further status transition is permitted.
func (s OrderStatus) Terminal() bool {
	return s == ORDER_CANCELED || s == ORDER_REFUNDED
}

type PaymentStatus string

const (
	PAYMENT_UNPAID   PaymentStatus = "unpaid"
	PAYMENT_PENDING  PaymentStatus = "pending"
	PAYMENT_PAID     PaymentStatus = "paid"
	PAYMENT_FAILED   PaymentStatus = "failed"
	PAYMENT_REFUNDED PaymentStatus = "refunded"
)

type ReservationStatus string

const (
	RESERVATION_WAITLIST  ReservationStatus = "waitlist"
	RESERVATION_PENDING   ReservationStatus = "pending"
	RESERVATION_CONFIRMED ReservationStatus = "confirmed"
	RESERVATION_CANCELED  ReservationStatus = "cancelled"
	RESERVATION_REFUNDED  ReservationStatus = "refunded"
)

func (s ReservationStatus) Terminal() bool {
	return s == RESERVATION_CANCELED || s == RESERVATION_REFUNDED
}

// HoldsSeats reports whether a reservation in this status is counted in its
// session's booked_count.
func (s ReservationStatus) HoldsSeats() bool {
	return s == RESERVATION_PENDING || s == RESERVATION_CONFIRMED
}

type SessionStatus string

const (
	SESSION_SCHEDULED SessionStatus = "scheduled"
	SESSION_COMPLETED SessionStatus = "completed"
	SESSION_CANCELED  SessionStatus = "cancelled"
)

type GiftCardStatus string

const (
	GIFTCARD_ACTIVE  GiftCardStatus = "active"
	GIFTCARD_USED    GiftCardStatus = "used"
	GIFTCARD_EXPIRED GiftCardStatus = "expired"
)

type GiftCardTxnType string

const (
	GIFTCARD_TXN_PURCHASE GiftCardTxnType = "purchase"
	GIFTCARD_TXN_USAGE    GiftCardTxnType = "usage"
	GIFTCARD_TXN_REFUND   GiftCardTxnType = "refund"
)

type PaymentProvider string

const (
	PROVIDER_STRIPE PaymentProvider = "stripe"
	PROVIDER_SQUARE PaymentProvider = "square"
)

type ProductStatus string

const (
	PRODUCT_AVAILABLE ProductStatus = "available"
	PRODUCT_HIDDEN    ProductStatus = "hidden"
	PRODUCT_ARCHIVED  ProductStatus = "archived"
)

type OrderItemInput struct {
	ProductID uint `json:"product" binding:"required"`
	Qty       uint `json:"qty" binding:"required,min=1"`
}

type GuestContact struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty" binding:"omitempty,email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type CreateOrderRequestBody struct {
	Items         []OrderItemInput `json:"items" binding:"required,min=1"`
	PaymentMethod PaymentProvider  `json:"payment_method" binding:"required,oneof=stripe square"`
	GiftCardCode  string           `json:"gift_card_code,omitempty" binding:"omitempty,giftcardcode"`
	Guest         *GuestContact    `json:"guest,omitempty"`
}

type CreateReservationRequestBody struct {
	Qty           uint            `json:"qty" binding:"required,min=1"`
	PaymentMethod PaymentProvider `json:"payment_method,omitempty" binding:"omitempty,oneof=stripe square"`
	GiftCardCode  string          `json:"gift_card_code,omitempty" binding:"omitempty,giftcardcode"`
	Guest         *GuestContact   `json:"guest,omitempty"`
}

type PurchaseGiftCardRequestBody struct {
	Amount         float64 `json:"amount" binding:"required,gt=0"`
	PurchaserName  string  `json:"purchaser_name,omitempty"`
	PurchaserEmail string  `json:"purchaser_email" binding:"required,email"`
	RecipientEmail string  `json:"recipient_email,omitempty" binding:"omitempty,email"`
	Message        string  `json:"message,omitempty"`
	ExpiresAt      *string `json:"expires_at,omitempty" binding:"omitempty,futuredate" time_format:"2006-01-02 15:04:05 -07:00"`
}

type ApplyGiftCardRequestBody struct {
	Code       string  `json:"code" binding:"required,giftcardcode"`
	OrderTotal float64 `json:"order_total" binding:"required,gt=0"`
}

type AdjustGiftCardRequestBody struct {
	Amount float64 `json:"amount" binding:"required"`
	Note   string  `json:"note" binding:"required"`
}

type UpdateOrderStatusRequestBody struct {
	Status OrderStatus `json:"status" binding:"required,oneof=pending confirmed preparing shipped delivered cancelled refunded"`
}

type RefundRequestBody struct {
	Reason string `json:"reason,omitempty"`
}

type CreateProductRequestBody struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price" binding:"required,gt=0"`
	Category    string   `json:"category,omitempty"`
	Images      []string `json:"images,omitempty"`
	InStock     *bool    `json:"in_stock,omitempty"`
}

type CreateWorkshopRequestBody struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Duration    uint    `json:"duration_minutes,omitempty"`
	Level       string  `json:"level,omitempty"`
	Image       string  `json:"image,omitempty"`
}

type CreateSessionRequestBody struct {
	DateTime string `json:"date_time" binding:"required,futuredate" time_format:"2006-01-02 15:04:05 -07:00"`
	Capacity uint   `json:"capacity" binding:"required,min=1"`
}

type CreatePostRequestBody struct {
	Title   string   `json:"title" binding:"required"`
	Excerpt string   `json:"excerpt,omitempty"`
	Body    string   `json:"body" binding:"required"`
	Image   string   `json:"image,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Publish bool     `json:"publish,omitempty"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type SlugRequestParams struct {
	Slug string `uri:"slug" binding:"required"`
}

type CodeRequestParams struct {
	Code string `uri:"code" binding:"required,giftcardcode"`
}
