package common

import (
	"atelier/src/config"
	"atelier/src/db"
	"atelier/src/models"
	"atelier/src/types"
	"atelier/src/utils"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrGiftCardNotFound    = errors.New("gift card not found")
	ErrGiftCardExpired     = errors.New("gift card has expired")
	ErrGiftCardInactive    = errors.New("gift card is not active")
	ErrGiftCardEmpty       = errors.New("gift card has no remaining balance")
	ErrInsufficientBalance = errors.New("insufficient gift card balance")
)

// Confusable characters (0/O, 1/I/L) are excluded so codes survive being read
// over the phone or off a printed card.
const giftCardCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const GiftCardCodeLength = 8

func GenerateGiftCardCode() (string, error) {
	code := make([]byte, GiftCardCodeLength)
	max := big.NewInt(int64(len(giftCardCharset)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = giftCardCharset[n.Int64()]
	}
	return string(code), nil
}

// ValidGiftCardCode checks the shape of a candidate code: exactly eight
// characters, all from the generator charset.
func ValidGiftCardCode(code string) bool {
	if len(code) != GiftCardCodeLength {
		return false
	}
	for _, c := range code {
		found := false
		for _, v := range giftCardCharset {
			if c == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type GiftCardApplication struct {
	Code           string  `json:"code"`
	AmountApplied  float64 `json:"amount_applied"`
	RemainingToPay float64 `json:"remaining_to_pay"`
	FullyCovered   bool    `json:"fully_covered"`
}

// ComputeApplication is the read-only apply calculation: how much of
// orderTotal the card covers. No state is mutated; redemption happens
// separately once payment is otherwise settled.
func ComputeApplication(card *models.GiftCard, orderTotal float64, now time.Time) (*GiftCardApplication, error) {
	switch card.DerivedStatus(now) {
	case types.GIFTCARD_EXPIRED:
		return nil, ErrGiftCardExpired
	case types.GIFTCARD_USED:
		return nil, ErrGiftCardEmpty
	}
	if card.Status != types.GIFTCARD_ACTIVE {
		return nil, ErrGiftCardInactive
	}
	applied := card.Balance
	if applied > orderTotal {
		applied = orderTotal
	}
	return &GiftCardApplication{
		Code:           card.Code,
		AmountApplied:  applied,
		RemainingToPay: orderTotal - applied,
		FullyCovered:   applied >= orderTotal,
	}, nil
}

// ApplyGiftCard validates the card and computes the split for an order total.
func ApplyGiftCard(tx *gorm.DB, code string, orderTotal float64) (*GiftCardApplication, error) {
	var card models.GiftCard
	if err := tx.Where(&models.GiftCard{Code: code}).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGiftCardNotFound
		}
		return nil, err
	}
	return ComputeApplication(&card, orderTotal, time.Now())
}

// RedeemGiftCard debits amount from the card and appends the usage ledger
// row. The row lock serializes concurrent redemptions for the same card, so
// the ledger lookup and the debit cannot interleave with another transaction;
// the conditional update then guards against overdraw. A usage row already
// referencing orderRef makes the call a no-op, which is what keeps duplicate
// webhook deliveries from double-debiting.
func RedeemGiftCard(tx *gorm.DB, code string, amount float64, orderRef string) error {
	var card models.GiftCard
	if err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(&models.GiftCard{Code: code}).
		First(&card).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGiftCardNotFound
		}
		return err
	}

	var redeemed int64
	if err := tx.
		Model(&models.GiftCardTransaction{}).
		Where("gift_card_id = ? AND type = ? AND order_ref = ?", card.ID, types.GIFTCARD_TXN_USAGE, orderRef).
		Count(&redeemed).
		Error; err != nil {
		return err
	}
	if redeemed > 0 {
		log.Printf("[giftcard] %s already redeemed for %s, skipping\n", code, orderRef)
		return nil
	}

	if status := card.DerivedStatus(time.Now()); status == types.GIFTCARD_EXPIRED {
		return ErrGiftCardExpired
	}
	if card.Balance < amount {
		return ErrInsufficientBalance
	}

	res := tx.Exec(
		"UPDATE gift_cards SET balance = balance - ? WHERE id = ? AND balance >= ?",
		amount, card.ID, amount,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	// Balance may have just reached zero; derive status from the row.
	if err := tx.Exec(
		"UPDATE gift_cards SET status = ?, used = true WHERE id = ? AND balance <= 0",
		types.GIFTCARD_USED, card.ID,
	).Error; err != nil {
		return err
	}

	txn := models.GiftCardTransaction{
		GiftCardID: card.ID,
		Amount:     -amount,
		Type:       types.GIFTCARD_TXN_USAGE,
		OrderRef:   &orderRef,
		Note:       fmt.Sprintf("Paiement commande %s", orderRef),
	}
	return tx.Create(&txn).Error
}

// PurchaseGiftCard mints a new card with its opening purchase ledger row and
// mails the code (with a QR) to the recipient. Code collisions are retried a
// few times against the unique index before giving up.
func PurchaseGiftCard(body *types.PurchaseGiftCardRequestBody) (*models.GiftCard, error) {
	var expiresAt *time.Time
	if body.ExpiresAt != nil {
		parsed, err := time.Parse(config.TIME_PARSE_FORMAT, *body.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("invalid expiry date: %w", err)
		}
		expiresAt = &parsed
	}

	dbi := db.GetDb()
	var card models.GiftCard
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		code, err := GenerateGiftCardCode()
		if err != nil {
			return nil, err
		}
		card = models.GiftCard{
			Code:           code,
			Amount:         body.Amount,
			Balance:        body.Amount,
			Status:         types.GIFTCARD_ACTIVE,
			PurchaserName:  body.PurchaserName,
			PurchaserEmail: body.PurchaserEmail,
			RecipientEmail: body.RecipientEmail,
			Message:        body.Message,
			ExpiresAt:      expiresAt,
		}
		lastErr = dbi.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&card).Error; err != nil {
				return err
			}
			txn := models.GiftCardTransaction{
				GiftCardID: card.ID,
				Amount:     card.Amount,
				Type:       types.GIFTCARD_TXN_PURCHASE,
				Note:       "Achat carte cadeau",
			}
			return tx.Create(&txn).Error
		})
		if lastErr == nil {
			break
		}
		log.Printf("[giftcard] create attempt %d failed: %s\n", attempt+1, lastErr.Error())
	}
	if lastErr != nil {
		return nil, lastErr
	}
	go utils.SendGiftCardEmail(&card)
	return &card, nil
}

// AdjustGiftCard applies a manual admin correction to a card balance. The
// adjustment always carries a paired ledger row holding the operator's note;
// credits reactivate the card, debits respect the balance floor.
func AdjustGiftCard(code string, amount float64, note string) (*models.GiftCard, error) {
	dbi := db.GetDb()
	var card models.GiftCard
	err := dbi.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&models.GiftCard{Code: code}).First(&card).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGiftCardNotFound
			}
			return err
		}
		txnType := types.GIFTCARD_TXN_REFUND
		if amount >= 0 {
			if err := tx.Exec(
				"UPDATE gift_cards SET balance = balance + ?, status = ?, used = false WHERE id = ?",
				amount, types.GIFTCARD_ACTIVE, card.ID,
			).Error; err != nil {
				return err
			}
		} else {
			txnType = types.GIFTCARD_TXN_USAGE
			debit := -amount
			res := tx.Exec(
				"UPDATE gift_cards SET balance = balance - ? WHERE id = ? AND balance >= ?",
				debit, card.ID, debit,
			)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrInsufficientBalance
			}
			if err := tx.Exec(
				"UPDATE gift_cards SET status = ?, used = true WHERE id = ? AND balance <= 0",
				types.GIFTCARD_USED, card.ID,
			).Error; err != nil {
				return err
			}
		}
		txn := models.GiftCardTransaction{
			GiftCardID: card.ID,
			Amount:     amount,
			Type:       txnType,
			Note:       note,
		}
		return tx.Create(&txn).Error
	})
	if err != nil {
		return nil, err
	}
	var updated models.GiftCard
	if err := dbi.Where(&models.GiftCard{ID: card.ID}).Preload("Transactions").First(&updated).Error; err != nil {
		return nil, err
	}
	return &updated, nil
}

// RestoreGiftCard credits amount back onto the card during a refund. The card
// is reactivated regardless of its prior state and a refund ledger row is
// appended.
func RestoreGiftCard(tx *gorm.DB, code string, amount float64, orderRef string, note string) error {
	var card models.GiftCard
	if err := tx.Where(&models.GiftCard{Code: code}).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGiftCardNotFound
		}
		return err
	}
	if err := tx.Exec(
		"UPDATE gift_cards SET balance = balance + ?, status = ?, used = false WHERE id = ?",
		amount, types.GIFTCARD_ACTIVE, card.ID,
	).Error; err != nil {
		return err
	}
	if note == "" {
		note = fmt.Sprintf("Remboursement commande %s", orderRef)
	}
	txn := models.GiftCardTransaction{
		GiftCardID: card.ID,
		Amount:     amount,
		Type:       types.GIFTCARD_TXN_REFUND,
		OrderRef:   &orderRef,
		Note:       note,
	}
	return tx.Create(&txn).Error
}
