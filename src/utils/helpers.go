package utils

import (
	"atelier/src/config"
	"atelier/src/db"
	"atelier/src/lib"
	"atelier/src/models"
	"fmt"
	"log"
	"math"
	"os"
	"path"
	"strings"
	"time"

	"github.com/yeqown/go-qrcode"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func EurosToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func FormatEuros(amount float64) string {
	return fmt.Sprintf("%.2f €", amount)
}

// SyncClientRecord upserts the studio's CRM row for a guest, keyed by
// lowercased email. Best-effort by contract: callers run it in a goroutine
// and a failure never fails the checkout.
func SyncClientRecord(email, name, phone string, reservation bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return
	}
	now := time.Now()
	client := models.Client{
		Email:         email,
		Name:          name,
		Phone:         phone,
		LastOrderDate: &now,
	}
	counter := "total_orders"
	if reservation {
		client.TotalReservations = 1
		counter = "total_reservations"
	} else {
		client.TotalOrders = 1
	}
	dbi := db.GetDb()
	err := dbi.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "email"}},
		DoUpdates: clause.Assignments(map[string]any{
			counter:           gorm.Expr("clients." + counter + " + 1"),
			"last_order_date": now,
		}),
	}).Create(&client).Error
	if err != nil {
		log.Printf("[clients] sync failed for %s: %s\n", email, err.Error())
	}
}

// ContactEmailForOrder resolves the notification address: guest email first,
// then the owning user's.
func ContactEmailForOrder(order *models.Order) string {
	if order.GuestEmail != "" {
		return order.GuestEmail
	}
	if order.UserID == nil {
		return ""
	}
	var user models.User
	if err := db.GetDb().Where(&models.User{ID: *order.UserID}).First(&user).Error; err != nil {
		return ""
	}
	return user.Email
}

func ContactEmailForReservation(reservation *models.Reservation) string {
	if reservation.GuestEmail != "" {
		return reservation.GuestEmail
	}
	if reservation.UserID == nil {
		return ""
	}
	var user models.User
	if err := db.GetDb().Where(&models.User{ID: *reservation.UserID}).First(&user).Error; err != nil {
		return ""
	}
	return user.Email
}

func senderFrom() (string, string) {
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "noreply@atelier.example"
	}
	return from, "Atelier Terre & Feu"
}

func SendOrderConfirmationEmail(order *models.Order) {
	to := ContactEmailForOrder(order)
	if to == "" {
		return
	}
	from, fromName := senderFrom()
	input := &lib.SendMailInput{
		Subject:  fmt.Sprintf("Confirmation de commande %s", order.Reference),
		From:     from,
		FromName: fromName,
		To:       []string{to},
		Body: fmt.Sprintf(`
			<p>Merci pour votre commande !</p>
			<p>Référence : <b>%s</b></p>
			<p>Montant : %s</p>
			<p>Vous recevrez un email dès que votre commande sera expédiée.</p>
			`,
			order.Reference,
			FormatEuros(order.Total),
		),
		Html: true,
	}
	if err := lib.SendMail(input); err != nil {
		log.Printf("[mailer] Error sending order confirmation: %s\n", err.Error())
	}
}

func SendReservationConfirmationEmail(reservation *models.Reservation) {
	to := ContactEmailForReservation(reservation)
	if to == "" {
		return
	}
	var session models.WorkshopSession
	when := ""
	if err := db.GetDb().Where(&models.WorkshopSession{ID: reservation.SessionID}).Preload("Workshop").First(&session).Error; err == nil {
		when = session.DateTime.Format("02/01/2006 15:04")
	}
	from, fromName := senderFrom()
	body := fmt.Sprintf(`
		<p>Votre réservation est confirmée.</p>
		<p>Référence : <b>%s</b></p>
		<p>Date : %s</p>
		<p>Places : %d</p>
		`,
		reservation.Reference, when, reservation.Qty,
	)
	if reservation.WaitlistPosition != nil {
		body = fmt.Sprintf(`
			<p>La session est complète ; vous êtes sur liste d'attente.</p>
			<p>Référence : <b>%s</b></p>
			<p>Position : %d</p>
			<p>Nous vous contacterons dès qu'une place se libère.</p>
			`,
			reservation.Reference, *reservation.WaitlistPosition,
		)
	}
	input := &lib.SendMailInput{
		Subject:  fmt.Sprintf("Réservation atelier %s", reservation.Reference),
		From:     from,
		FromName: fromName,
		To:       []string{to},
		Body:     body,
		Html:     true,
	}
	if err := lib.SendMail(input); err != nil {
		log.Printf("[mailer] Error sending reservation confirmation: %s\n", err.Error())
	}
}

// cancellationBody phrases the notice for the record kind: "commande" for
// shop orders, "réservation" for workshop bookings.
func cancellationBody(reference string, refunded float64, cancelled, reservation bool) string {
	noun := "commande"
	if reservation {
		noun = "réservation"
	}
	verb := "remboursée"
	if cancelled {
		verb = "annulée"
	}
	body := fmt.Sprintf("<p>Votre %s <b>%s</b> a été %s.</p>", noun, reference, verb)
	if refunded > 0 {
		body += fmt.Sprintf("<p>Montant remboursé : %s</p>", FormatEuros(refunded))
	}
	return body
}

func SendCancellationEmail(to, reference string, refunded float64, cancelled, reservation bool) {
	if to == "" {
		return
	}
	from, fromName := senderFrom()
	body := cancellationBody(reference, refunded, cancelled, reservation)
	input := &lib.SendMailInput{
		Subject:  fmt.Sprintf("Annulation %s", reference),
		From:     from,
		FromName: fromName,
		To:       []string{to},
		Body:     body,
		Html:     true,
	}
	if err := lib.SendMail(input); err != nil {
		log.Printf("[mailer] Error sending cancellation notice: %s\n", err.Error())
	}
}

// SendGiftCardEmail delivers the code to the recipient (or the purchaser)
// with a QR of the code attached for in-store redemption.
func SendGiftCardEmail(card *models.GiftCard) {
	to := card.RecipientEmail
	if to == "" {
		to = card.PurchaserEmail
	}
	if to == "" {
		return
	}
	var attachments []string
	tempdir := os.Getenv("TEMP_DIR")
	if tempdir == "" {
		tempdir = os.TempDir()
	}
	qrc, err := qrcode.New(card.Code)
	if err == nil {
		filepath := path.Join(tempdir, fmt.Sprintf("giftcard-%s.jpeg", card.Code))
		if err := qrc.Save(filepath); err != nil {
			log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
		} else {
			attachments = append(attachments, filepath)
		}
	}
	from, fromName := senderFrom()
	message := ""
	if card.Message != "" {
		message = fmt.Sprintf("<p><i>%s</i></p>", card.Message)
	}
	input := &lib.SendMailInput{
		Subject:  "Votre carte cadeau",
		From:     from,
		FromName: fromName,
		To:       []string{to},
		Body: fmt.Sprintf(`
			<p>Une carte cadeau de %s vous attend !</p>
			%s
			<p>Code : <b>%s</b></p>
			<p>Utilisable en ligne sur %s ou directement à l'atelier.</p>
			`,
			FormatEuros(card.Amount),
			message,
			card.Code,
			config.FrontendURL(),
		),
		Html:        true,
		Attachments: attachments,
	}
	if err := lib.SendMail(input); err != nil {
		log.Printf("[mailer] Error sending gift card: %s\n", err.Error())
	}
}
