package main

import (
	"atelier/src/common"
	"atelier/src/db"
	"atelier/src/models"
	"atelier/src/types"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func giftCardHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	cards := g.Group("/gift-cards")
	cards.
		POST("", func(ctx *gin.Context) {
			var body types.PurchaseGiftCardRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid gift card purchase", err)
				return
			}
			card, err := common.PurchaseGiftCard(&body)
			if err != nil {
				log.Printf("[giftcards] purchase failed: %s\n", err.Error())
				jsonError(ctx, http.StatusInternalServerError, "could not create gift card", err)
				return
			}
			jsonOK(ctx, http.StatusCreated, card)
		}).
		GET("/:code/balance", func(ctx *gin.Context) {
			var params types.CodeRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid code", err)
				return
			}
			var card models.GiftCard
			db := db.GetDb()
			if err := db.
				Where(&models.GiftCard{Code: params.Code}).
				First(&card).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					jsonError(ctx, http.StatusNotFound, "gift card not found", nil)
					return
				}
				jsonError(ctx, http.StatusInternalServerError, "could not load gift card", err)
				return
			}
			jsonOK(ctx, http.StatusOK, gin.H{
				"code":       card.Code,
				"balance":    card.Balance,
				"status":     card.DerivedStatus(time.Now()),
				"expires_at": card.ExpiresAt,
			})
		}).
		POST("/apply", func(ctx *gin.Context) {
			var body types.ApplyGiftCardRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid request", err)
				return
			}
			db := db.GetDb()
			application, err := common.ApplyGiftCard(db, body.Code, body.OrderTotal)
			if err != nil {
				checkoutError(ctx, err)
				return
			}
			jsonOK(ctx, http.StatusOK, application)
		})
	return g
}
