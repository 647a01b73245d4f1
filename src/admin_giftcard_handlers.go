package main

import (
	"atelier/src/common"
	"atelier/src/db"
	"atelier/src/models"
	"atelier/src/types"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func adminGiftCardHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	cards := g.Group("/gift-cards")
	cards.
		GET("", func(ctx *gin.Context) {
			var query listQueryParams
			if err := ctx.ShouldBindQuery(&query); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid query", err)
				return
			}
			db := db.GetDb()
			q := db.Model(&models.GiftCard{})
			if query.Status != "" {
				q = q.Where("status = ?", query.Status)
			}
			var cards []models.GiftCard
			if err := q.
				Preload("Transactions").
				Order("created_at DESC").
				Limit(query.Limit).
				Offset(query.Offset).
				Find(&cards).
				Error; err != nil {
				jsonError(ctx, http.StatusInternalServerError, "could not list gift cards", err)
				return
			}
			jsonOK(ctx, http.StatusOK, cards)
		}).
		POST("/:code/adjust", func(ctx *gin.Context) {
			var params types.CodeRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid code", err)
				return
			}
			var body types.AdjustGiftCardRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid adjustment", err)
				return
			}
			card, err := common.AdjustGiftCard(params.Code, body.Amount, body.Note)
			if err != nil {
				log.Printf("[admin] gift card %s adjust failed: %s\n", params.Code, err.Error())
				switch {
				case errors.Is(err, common.ErrGiftCardNotFound):
					jsonError(ctx, http.StatusNotFound, "gift card not found", nil)
				case errors.Is(err, common.ErrInsufficientBalance):
					jsonError(ctx, http.StatusBadRequest, err.Error(), nil)
				default:
					jsonError(ctx, http.StatusInternalServerError, "could not adjust gift card", err)
				}
				return
			}
			jsonOK(ctx, http.StatusOK, card)
		})
	return g
}
