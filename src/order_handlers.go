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
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// checkoutError maps the known checkout failures onto client-facing
// statuses; anything else is a server fault.
func checkoutError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrProductUnavailable),
		errors.Is(err, common.ErrSessionNotFound),
		errors.Is(err, common.ErrSessionUnavailable),
		errors.Is(err, common.ErrPaymentMethodRequired),
		errors.Is(err, common.ErrGiftCardNotFound),
		errors.Is(err, common.ErrGiftCardExpired),
		errors.Is(err, common.ErrGiftCardInactive),
		errors.Is(err, common.ErrGiftCardEmpty),
		errors.Is(err, common.ErrInsufficientBalance):
		jsonError(ctx, http.StatusBadRequest, err.Error(), nil)
	default:
		jsonError(ctx, http.StatusInternalServerError, "checkout failed", err)
	}
}

// userIdFromContext returns the authenticated user id, nil for guests.
func userIdFromContext(ctx *gin.Context) *uint {
	id := ctx.GetUint("id")
	if id == 0 {
		return nil
	}
	return &id
}

func orderHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	orders := g.Group("/orders")
	orders.
		POST("", func(ctx *gin.Context) {
			var body types.CreateOrderRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid order", err)
				return
			}
			result, err := common.CreateOrder(userIdFromContext(ctx), &body)
			if err != nil {
				log.Printf("[orders] checkout failed: %s\n", err.Error())
				checkoutError(ctx, err)
				return
			}
			jsonOK(ctx, http.StatusCreated, result)
		}).
		GET("/:reference", func(ctx *gin.Context) {
			var params struct {
				Reference string `uri:"reference" binding:"required,uuid"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid reference", err)
				return
			}
			ref := uuid.MustParse(params.Reference)
			var order models.Order
			db := db.GetDb()
			if err := db.
				Where(&models.Order{Reference: ref}).
				Preload("Items").
				First(&order).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					jsonError(ctx, http.StatusNotFound, "order not found", nil)
					return
				}
				jsonError(ctx, http.StatusInternalServerError, "could not load order", err)
				return
			}
			jsonOK(ctx, http.StatusOK, order)
		})
	return g
}
