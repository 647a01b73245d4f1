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
	"gorm.io/gorm"
)

type listQueryParams struct {
	Status string `form:"status"`
	Limit  int    `form:"limit,default=50"`
	Offset int    `form:"offset"`
}

func refundError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		jsonError(ctx, http.StatusNotFound, "record not found", nil)
	case errors.Is(err, common.ErrAlreadyTerminal):
		jsonError(ctx, http.StatusConflict, err.Error(), nil)
	default:
		jsonError(ctx, http.StatusInternalServerError, "refund failed", err)
	}
}

func adminOrderHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	orders := g.Group("/orders")
	orders.
		GET("", func(ctx *gin.Context) {
			var query listQueryParams
			if err := ctx.ShouldBindQuery(&query); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid query", err)
				return
			}
			db := db.GetDb()
			q := db.Model(&models.Order{})
			if query.Status != "" {
				q = q.Where("status = ?", query.Status)
			}
			var orders []models.Order
			if err := q.
				Preload("Items").
				Order("created_at DESC").
				Limit(query.Limit).
				Offset(query.Offset).
				Find(&orders).
				Error; err != nil {
				jsonError(ctx, http.StatusInternalServerError, "could not list orders", err)
				return
			}
			jsonOK(ctx, http.StatusOK, orders)
		}).
		GET("/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid order", err)
				return
			}
			var order models.Order
			db := db.GetDb()
			if err := db.
				Where(&models.Order{ID: params.ID}).
				Preload("Items").
				Preload("User").
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
		}).
		PUT("/:id/status", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid order", err)
				return
			}
			var body types.UpdateOrderStatusRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid status", err)
				return
			}
			order, err := common.UpdateOrderStatus(params.ID, body.Status)
			if err != nil {
				switch {
				case errors.Is(err, common.ErrNotFound):
					jsonError(ctx, http.StatusNotFound, "order not found", nil)
				case errors.Is(err, common.ErrAlreadyTerminal), errors.Is(err, common.ErrInvalidTransition):
					jsonError(ctx, http.StatusBadRequest, err.Error(), nil)
				default:
					jsonError(ctx, http.StatusInternalServerError, "could not update order", err)
				}
				return
			}
			jsonOK(ctx, http.StatusOK, order)
		}).
		POST("/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid order", err)
				return
			}
			var body types.RefundRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid request", err)
				return
			}
			order, err := common.RefundOrder(params.ID, body.Reason, true)
			if err != nil {
				log.Printf("[admin] order %d cancel failed: %s\n", params.ID, err.Error())
				refundError(ctx, err)
				return
			}
			jsonOK(ctx, http.StatusOK, order)
		}).
		POST("/:id/refund", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid order", err)
				return
			}
			var body types.RefundRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid request", err)
				return
			}
			order, err := common.RefundOrder(params.ID, body.Reason, false)
			if err != nil {
				log.Printf("[admin] order %d refund failed: %s\n", params.ID, err.Error())
				refundError(ctx, err)
				return
			}
			jsonOK(ctx, http.StatusOK, order)
		})
	return g
}
