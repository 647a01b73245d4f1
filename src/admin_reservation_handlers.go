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

func adminReservationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	reservations := g.Group("/reservations")
	reservations.
		GET("", func(ctx *gin.Context) {
			var query struct {
				listQueryParams
				SessionID uint `form:"session"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid query", err)
				return
			}
			db := db.GetDb()
			q := db.Model(&models.Reservation{})
			if query.Status != "" {
				q = q.Where("status = ?", query.Status)
			}
			if query.SessionID != 0 {
				q = q.Where("session_id = ?", query.SessionID)
			}
			var reservations []models.Reservation
			if err := q.
				Preload("Session.Workshop").
				Order("created_at DESC").
				Limit(query.Limit).
				Offset(query.Offset).
				Find(&reservations).
				Error; err != nil {
				jsonError(ctx, http.StatusInternalServerError, "could not list reservations", err)
				return
			}
			jsonOK(ctx, http.StatusOK, reservations)
		}).
		POST("/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid reservation", err)
				return
			}
			var body types.RefundRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid request", err)
				return
			}
			reservation, err := common.RefundReservation(params.ID, body.Reason, true)
			if err != nil {
				log.Printf("[admin] reservation %d cancel failed: %s\n", params.ID, err.Error())
				refundError(ctx, err)
				return
			}
			jsonOK(ctx, http.StatusOK, reservation)
		}).
		POST("/:id/refund", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid reservation", err)
				return
			}
			var body types.RefundRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid request", err)
				return
			}
			reservation, err := common.RefundReservation(params.ID, body.Reason, false)
			if err != nil {
				log.Printf("[admin] reservation %d refund failed: %s\n", params.ID, err.Error())
				refundError(ctx, err)
				return
			}
			jsonOK(ctx, http.StatusOK, reservation)
		}).
		POST("/:id/promote", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid reservation", err)
				return
			}
			reservation, err := common.PromoteReservation(params.ID)
			if err != nil {
				switch {
				case errors.Is(err, common.ErrNotFound):
					jsonError(ctx, http.StatusNotFound, "reservation not found", nil)
				case errors.Is(err, common.ErrNotWaitlisted):
					jsonError(ctx, http.StatusBadRequest, err.Error(), nil)
				case errors.Is(err, common.ErrSessionUnavailable):
					jsonError(ctx, http.StatusConflict, "session has no free seats", nil)
				default:
					jsonError(ctx, http.StatusInternalServerError, "could not promote reservation", err)
				}
				return
			}
			jsonOK(ctx, http.StatusOK, reservation)
		})
	return g
}
