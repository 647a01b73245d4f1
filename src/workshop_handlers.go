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

func workshopHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	workshops := g.Group("/workshops")
	workshops.
		GET("", func(ctx *gin.Context) {
			var workshops []models.Workshop
			db := db.GetDb()
			if err := db.
				Preload("Sessions", "date_time > ? AND status = ?", time.Now(), types.SESSION_SCHEDULED).
				Order("created_at DESC").
				Find(&workshops).
				Error; err != nil {
				log.Printf("[workshops] list failed: %s\n", err.Error())
				jsonError(ctx, http.StatusInternalServerError, "could not list workshops", err)
				return
			}
			jsonOK(ctx, http.StatusOK, workshops)
		}).
		GET("/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid workshop", err)
				return
			}
			var workshop models.Workshop
			db := db.GetDb()
			if err := db.
				Where(&models.Workshop{ID: params.ID}).
				Preload("Sessions", "date_time > ? AND status = ?", time.Now(), types.SESSION_SCHEDULED).
				First(&workshop).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					jsonError(ctx, http.StatusNotFound, "workshop not found", nil)
					return
				}
				jsonError(ctx, http.StatusInternalServerError, "could not load workshop", err)
				return
			}
			jsonOK(ctx, http.StatusOK, workshop)
		})

	sessions := g.Group("/sessions")
	sessions.
		GET("/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid session", err)
				return
			}
			var session models.WorkshopSession
			db := db.GetDb()
			if err := db.
				Where(&models.WorkshopSession{ID: params.ID}).
				Preload("Workshop").
				First(&session).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					jsonError(ctx, http.StatusNotFound, "session not found", nil)
					return
				}
				jsonError(ctx, http.StatusInternalServerError, "could not load session", err)
				return
			}
			jsonOK(ctx, http.StatusOK, gin.H{
				"session":    session,
				"spots_left": session.SpotsLeft(),
			})
		}).
		POST("/:id/reservations", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid session", err)
				return
			}
			var body types.CreateReservationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid reservation", err)
				return
			}
			result, err := common.CreateReservation(userIdFromContext(ctx), params.ID, &body)
			if err != nil {
				log.Printf("[reservations] booking failed on session %d: %s\n", params.ID, err.Error())
				checkoutError(ctx, err)
				return
			}
			jsonOK(ctx, http.StatusCreated, result)
		})
	return g
}
