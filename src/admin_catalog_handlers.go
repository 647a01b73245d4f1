package main

import (
	"atelier/src/config"
	"atelier/src/db"
	"atelier/src/models"
	"atelier/src/types"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

func adminCatalogHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	products := g.Group("/products")
	products.
		POST("", func(ctx *gin.Context) {
			var body types.CreateProductRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid product", err)
				return
			}
			product := models.Product{
				Name:        body.Name,
				Slug:        slug.Make(body.Name),
				Description: body.Description,
				Price:       body.Price,
				Category:    body.Category,
				Status:      types.PRODUCT_AVAILABLE,
				InStock:     true,
			}
			if body.InStock != nil {
				product.InStock = *body.InStock
			}
			if len(body.Images) > 0 {
				product.Images = &types.JSONB{"urls": body.Images}
			}
			db := db.GetDb()
			if err := db.Create(&product).Error; err != nil {
				jsonError(ctx, http.StatusBadRequest, "could not create product", err)
				return
			}
			jsonOK(ctx, http.StatusCreated, product)
		}).
		PUT("/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid product", err)
				return
			}
			var body types.CreateProductRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid product", err)
				return
			}
			updates := map[string]any{
				"name":        body.Name,
				"description": body.Description,
				"price":       body.Price,
				"category":    body.Category,
			}
			if body.InStock != nil {
				updates["in_stock"] = *body.InStock
			}
			if len(body.Images) > 0 {
				updates["images"] = &types.JSONB{"urls": body.Images}
			}
			db := db.GetDb()
			res := db.Model(&models.Product{}).Where("id = ?", params.ID).Updates(updates)
			if res.Error != nil {
				jsonError(ctx, http.StatusInternalServerError, "could not update product", res.Error)
				return
			}
			if res.RowsAffected == 0 {
				jsonError(ctx, http.StatusNotFound, "product not found", nil)
				return
			}
			jsonMessage(ctx, http.StatusOK, "product updated")
		}).
		DELETE("/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid product", err)
				return
			}
			db := db.GetDb()
			res := db.
				Model(&models.Product{}).
				Where("id = ?", params.ID).
				Update("status", types.PRODUCT_ARCHIVED)
			if res.Error != nil {
				jsonError(ctx, http.StatusInternalServerError, "could not archive product", res.Error)
				return
			}
			if res.RowsAffected == 0 {
				jsonError(ctx, http.StatusNotFound, "product not found", nil)
				return
			}
			jsonMessage(ctx, http.StatusOK, "product archived")
		})

	workshops := g.Group("/workshops")
	workshops.
		POST("", func(ctx *gin.Context) {
			var body types.CreateWorkshopRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid workshop", err)
				return
			}
			workshop := models.Workshop{
				Title:       body.Title,
				Slug:        slug.Make(body.Title),
				Description: body.Description,
				Price:       body.Price,
				Duration:    body.Duration,
				Level:       body.Level,
				Image:       body.Image,
			}
			db := db.GetDb()
			if err := db.Create(&workshop).Error; err != nil {
				jsonError(ctx, http.StatusBadRequest, "could not create workshop", err)
				return
			}
			jsonOK(ctx, http.StatusCreated, workshop)
		}).
		POST("/:id/sessions", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid workshop", err)
				return
			}
			var body types.CreateSessionRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid session", err)
				return
			}
			datetime, err := time.Parse(config.TIME_PARSE_FORMAT, body.DateTime)
			if err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid date", err)
				return
			}
			var workshop models.Workshop
			db := db.GetDb()
			if err := db.Where(&models.Workshop{ID: params.ID}).First(&workshop).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					jsonError(ctx, http.StatusNotFound, "workshop not found", nil)
					return
				}
				jsonError(ctx, http.StatusInternalServerError, "could not load workshop", err)
				return
			}
			session := models.WorkshopSession{
				WorkshopID: workshop.ID,
				DateTime:   datetime,
				Capacity:   body.Capacity,
				Status:     types.SESSION_SCHEDULED,
			}
			if err := db.Create(&session).Error; err != nil {
				jsonError(ctx, http.StatusInternalServerError, "could not create session", err)
				return
			}
			jsonOK(ctx, http.StatusCreated, session)
		})

	sessions := g.Group("/sessions")
	sessions.
		POST("/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid session", err)
				return
			}
			db := db.GetDb()
			res := db.
				Model(&models.WorkshopSession{}).
				Where("id = ? AND status = ?", params.ID, types.SESSION_SCHEDULED).
				Update("status", types.SESSION_CANCELED)
			if res.Error != nil {
				jsonError(ctx, http.StatusInternalServerError, "could not cancel session", res.Error)
				return
			}
			if res.RowsAffected == 0 {
				jsonError(ctx, http.StatusNotFound, "no scheduled session found", nil)
				return
			}
			jsonMessage(ctx, http.StatusOK, "session cancelled")
		})

	blog := g.Group("/blog")
	blog.
		POST("", func(ctx *gin.Context) {
			var body types.CreatePostRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid post", err)
				return
			}
			post := models.Post{
				Title:     body.Title,
				Slug:      slug.Make(body.Title),
				Excerpt:   body.Excerpt,
				Body:      body.Body,
				Image:     body.Image,
				Published: body.Publish,
				AuthorID:  userIdFromContext(ctx),
			}
			if len(body.Tags) > 0 {
				post.Tags = &types.JSONB{"items": body.Tags}
			}
			if body.Publish {
				now := time.Now()
				post.PublishedAt = &now
			}
			db := db.GetDb()
			if err := db.Create(&post).Error; err != nil {
				jsonError(ctx, http.StatusBadRequest, "could not create post", err)
				return
			}
			jsonOK(ctx, http.StatusCreated, post)
		}).
		PUT("/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid post", err)
				return
			}
			var body types.CreatePostRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid post", err)
				return
			}
			updates := map[string]any{
				"title":     body.Title,
				"excerpt":   body.Excerpt,
				"body":      body.Body,
				"image":     body.Image,
				"published": body.Publish,
			}
			if len(body.Tags) > 0 {
				updates["tags"] = &types.JSONB{"items": body.Tags}
			}
			if body.Publish {
				updates["published_at"] = time.Now()
			}
			db := db.GetDb()
			res := db.Model(&models.Post{}).Where("id = ?", params.ID).Updates(updates)
			if res.Error != nil {
				jsonError(ctx, http.StatusInternalServerError, "could not update post", res.Error)
				return
			}
			if res.RowsAffected == 0 {
				jsonError(ctx, http.StatusNotFound, "post not found", nil)
				return
			}
			jsonMessage(ctx, http.StatusOK, "post updated")
		})
	return g
}
