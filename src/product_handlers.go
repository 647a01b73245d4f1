package main

import (
	"atelier/src/db"
	"atelier/src/models"
	"atelier/src/types"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func productHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	products := g.Group("/products")
	products.
		GET("", func(ctx *gin.Context) {
			var query struct {
				Category string `form:"category"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid query", err)
				return
			}
			db := db.GetDb()
			q := db.Where(&models.Product{Status: types.PRODUCT_AVAILABLE})
			if query.Category != "" {
				q = q.Where(&models.Product{Category: query.Category})
			}
			var products []models.Product
			if err := q.Order("created_at DESC").Find(&products).Error; err != nil {
				log.Printf("[products] list failed: %s\n", err.Error())
				jsonError(ctx, http.StatusInternalServerError, "could not list products", err)
				return
			}
			jsonOK(ctx, http.StatusOK, products)
		}).
		GET("/:slug", func(ctx *gin.Context) {
			var params types.SlugRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid product", err)
				return
			}
			var product models.Product
			db := db.GetDb()
			if err := db.
				Where(&models.Product{Slug: params.Slug, Status: types.PRODUCT_AVAILABLE}).
				First(&product).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					jsonError(ctx, http.StatusNotFound, "product not found", nil)
					return
				}
				jsonError(ctx, http.StatusInternalServerError, "could not load product", err)
				return
			}
			jsonOK(ctx, http.StatusOK, product)
		})
	return g
}
