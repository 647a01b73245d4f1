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

func blogHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	blog := g.Group("/blog")
	blog.
		GET("", func(ctx *gin.Context) {
			var posts []models.Post
			db := db.GetDb()
			if err := db.
				Where(&models.Post{Published: true}).
				Select("id", "title", "slug", "excerpt", "image", "tags", "published_at").
				Order("published_at DESC").
				Find(&posts).
				Error; err != nil {
				log.Printf("[blog] list failed: %s\n", err.Error())
				jsonError(ctx, http.StatusInternalServerError, "could not list posts", err)
				return
			}
			jsonOK(ctx, http.StatusOK, posts)
		}).
		GET("/:slug", func(ctx *gin.Context) {
			var params types.SlugRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				jsonError(ctx, http.StatusBadRequest, "invalid post", err)
				return
			}
			var post models.Post
			db := db.GetDb()
			if err := db.
				Where(&models.Post{Slug: params.Slug, Published: true}).
				First(&post).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					jsonError(ctx, http.StatusNotFound, "post not found", nil)
					return
				}
				jsonError(ctx, http.StatusInternalServerError, "could not load post", err)
				return
			}
			jsonOK(ctx, http.StatusOK, post)
		})
	return g
}
