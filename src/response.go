package main

import (
	"atelier/src/config"

	"github.com/gin-gonic/gin"
)

// jsonOK wraps payloads in the response envelope used across the API.
func jsonOK(ctx *gin.Context, status int, data any) {
	body := gin.H{"success": true}
	if data != nil {
		body["data"] = data
	}
	ctx.JSON(status, body)
}

func jsonMessage(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"success": true, "message": message})
}

// jsonError reports a failure; the underlying error text is withheld in
// production.
func jsonError(ctx *gin.Context, status int, message string, err error) {
	body := gin.H{"success": false, "message": message}
	if err != nil && !config.IsProd() {
		body["error"] = err.Error()
	}
	ctx.JSON(status, body)
}
