package middlewares

import (
	"atelier/src/db"
	"atelier/src/models"
	"atelier/src/types"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

func parseBearer(ctx *gin.Context) (*types.Claims, bool) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer") {
		return nil, false
	}
	parts := strings.Split(bearerToken, " ")
	if len(parts) != 2 || parts[1] == "" {
		return nil, false
	}
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (any, error) {
		return jwtKey, nil
	})
	if err != nil || !tkn.Valid {
		if err != nil {
			log.Printf("token error: %s\n", err.Error())
		}
		return nil, false
	}
	return claims, true
}

func AuthMiddleware(ctx *gin.Context) {
	claims, ok := parseBearer(ctx)
	if !ok {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	uid, err := strconv.Atoi(claims.Subject)
	if err != nil {
		log.Println("error parsing claims:", err.Error())
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	var user models.User
	db := db.GetDb()
	db.Model(&models.User{}).Where(&models.User{ID: uint(uid)}).Find(&user)
	if uint(uid) != user.ID || user.ID < 1 {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	ctx.Set("id", user.ID)
	ctx.Set("email", user.Email)
	ctx.Set("role", user.Role)
}

// OptionalAuthMiddleware attaches the user identity when a valid bearer token
// is present but never rejects the request. Checkout endpoints accept guests.
func OptionalAuthMiddleware(ctx *gin.Context) {
	claims, ok := parseBearer(ctx)
	if !ok {
		return
	}
	uid, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return
	}
	ctx.Set("id", uint(uid))
	ctx.Set("email", claims.Email)
	ctx.Set("role", claims.Role)
}

func AdminMiddleware(ctx *gin.Context) {
	role := ctx.GetString("role")
	if role != "admin" {
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "admin access required"})
		return
	}
}

func SecureHeaders(ctx *gin.Context) {
	ctx.Header("X-Frame-Options", "DENY")
	ctx.Header("X-Content-Type-Options", "nosniff")
	ctx.Header("Referrer-Policy", "strict-origin-when-cross-origin")
}
