package middleware

import (
	"net/http"
	"strings"

	"seekeradv/internal/models"
	"seekeradv/internal/services"
	"seekeradv/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID    = "user_id"
	ContextUserRole  = "user_role"
	ContextUserEmail = "user_email"
)

// AuthRequired validates the bearer token and sets the caller on the
// context. When allowQuery is set a "token" query parameter is accepted in
// place of the header, which browsers need for websocket upgrades.
func AuthRequired(secret string, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c, allowQuery)
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header required")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", utils.ErrInvalidToken)
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserRole, claims.Role)
		c.Set(ContextUserEmail, claims.Email)

		c.Next()
	}
}

func bearerToken(c *gin.Context, allowQuery bool) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			return "", false
		}
		return tokenString, true
	}
	if allowQuery {
		if token := c.Query("token"); token != "" {
			return token, true
		}
	}
	return "", false
}

// AdminRequired must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextUserRole) != string(models.UserRoleAdmin) {
			utils.ForbiddenResponse(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentActor returns the authenticated caller set by AuthRequired.
func CurrentActor(c *gin.Context) (*services.Actor, bool) {
	userID := c.GetString(ContextUserID)
	if userID == "" {
		return nil, false
	}
	return &services.Actor{
		UserID: userID,
		Role:   models.UserRole(c.GetString(ContextUserRole)),
		Email:  c.GetString(ContextUserEmail),
	}, true
}
