package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	iauth "github.com/skovtun/wayplan/internal/auth"
	"github.com/skovtun/wayplan/internal/models"
	"github.com/skovtun/wayplan/pkg/errors"
	"github.com/skovtun/wayplan/pkg/response"
)

const (
	CtxClaimsKey = "authClaims"
	CtxUserIDKey = "userID"
	CtxUserKey   = "authUser"
)

// Auth enforces JWT authentication and loads the authenticated user. Missing
// header, malformed token, expired token, and a deleted account all produce the
// same 401.
func Auth(jwt *iauth.JWTService, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, claims, ok := resolveUser(c, jwt, db)
		if !ok {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, user.ID)
		c.Set(CtxUserKey, user)
		c.Next()
	}
}

// OptionalAuth loads the user when a valid bearer token is present and otherwise
// lets the request continue anonymously. Used by the invitation accept endpoint,
// which must answer unauthenticated clicks with a redirect payload rather than 401.
func OptionalAuth(jwt *iauth.JWTService, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, claims, ok := resolveUser(c, jwt, db); ok {
			c.Set(CtxClaimsKey, claims)
			c.Set(CtxUserIDKey, user.ID)
			c.Set(CtxUserKey, user)
		}
		c.Next()
	}
}

func resolveUser(c *gin.Context, jwt *iauth.JWTService, db *gorm.DB) (*models.User, *iauth.SessionClaims, bool) {
	authz := c.GetHeader("Authorization")
	if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
		return nil, nil, false
	}

	claims, err := jwt.ValidateSessionToken(strings.TrimSpace(authz[7:]))
	if err != nil {
		return nil, nil, false
	}

	var user models.User
	if err := db.WithContext(c.Request.Context()).First(&user, "id = ?", claims.UserID).Error; err != nil {
		return nil, nil, false
	}

	return &user, claims, true
}
