package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/skovtun/wayplan/internal/middleware"
	"github.com/skovtun/wayplan/internal/models"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUser returns the authenticated user placed in the context by the auth
// middleware, or nil when the request is anonymous.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(middleware.CtxUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// currentUserID returns the authenticated user id, empty when anonymous.
func currentUserID(c *gin.Context) string {
	v, ok := c.Get(middleware.CtxUserIDKey)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}
