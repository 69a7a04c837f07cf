package api

import (
	"github.com/gin-gonic/gin"

	"github.com/skovtun/wayplan/internal/handlers"
)

func registerAuthRoutes(engine *gin.Engine, api *gin.RouterGroup, requireAuth gin.HandlerFunc, h *handlers.AuthHandler) {
	auth := engine.Group("/api/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
		// Both verbs so the email link works directly and clients can POST.
		auth.GET("/verify-email", h.VerifyEmail)
		auth.POST("/verify-email", h.VerifyEmail)
	}

	api.GET("/auth/me", requireAuth, h.Me)
}
