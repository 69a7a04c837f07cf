package api

import (
	"github.com/gin-gonic/gin"

	"github.com/skovtun/wayplan/internal/handlers"
)

func registerInvitationRoutes(api *gin.RouterGroup, requireAuth, optionalAuth gin.HandlerFunc, h *handlers.InvitationHandler) {
	api.POST("/trips/:id/invite", requireAuth, h.Invite)

	// Accept is the target of an email link: anonymous clicks must receive a
	// redirect payload, not a 401, so auth here is optional.
	api.GET("/invitations/accept", optionalAuth, h.Accept)
	api.POST("/invitations/accept", optionalAuth, h.Accept)

	api.POST("/invitations/:id/revoke", requireAuth, h.Revoke)
}
