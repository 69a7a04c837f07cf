package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/skovtun/wayplan/internal/services"
	appErrors "github.com/skovtun/wayplan/pkg/errors"
	"github.com/skovtun/wayplan/pkg/response"
)

// InvitationHandler exposes the invitation lifecycle: invite, accept, revoke.
type InvitationHandler struct {
	invitations *services.InvitationService
}

func NewInvitationHandler(invitations *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitations: invitations}
}

type inviteRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// POST /api/trips/:id/invite
func (h *InvitationHandler) Invite(c *gin.Context) {
	var req inviteRequest
	if !bindAndValidate(c, &req) {
		return
	}

	invitation, err := h.invitations.Create(requestContext(c), c.Param("id"), currentUserID(c), req.Email)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message":    "Invitation sent.",
		"invitation": invitation,
	})
}

type acceptRequest struct {
	Token string `json:"token"`
}

// GET|POST /api/invitations/accept?token=T
//
// Mounted behind OptionalAuth. An unauthenticated click on a valid link gets a
// 200 carrying redirect_to_login and the token so the client can resume the
// acceptance after sign-in.
func (h *InvitationHandler) Accept(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		var req acceptRequest
		if c.Request != nil && c.Request.Body != nil && c.Request.Method == http.MethodPost {
			_ = c.ShouldBindJSON(&req)
		}
		token = strings.TrimSpace(req.Token)
	}
	if token == "" {
		response.Error(c, appErrors.NewBadRequest("token is required"))
		return
	}

	result, err := h.invitations.Accept(requestContext(c), token, currentUser(c))
	if err != nil {
		if errors.Is(err, services.ErrLoginRequired) {
			response.Success(c, http.StatusOK, gin.H{
				"redirect_to_login": true,
				"invitation_token":  token,
			})
			return
		}
		writeServiceError(c, err)
		return
	}

	payload := gin.H{
		"message":        "Invitation accepted.",
		"trip":           result.Trip,
		"already_member": result.AlreadyMember,
	}
	if result.AlreadyMember {
		payload["message"] = "You already have access to this trip."
	}

	response.Success(c, http.StatusOK, payload)
}

// POST /api/invitations/:id/revoke
func (h *InvitationHandler) Revoke(c *gin.Context) {
	invitation, err := h.invitations.Revoke(requestContext(c), c.Param("id"), currentUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message":    "Invitation revoked.",
		"invitation": invitation,
	})
}
