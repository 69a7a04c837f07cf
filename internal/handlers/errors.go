package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/skovtun/wayplan/internal/services"
	appErrors "github.com/skovtun/wayplan/pkg/errors"
	"github.com/skovtun/wayplan/pkg/logger"
	"github.com/skovtun/wayplan/pkg/response"
)

// writeServiceError maps service sentinel errors onto the public error contract.
// Anything unmapped renders as a 500 with the original error kept internal.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		response.Error(c, appErrors.NewConflict("Email already registered"))
	case errors.Is(err, services.ErrInvalidCredentials):
		response.Error(c, appErrors.ErrInvalidCredentials)
	case errors.Is(err, services.ErrUserNotFound):
		response.Error(c, appErrors.ErrNotFound)
	case errors.Is(err, services.ErrResetTokenInvalid):
		response.Error(c, appErrors.NewBadRequest("Invalid or expired reset token"))
	case errors.Is(err, services.ErrVerificationTokenInvalid):
		response.Error(c, appErrors.NewBadRequest("Invalid verification token"))
	case errors.Is(err, services.ErrEmailDispatchFailed):
		response.Error(c, appErrors.ErrNotifierFailure)
	case errors.Is(err, services.ErrTripNotFound):
		response.Error(c, appErrors.ErrNotFound)
	case errors.Is(err, services.ErrNotTripOwner):
		response.Error(c, appErrors.NewForbidden("Only the trip owner can perform this action"))
	case errors.Is(err, services.ErrInvalidDateRange):
		response.Error(c, appErrors.NewBadRequest("Start date must not be after end date"))
	case errors.Is(err, services.ErrTitleRequired):
		response.Error(c, appErrors.NewBadRequest("Title is required"))
	case errors.Is(err, services.ErrPlaceNotFound):
		response.Error(c, appErrors.ErrNotFound)
	case errors.Is(err, services.ErrLocationNameRequired):
		response.Error(c, appErrors.NewBadRequest("Location name is required"))
	case errors.Is(err, services.ErrDayNumberInvalid):
		response.Error(c, appErrors.NewBadRequest("Day number must be at least 1"))
	case errors.Is(err, services.ErrInviteNotFound):
		response.Error(c, appErrors.New("NOT_FOUND", "Invitation not found or expired", 404))
	case errors.Is(err, services.ErrSelfInvite):
		response.Error(c, appErrors.NewBadRequest("You cannot invite yourself"))
	case errors.Is(err, services.ErrAlreadyCollaborator):
		response.Error(c, appErrors.NewConflict("User already has access to this trip"))
	case errors.Is(err, services.ErrInviteAlreadyPending):
		response.Error(c, appErrors.NewConflict("An invitation is already pending for this email"))
	case errors.Is(err, services.ErrInviteEmailMismatch):
		response.Error(c, appErrors.NewForbidden("This invitation was sent to a different email address"))
	case errors.Is(err, services.ErrInviteNotPending):
		response.Error(c, appErrors.NewConflict("Invitation is no longer pending"))
	default:
		logger.WithModule("handlers").Error("unhandled service error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
	}
}
