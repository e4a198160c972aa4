package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourname/habitcoach/internal"
	"github.com/yourname/habitcoach/internal/auth"
	"github.com/yourname/habitcoach/internal/response"
)

// respondError renders an AppError with its status and payload.
// Anything else becomes an opaque 500; the detail only goes to logs.
func (h *Handler) respondError(c *gin.Context, err error) {
	var appErr *internal.AppError
	if !errors.As(err, &appErr) {
		requestID := c.GetString("request_id")
		h.logger.Errorf("[request_id=%s] unhandled error: %v", requestID, err)
		appErr = internal.NewInternalError("Internal server error")
	}
	if appErr.Status >= http.StatusInternalServerError {
		requestID := c.GetString("request_id")
		h.logger.Errorf("[request_id=%s] %s", requestID, appErr.Message)
	}
	c.JSON(appErr.Status, response.ErrorBody(appErr))
}

// userID returns the authenticated caller set by the auth middleware.
func userID(c *gin.Context) string {
	return c.GetString(auth.ContextUserID)
}

// publicUser is the user shape returned by auth and profile
// endpoints. Secret fields never leave the model.
type publicUser struct {
	ID           string           `json:"id"`
	Email        string           `json:"email"`
	Name         string           `json:"name"`
	CoachPersona internal.Persona `json:"coachPersona"`
	CreatedAt    time.Time        `json:"createdAt"`
}

func toPublicUser(u *internal.User) publicUser {
	return publicUser{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		CoachPersona: u.CoachPersona,
		CreatedAt:    u.CreatedAt,
	}
}
