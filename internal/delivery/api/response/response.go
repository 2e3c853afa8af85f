package response

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
)

// UserView is the public projection of a user. The password hash never leaves the service.
type UserView struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// NewUserView projects a user for a response body.
func NewUserView(user *entity.User) *UserView {
	if user == nil {
		return nil
	}

	return &UserView{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
}

// AuthResponse is the success envelope of the auth routes
type AuthResponse struct {
	StatusCode   int       `json:"status_code"`
	Message      string    `json:"message"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	User         *UserView `json:"user,omitempty"`
}

// Auth writes an AuthResponse with the given status
func Auth(c echo.Context, statusCode int, body AuthResponse) error {
	body.StatusCode = statusCode

	return c.JSON(statusCode, body)
}

// Message writes {status_code, message}
func Message(c echo.Context, statusCode int, message string) error {
	return Auth(c, statusCode, AuthResponse{Message: message})
}

// Error returns an error response. 401 responses carry a Bearer challenge.
func Error(c echo.Context, statusCode int, errorCode string, message string, fields []domainerrors.FieldError) error {
	// Field details only make sense for client errors
	if statusCode >= http.StatusInternalServerError || statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		fields = nil
	}

	if statusCode == http.StatusUnauthorized {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	}

	return c.JSON(statusCode, domainerrors.ErrorResponse{
		Status:     false,
		StatusCode: statusCode,
		Code:       errorCode,
		Message:    message,
		Errors:     fields,
		RequestID:  deliverycontext.GetRequestIDFromContext(c.Request().Context()),
	})
}

// InternalServerError returns a 500 error
func InternalServerError(c echo.Context, errorCode string, message string) error {
	return Error(c, http.StatusInternalServerError, errorCode, message, nil)
}
