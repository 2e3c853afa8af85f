// Package handler contains the HTTP handlers for the API.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"gatekeeper/internal/delivery/api/response"
	deliverycontext "gatekeeper/internal/delivery/context"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/errors"
	"gatekeeper/internal/usecase"
)

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=70"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the body of POST /auth/token/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthHandler holds dependencies for the auth routes.
type AuthHandler struct {
	uc     usecase.AuthUsecase
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.AuthUsecase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		uc:     uc,
		logger: logger,
	}
}

// Register handles the user registration request.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	output, err := h.uc.Register(c.Request().Context(), usecase.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Auth(c, http.StatusCreated, response.AuthResponse{
		Message:      "User registered successfully",
		AccessToken:  output.AccessToken,
		RefreshToken: output.RefreshToken,
		User:         response.NewUserView(output.User),
	})
}

// Login handles the user login request.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	output, err := h.uc.Authenticate(c.Request().Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Auth(c, http.StatusOK, response.AuthResponse{
		Message:      "Login successful",
		AccessToken:  output.AccessToken,
		RefreshToken: output.RefreshToken,
		User:         response.NewUserView(output.User),
	})
}

// RefreshToken exchanges a refresh token for a new access token.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req RefreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	output, err := h.uc.RefreshAccessToken(c.Request().Context(), usecase.RefreshInput{
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Auth(c, http.StatusOK, response.AuthResponse{
		Message:     "Token refreshed successfully",
		AccessToken: output.AccessToken,
	})
}

// CurrentUser returns the user resolved by the auth middleware.
func (h *AuthHandler) CurrentUser(c echo.Context) error {
	user, ok := deliverycontext.GetCurrentUser(c)
	if !ok {
		h.logger.Error("Current user missing, auth middleware not applied", slog.String("path", c.Path()))

		return errors.WithStack(domainerrors.ErrUnauthenticated)
	}

	return response.Auth(c, http.StatusOK, response.AuthResponse{
		Message: "User retrieved successfully",
		User:    response.NewUserView(user),
	})
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domainerrors.NewValidationError([]domainerrors.FieldError{{
			Field:   "body",
			Message: "request body is not valid JSON for this endpoint",
			Tag:     "json",
		}})
	}

	return c.Validate(req)
}
