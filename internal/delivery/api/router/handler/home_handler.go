package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"gatekeeper/internal/delivery/api/response"
)

// HomeHandler serves the unauthenticated informational routes.
type HomeHandler struct{}

// NewHomeHandler creates a new HomeHandler instance
func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

// Home is the rate limited welcome route.
func (h *HomeHandler) Home(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"URL":     "",
		"message": "Welcome to the boilerplate API",
	})
}

// Probe reports that the process is serving requests.
func (h *HomeHandler) Probe(c echo.Context) error {
	return response.Message(c, http.StatusOK, "I am the gatekeeper API responding")
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
