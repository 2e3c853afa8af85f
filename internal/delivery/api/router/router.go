// Package router contains routing for the API delivery.
package router

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"gatekeeper/config"
	"gatekeeper/internal/delivery/api/middleware"
	"gatekeeper/internal/delivery/api/router/handler"
)

const apiPrefix = "/api/v1"

type RouterParams struct {
	fx.In

	AuthHandler         *handler.AuthHandler
	HomeHandler         *handler.HomeHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
	Config              *config.Config
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler         *handler.AuthHandler
	homeHandler         *handler.HomeHandler
	authMiddleware      *middleware.AuthMiddleware
	rateLimitMiddleware *middleware.RateLimitMiddleware
	config              *config.Config
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:         params.AuthHandler,
		homeHandler:         params.HomeHandler,
		authMiddleware:      params.AuthMiddleware,
		rateLimitMiddleware: params.RateLimitMiddleware,
		config:              params.Config,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	limits := r.config.RateLimit

	e.GET("/", r.homeHandler.Home, r.rateLimitMiddleware.Limit("home", limits.Home))
	e.GET("/probe", r.homeHandler.Probe)
	e.GET("/health", handler.HealthCheck)

	apiV1 := e.Group(apiPrefix)

	authGroup := apiV1.Group("/auth")
	{
		throttled := r.rateLimitMiddleware.Limit("auth", limits.Auth)
		authGroup.POST("/register", r.authHandler.Register, throttled)
		authGroup.POST("/login", r.authHandler.Login, throttled)
		authGroup.POST("/token/refresh", r.authHandler.RefreshToken, throttled)

		authGroup.GET("/user", r.authHandler.CurrentUser, r.authMiddleware.Authenticate)
	}
}
