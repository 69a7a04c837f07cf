package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/skovtun/wayplan/internal/access"
	"github.com/skovtun/wayplan/internal/app"
	iauth "github.com/skovtun/wayplan/internal/auth"
	"github.com/skovtun/wayplan/internal/handlers"
	"github.com/skovtun/wayplan/internal/middleware"
	"github.com/skovtun/wayplan/internal/notify"
	"github.com/skovtun/wayplan/internal/services"
)

// NewRouter builds the Gin engine, wires middleware, and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, tokens *iauth.TokenService, cfg *app.Config, notifier *notify.Notifier) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	policy, err := access.NewPolicy(db)
	if err != nil {
		return nil, err
	}

	userSvc, err := services.NewUserService(db, tokens, notifier)
	if err != nil {
		return nil, err
	}
	tripSvc, err := services.NewTripService(db, policy)
	if err != nil {
		return nil, err
	}
	placeSvc, err := services.NewPlaceService(db, policy)
	if err != nil {
		return nil, err
	}
	inviteSvc, err := services.NewInvitationService(db, policy, tokens, notifier)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	if cfg.Server.RateLimit.Enabled {
		r.Use(middleware.RateLimit(cfg.Server.RateLimit.MaxRequests, cfg.Server.RateLimit.Window))
	}

	// Health endpoint (public)
	r.GET("/health", handlers.Health())

	requireAuth := middleware.Auth(jwt, db)
	optionalAuth := middleware.OptionalAuth(jwt, db)

	api := r.Group("/api")

	registerAuthRoutes(r, api, requireAuth, handlers.NewAuthHandler(userSvc, jwt))
	registerTripRoutes(api, requireAuth, handlers.NewTripHandler(tripSvc), handlers.NewPlaceHandler(placeSvc))
	registerInvitationRoutes(api, requireAuth, optionalAuth, handlers.NewInvitationHandler(inviteSvc))

	// Metrics endpoint
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
