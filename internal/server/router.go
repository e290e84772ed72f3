// Package server assembles the gin engine: middleware chain, health and
// metrics endpoints, and the API route groups.
package server

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	identityhandler "storehub/backend/internal/identity/handler"
	identityservice "storehub/backend/internal/identity/service"
	"storehub/backend/internal/server/middleware"
	storehandler "storehub/backend/internal/store/handler"
	storeservice "storehub/backend/internal/store/service"
	userhandler "storehub/backend/internal/user/handler"
	userservice "storehub/backend/internal/user/service"
)

// ServiceName identifies this service in traces.
const ServiceName = "storehub-backend"

// Deps are the services the router exposes.
type Deps struct {
	Auth   *identityservice.AuthService
	Users  *userservice.Service
	Stores *storeservice.Service
	// ShuttingDown flips the readiness probe to 503 so traffic drains
	// before HTTP shutdown. May be nil (always ready).
	ShuttingDown *atomic.Bool
	// Tracing enables the otelgin middleware.
	Tracing bool
}

// New builds the gin engine with the full middleware chain and all routes.
func New(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(gin.Recovery())
	r.Use(middleware.Metrics())
	if deps.Tracing {
		r.Use(otelgin.Middleware(ServiceName))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if deps.ShuttingDown != nil && deps.ShuttingDown.Load() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authenticate := middleware.Authenticate(deps.Auth)

	api := r.Group("")
	identityhandler.NewHandler(deps.Auth).RegisterRoutes(api, authenticate)

	protected := r.Group("", authenticate)
	userhandler.NewHandler(deps.Users).RegisterRoutes(protected)
	storehandler.NewHandler(deps.Stores).RegisterRoutes(protected)

	return r
}
