package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/stack_budget/internal/core/ports/services"
	"github.com/SscSPs/stack_budget/internal/middleware"
	"github.com/SscSPs/stack_budget/internal/offline"
	"github.com/SscSPs/stack_budget/internal/platform/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Extras are the optional routes served next to the API.
type Extras struct {
	// Metrics serves the Prometheus scrape endpoint when set.
	Metrics http.Handler
	// Assets serves the cached app shell under /app when set.
	Assets *offline.AssetCache
}

// NewRouter builds the gin engine with the global middleware and all routes.
func NewRouter(cfg *config.Config, logger *slog.Logger, services *portssvc.ServiceContainer, extras Extras) (*gin.Engine, error) {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	if err := r.SetTrustedProxies(nil); err != nil {
		return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Disposition", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	var rateLimiter *limiter.Limiter
	if cfg.RateLimit != "" {
		rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("invalid rate limit %q: %w", cfg.RateLimit, err)
		}
		rateLimiter = limiter.New(memory.NewStore(), rate)
	}
	r.Use(middleware.RateLimit(rateLimiter))

	RegisterRoutes(r, cfg, services, extras)
	return r, nil
}

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	extras Extras,
) {
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	if extras.Metrics != nil {
		r.GET("/metrics", gin.WrapH(extras.Metrics))
	}
	if extras.Assets != nil {
		r.GET("/app/*path", extras.Assets.Handler())
	}

	setupAPIV1Routes(r, cfg, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.APISecret))

	RegisterBudgetRoutes(v1, services.Budget)
	RegisterSyncRoutes(v1, services.Sync, services.Refresh)
	RegisterBackupRoutes(v1, services.Backup)
}
