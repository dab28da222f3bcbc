package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nekogravitycat/trip-orchestrator/internal/auth"
	bookingHttp "github.com/nekogravitycat/trip-orchestrator/internal/booking/http"
	sessionHttp "github.com/nekogravitycat/trip-orchestrator/internal/session/http"
)

// Config holds the services the router exposes.
type Config struct {
	IsProduction   bool
	ProdOrigins    string
	Logger         *slog.Logger
	TripService    sessionHttp.Service
	BookingService bookingHttp.Service
	JWTManager     *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware:
	// - RequestLogger: Logs request information through slog.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(RequestLogger(cfg.Logger), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{
		"http://localhost:8081", // Swagger
	}
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		config.AllowOrigins = splitOrigins(cfg.ProdOrigins)
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(config))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	// planMiddleware / bookMiddleware: Further check the token's scopes.
	planMiddleware := auth.RequireScope(auth.ScopePlan)
	bookMiddleware := auth.RequireScope(auth.ScopeBook)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	tripHandler := sessionHttp.NewHandler(cfg.TripService, cfg.Logger)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, cfg.Logger)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		sessionHttp.RegisterRoutes(v1, tripHandler, authMiddleware, planMiddleware, bookMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, bookMiddleware)
	}

	return r
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
