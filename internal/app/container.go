package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/nekogravitycat/trip-orchestrator/internal/api"
	"github.com/nekogravitycat/trip-orchestrator/internal/auth"
	"github.com/nekogravitycat/trip-orchestrator/internal/booking"
	"github.com/nekogravitycat/trip-orchestrator/internal/candidate"
	"github.com/nekogravitycat/trip-orchestrator/internal/itinerary"
	"github.com/nekogravitycat/trip-orchestrator/internal/provider"
	"github.com/nekogravitycat/trip-orchestrator/internal/provider/catalog"
	"github.com/nekogravitycat/trip-orchestrator/internal/provider/fixture"
	"github.com/nekogravitycat/trip-orchestrator/internal/provider/gemini"
	"github.com/nekogravitycat/trip-orchestrator/internal/session"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Logger       *slog.Logger

	// DBPool backs the inventory catalog and the booking ledger. When nil the
	// fixture catalog and an in-memory ledger are used.
	DBPool *pgxpool.Pool
	// Redis keeps planned itineraries. When nil they stay in memory.
	Redis        *redis.Client
	ItineraryTTL time.Duration

	JWTSecret string
	JWTTTL    time.Duration

	GeminiAPIKey string
	GeminiModel  string

	Session       session.Config
	ProviderRPS   float64
	ProviderBurst int
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Session    *session.Session
}

// NewContainer initializes all modules and returns the container. The
// caller must Close it to release provider connections.
func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	// Init Components
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	var synth provider.Synthesizer
	if cfg.GeminiAPIKey != "" {
		g, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("init gemini: %w", err)
		}
		synth = g
	}

	// Booking Ledger & Itinerary Store
	deps := session.Deps{Logger: cfg.Logger}
	if cfg.DBPool != nil {
		deps.Bookings = booking.NewPgxRepository(cfg.DBPool)
	}
	if cfg.Redis != nil {
		deps.Itineraries = itinerary.NewRedisStore(cfg.Redis, cfg.ItineraryTTL)
	}

	// Trip Session
	conn := Connector(cfg.DBPool, synth, cfg.ProviderRPS, cfg.ProviderBurst)
	sess, err := session.Open(ctx, cfg.Session, conn, deps)
	if err != nil {
		return nil, err
	}

	// API Router Config
	routerParams := api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		Logger:         cfg.Logger,
		TripService:    sess,
		BookingService: sess,
		JWTManager:     jwtManager,
	}

	// Router
	router := api.NewRouter(routerParams)

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Session:    sess,
	}, nil
}

// Close releases the session and its provider connections.
func (c *Container) Close() error {
	return c.Session.Close()
}

// Connector builds the provider set for a session: the Postgres catalog when
// pool is set, the fixture catalog otherwise. synth replaces the fixture's
// own narrative writer when given. Closing the set retires the catalog
// handle but leaves pool open for its owner.
func Connector(pool *pgxpool.Pool, synth provider.Synthesizer, rps float64, burst int) session.Connector {
	return session.ConnectorFunc(func(context.Context) (*provider.Set, error) {
		var set *provider.Set
		if pool != nil {
			cat := catalog.New(pool)
			set = &provider.Set{
				Flights:    cat,
				Hotels:     cat,
				Activities: cat,
				Reservers: provider.Reservers{
					candidate.KindFlight:   cat,
					candidate.KindHotel:    cat,
					candidate.KindActivity: cat,
				},
				Closers: []io.Closer{cat},
			}
		} else {
			set = fixture.New(fixture.Paris()).Set()
		}
		if synth != nil {
			set.Synthesizer = synth
		}

		set.Wrap(limiters(rps, burst))
		return set, nil
	})
}

// limiters hands out one shared limiter per provider name. A non-positive
// rps disables throttling.
func limiters(rps float64, burst int) func(name string) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	var mu sync.Mutex
	byName := make(map[string]*rate.Limiter)
	return func(name string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := byName[name]
		if !ok {
			l = rate.NewLimiter(rate.Limit(rps), burst)
			byName[name] = l
		}
		return l
	}
}
