package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cloudkenya/hostpanel/internal/api/handler"
	"github.com/cloudkenya/hostpanel/internal/api/middleware"
	"github.com/cloudkenya/hostpanel/internal/core/ports"
	"github.com/cloudkenya/hostpanel/internal/core/service"
	mongodb "github.com/cloudkenya/hostpanel/internal/infrastructure/db/mongo"
	redisdb "github.com/cloudkenya/hostpanel/internal/infrastructure/db/redis"
	"github.com/cloudkenya/hostpanel/internal/pkg/config"
	"github.com/cloudkenya/hostpanel/internal/security/password"
	"github.com/cloudkenya/hostpanel/internal/security/token"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// The audit recorder is constructed by the caller because its lifecycle
// (drain on shutdown) outlives any single request.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, audit ports.AuditRecorder, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("hostpanel"))

	// --- Dependencies ---
	accountRepo := mongodb.NewAccountRepository(db)
	activityRepo := mongodb.NewActivityRepository(db)
	throttle := redisdb.NewLoginThrottle(rdb, cfg.Auth.ThrottleAttempts, cfg.Auth.ThrottleWindow)

	hasher := password.NewHasher(cfg.Auth.BcryptCost)
	issuer := token.NewIssuer(token.Config{Secret: cfg.Auth.JWTSecret, TTL: cfg.Auth.TokenTTL})

	authService := service.NewAuthService(accountRepo, hasher, issuer, audit, throttle, log)
	twoFactorService := service.NewTwoFactorService(accountRepo, hasher, audit, log)
	activityService := service.NewActivityService(activityRepo, log)

	authHandler := handler.NewAuthHandler(authService)
	accountHandler := handler.NewAccountHandler(authService, twoFactorService)
	activityHandler := handler.NewActivityHandler(activityService)
	requireAuth := middleware.Auth(issuer)

	// --- Public auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/verify-2fa", authHandler.VerifyTwoFactor)

	// --- Authenticated account routes ---
	e.GET("/auth/me", accountHandler.Me, requireAuth)
	e.PUT("/auth/profile", accountHandler.UpdateProfile, requireAuth)
	e.POST("/auth/change-password", accountHandler.ChangePassword, requireAuth)
	e.POST("/auth/enable-2fa", accountHandler.EnableTwoFactor, requireAuth)
	e.POST("/auth/verify-enable-2fa", accountHandler.ConfirmTwoFactor, requireAuth)
	e.POST("/auth/disable-2fa", accountHandler.DisableTwoFactor, requireAuth)

	// --- Activity (audit trail) routes ---
	e.GET("/activity", activityHandler.List, requireAuth)
	e.GET("/activity/stats", activityHandler.Stats, requireAuth)
	e.DELETE("/activity/clear", activityHandler.Clear, requireAuth)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
