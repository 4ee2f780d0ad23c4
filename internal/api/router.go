package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/JoyBrar2001/advanced-auth/internal/api/handler"
	"github.com/JoyBrar2001/advanced-auth/internal/api/middleware"
	"github.com/JoyBrar2001/advanced-auth/internal/core/ports"
	"github.com/JoyBrar2001/advanced-auth/internal/core/service"
	"github.com/JoyBrar2001/advanced-auth/internal/infrastructure/config"
	mongodb "github.com/JoyBrar2001/advanced-auth/internal/infrastructure/db/mongo"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, mailQueue ports.MailQueue, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{cfg.ClientURL},
		AllowCredentials: true,
	}))
	e.Use(echoprometheus.NewMiddleware("auth"))

	// --- Dependencies ---
	accountRepo := mongodb.NewAccountRepository(db)
	sessions := service.NewSessionIssuer(cfg.JWTSecret, cfg.SessionTTL)
	accountService := service.NewAccountService(accountRepo, mailQueue, sessions, cfg.ClientURL, log)
	authHandler := handler.NewAuthHandler(accountService, sessions.TTL(), cfg.Production())
	sessionRequired := middleware.Session(sessions)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/verify-email", authHandler.VerifyEmail)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password/:token", authHandler.ResetPassword)
	auth.GET("/check-auth", authHandler.CheckAuth, sessionRequired)

	// --- Operational endpoints ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
