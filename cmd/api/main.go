package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/JoyBrar2001/advanced-auth/docs"
	"github.com/JoyBrar2001/advanced-auth/internal/api"
	"github.com/JoyBrar2001/advanced-auth/internal/core/ports"
	"github.com/JoyBrar2001/advanced-auth/internal/infrastructure/config"
	mongodb "github.com/JoyBrar2001/advanced-auth/internal/infrastructure/db/mongo"
	redisdb "github.com/JoyBrar2001/advanced-auth/internal/infrastructure/db/redis"
	"github.com/JoyBrar2001/advanced-auth/internal/infrastructure/mail"
	"github.com/JoyBrar2001/advanced-auth/internal/infrastructure/queue"
	"github.com/JoyBrar2001/advanced-auth/pkg/logger"
)

// @title        Advanced Auth API
// @version      1.0
// @description  Credential and session lifecycle API: signup, email verification, login, logout, password reset, session check.
// @BasePath     /api
func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.Production(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- MongoDB ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}

	if err := mongodb.NewAccountRepository(db).EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("mongo index creation failed")
	}

	// --- Redis ---
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}

	// --- Mail pipeline ---
	var mailer ports.Mailer
	if cfg.Mail.Token != "" {
		mailer = mail.NewMailtrap(mail.Config{
			Token:       cfg.Mail.Token,
			SenderEmail: cfg.Mail.SenderEmail,
			SenderName:  cfg.Mail.SenderName,
		}, log)
	} else {
		log.Warn().Msg("no mailtrap token configured, mails will be logged only")
		mailer = mail.NewLogMailer(log)
	}

	dispatcher := queue.NewDispatcher(mailer, redisdb.NewMailDedup(rdb), log)
	dispatcher.Start(ctx)

	// --- HTTP server ---
	e := api.NewRouter(db, rdb, dispatcher, cfg, log)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect failed")
	}
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close failed")
	}
}
