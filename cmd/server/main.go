package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"storehub/backend/internal/audit"
	auditrepo "storehub/backend/internal/audit/repository"
	"storehub/backend/internal/config"
	"storehub/backend/internal/db"
	identityservice "storehub/backend/internal/identity/service"
	"storehub/backend/internal/security"
	"storehub/backend/internal/server"
	"storehub/backend/internal/server/middleware"
	sessionrepo "storehub/backend/internal/session/repository"
	sessionservice "storehub/backend/internal/session/service"
	storerepo "storehub/backend/internal/store/repository"
	storeservice "storehub/backend/internal/store/service"
	"storehub/backend/internal/telemetry"
	userrepo "storehub/backend/internal/user/repository"
	userservice "storehub/backend/internal/user/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	setupLogging(cfg)

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("env", cfg.Env).
		Msg("service starting")

	shutdownTracing, err := telemetry.Setup(context.Background(), cfg.OTLPEndpoint, server.ServiceName)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing setup")
	}

	pool, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect")
	}
	defer pool.Close()
	log.Info().Msg("database connection pool established")

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenProvider(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTTL(), cfg.RefreshTTL())

	auditLog := audit.NewLogger(auditrepo.NewPostgresRepository(pool), middleware.ClientIPFromContext)
	sessions := sessionservice.NewStore(sessionrepo.NewPostgresRepository(pool))
	users := userrepo.NewPostgresRepository(pool)

	authSvc := identityservice.NewAuthService(users, sessions, hasher, tokens, auditLog)
	userSvc := userservice.NewService(users, hasher, auditLog)
	storeSvc := storeservice.NewService(storerepo.NewPostgresRepository(pool), auditLog)

	var shuttingDown atomic.Bool
	engine := server.New(server.Deps{
		Auth:         authSvc,
		Users:        userSvc,
		Stores:       storeSvc,
		ShuttingDown: &shuttingDown,
		Tracing:      cfg.OTLPEndpoint != "",
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("serve")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	// Fail readiness first so load balancers drain traffic before the
	// listener closes.
	shuttingDown.Store(true)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown")
	}
	pool.Close()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracer shutdown")
	}
	log.Info().Msg("graceful shutdown complete")
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
}
