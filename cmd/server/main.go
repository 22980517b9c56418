package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"nutrition-planner/internal/app"
	"nutrition-planner/internal/config"
	"nutrition-planner/internal/httpapi"
	"nutrition-planner/internal/logger"
	"nutrition-planner/internal/storage"
	"nutrition-planner/internal/telegram"
)

const (
	shutdownTimeout   = 10 * time.Second
	housekeepingEvery = time.Hour
	metricsRetention  = 90
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.LogLevel, cfg.LogPretty)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, cleanup, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer cleanup()

	if err := run(ctx, cfg, application); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		cleanup()
		os.Exit(1)
	}
	log.Info().Msg("server exiting")
}

func run(ctx context.Context, cfg *config.Config, a *app.App) error {
	sessions := telegram.NewSessionRepository(a.DB().SQL)
	routerCfg := httpapi.RouterConfig{CORSOrigins: cfg.CORSOrigins}

	if cfg.TelegramEnabled() {
		bot, err := telegram.NewBot(cfg, a, sessions)
		if err != nil {
			return err
		}
		routerCfg.Webhook = bot.HandleWebhook
	} else {
		log.Info().Msg("telegram disabled: TELEGRAM_BOT_TOKEN or TELEGRAM_WEBHOOK_URL not set")
	}

	if cfg.BackupReceiverEnabled() {
		store, err := storage.NewSnapshotStore(cfg.BackupReceiverDir)
		if err != nil {
			return err
		}
		routerCfg.Receiver = httpapi.NewReceiver(store, []byte(cfg.BackupSecret), cfg.BackupKeepLocal)
		log.Info().Str("dir", cfg.BackupReceiverDir).Msg("backup receiver enabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.NewRouter(a, routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(housekeepingEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				housekeeping(ctx, a, sessions)
			}
		}
	})

	return g.Wait()
}

// housekeeping drops expired chat sessions and old agent metrics.
func housekeeping(ctx context.Context, a *app.App, sessions *telegram.SessionRepository) {
	if n, err := sessions.CleanupExpired(ctx, time.Now()); err != nil {
		log.Warn().Err(err).Msg("failed to clean up sessions")
	} else if n > 0 {
		log.Debug().Int64("sessions", n).Msg("expired sessions removed")
	}
	if n, err := a.CleanupMetrics(ctx, metricsRetention); err != nil {
		log.Warn().Err(err).Msg("failed to clean up metrics")
	} else if n > 0 {
		log.Debug().Int64("metrics", n).Msg("old metrics removed")
	}
}
