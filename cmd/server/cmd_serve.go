package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"copyforge/internal/changefeed"
	"copyforge/internal/database"
	"copyforge/internal/middleware"
	"copyforge/internal/repository"
	"copyforge/internal/router"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := database.SeedAdmin(db, &cfg.Admin, log); err != nil {
		log.WithError(err).Warn("admin seed failed")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	feed := changefeed.New(log)
	limiter := middleware.NewInMemoryRateLimiter(cfg.Server.RateLimit, cfg.Server.RateWindow)
	engine, detach := router.Setup(cfg, db, feed, limiter, log)
	defer detach()

	monitor := changefeed.NewMonitor(feed, cfg.Notifications.MonitorInterval, log,
		changefeed.Source{
			Category:    changefeed.CategoryNotifications,
			Fingerprint: repository.NewNotificationRepository(db).Fingerprint,
		},
		changefeed.Source{
			Category:    changefeed.CategoryDismissals,
			Fingerprint: repository.NewDismissalRepository(db).Fingerprint,
		},
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		monitor.Run(gctx)
		return nil
	})
	g.Go(func() error {
		limiter.Cleanup(gctx)
		return nil
	})
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		bridge := changefeed.NewRedisBridge(client, cfg.Redis.Channel, feed, log)
		g.Go(optional(gctx, log, "redis change bridge", bridge.Run))
		log.WithField("addr", cfg.Redis.Addr).Info("redis change bridge enabled")
	}
	g.Go(func() error {
		log.WithField("port", cfg.Server.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

// optional adapts run for the errgroup so that its failure is logged and the
// server keeps going without it.
func optional(ctx context.Context, log logrus.FieldLogger, name string, run func(context.Context) error) func() error {
	return func() error {
		if err := run(ctx); err != nil {
			log.WithError(err).Warnf("%s stopped, continuing without it", name)
		}
		return nil
	}
}
