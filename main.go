package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/snap-point/articles-api/config"
	"github.com/snap-point/articles-api/routes"
	"github.com/snap-point/articles-api/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "articles-api",
	Short: "REST backend for articles and likes",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger, err = config.NewLogger(cfg.App.Env)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shutdownTelemetry, err := config.InitTelemetry(ctx, cfg.Telemetry, cfg.App.Env)
		if err != nil {
			return err
		}
		defer shutdownTelemetry(context.Background())

		db, err := config.InitDB(cfg.Database, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := config.CloseDB(db); err != nil {
				logger.Warn("failed to close database", zap.Error(err))
			}
		}()
		if err := config.Migrate(db); err != nil {
			return err
		}

		rdb, err := config.InitRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		var board *services.Leaderboard
		if rdb != nil {
			defer rdb.Close()
			board = services.NewLeaderboard(rdb, cfg.Leaderboard.Key)
		}

		rabbit, err := config.InitRabbit(cfg.RabbitMQ, logger)
		if err != nil {
			return err
		}
		defer rabbit.Close()

		var observers []services.LikeObserver
		if board != nil {
			observers = append(observers, board)
		}
		if rabbit != nil {
			observers = append(observers, services.NewLikePublisher(rabbit.Channel, rabbit.Queue))
		}

		if cfg.App.Env != "development" {
			gin.SetMode(gin.ReleaseMode)
		}
		router := routes.NewRouter(routes.Deps{
			DB:       db,
			Articles: services.NewArticleService(db),
			Likes: services.NewLikeService(db, logger,
				services.WithMaxAttempts(cfg.Like.MaxAttempts),
				services.WithObservers(observers...),
			),
			Leaderboard:     board,
			LeaderboardSize: cfg.Leaderboard.Size,
			Log:             logger,
			ServiceName:     cfg.Telemetry.ServiceName,
		})

		srv := &http.Server{
			Addr:              ":" + cfg.App.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("starting server", zap.String("port", cfg.App.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := config.InitDB(cfg.Database, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := config.CloseDB(db); err != nil {
				logger.Warn("failed to close database", zap.Error(err))
			}
		}()
		if err := config.Migrate(db); err != nil {
			return err
		}
		logger.Info("migration complete")
		return nil
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Manage the Redis like leaderboard",
}

var leaderboardRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Reload leaderboard scores from the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := config.InitDB(cfg.Database, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := config.CloseDB(db); err != nil {
				logger.Warn("failed to close database", zap.Error(err))
			}
		}()
		rdb, err := config.InitRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		if rdb == nil {
			return services.ErrLeaderboardDisabled
		}
		defer rdb.Close()

		n, err := services.NewLeaderboard(rdb, cfg.Leaderboard.Key).Rebuild(ctx, db)
		if err != nil {
			return err
		}
		logger.Info("leaderboard rebuilt", zap.Int("articles", n))
		return nil
	},
}

func main() {
	leaderboardCmd.AddCommand(leaderboardRebuildCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, leaderboardCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
