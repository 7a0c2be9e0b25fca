package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-sync/core/loader"
	"catalog-sync/core/logger"
	"catalog-sync/core/middleware/auth"
	"catalog-sync/core/middleware/rayid"
	"catalog-sync/feature/possync"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sync server",
	Long:  `Starts the HTTP server, the background sync workers and the sync scheduler.`,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := bootstrap(cmd.Context())
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		defer app.close()
		logg := app.logger
		zap.ReplaceGlobals(logg)

		server := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		mgr := loader.NewManager()
		mgr.Register(possync.NewFeature(app.service))

		// RayID first so every log line below carries it.
		server.Use(rayid.New())

		server.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Providers authenticate webhooks with signatures instead of the API key.
		server.Use(auth.New(auth.Config{
			ApiKey:       app.cfg.Server.ApiKey,
			SkipPrefixes: []string{"/webhooks/"},
		}))

		if err := mgr.LoadAll(server); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		var scheduler *possync.Scheduler
		if app.cfg.Sync.ScheduleEnabled {
			scheduler = possync.NewScheduler(app.service, app.cfg.Sync.Schedule, logg)
			if err := scheduler.Start(); err != nil {
				logg.Fatal("Failed to start scheduler", zap.Error(err))
			}
		}

		go func() {
			logg.Info("Starting server",
				zap.String("port", app.cfg.Server.Port),
				zap.Strings("features", mgr.Enabled()),
			)
			if err := server.Listen(":" + app.cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		_ = server.ShutdownWithContext(ctx)
		if scheduler != nil {
			scheduler.Stop(ctx)
		}
		if err := app.dispatcher.Stop(ctx); err != nil {
			logg.Warn("Background syncs did not finish before shutdown", zap.Error(err))
		}
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
