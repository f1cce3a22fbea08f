package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"entity-mapper/core/loader"
	"entity-mapper/core/logger"
	"entity-mapper/core/middleware/auth"
	"entity-mapper/core/middleware/rayid"
	"entity-mapper/feature/integrity"
	"entity-mapper/feature/library"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "entity-mapper/docs/swagger"
)

// @title Library API
// @version 1.0
// @description Book catalog whose writes go through the entity mapper.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the HTTP server",
	Long:  `Starts the HTTP server and loads all enabled features.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(false)
		if err != nil {
			return err
		}
		logg := a.logger
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		app := fiber.New(a.cfg.Server.Fiber())

		mgr := loader.NewManager(logg)
		var importer *library.Importer
		if a.library != nil {
			importer = a.importer()
		}
		mgr.Register(library.NewFeature(a.library, importer, a.db, logg))
		mgr.Register(integrity.NewFeature(a.storage, a.cfg.Storage, a.db, library.Models(), logg))

		// RayID first so every later log line carries it
		app.Use(rayid.New())
		app.Use(func(c *fiber.Ctx) error {
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

		app.Get("/swagger/*", swagger.HandlerDefault)
		app.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey}))

		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		go func() {
			logg.Info("Starting server", zap.String("port", a.cfg.Server.Port), zap.Bool("secured", a.cfg.Server.Secured()))
			if err := app.Listen(":" + a.cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		return app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
