package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "trainboard/internal/api/http"
	"trainboard/internal/board"
	"trainboard/internal/config"
	"trainboard/internal/logger"
	"trainboard/internal/poll"
	"trainboard/internal/render"
	"trainboard/internal/scheduler"
	"trainboard/internal/store"
	"trainboard/internal/transit"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to YAML configuration file")
	once := flag.Bool("once", false, "run a single tick instead of looping")
	logLevel := flag.String("log-level", logger.InfoLevel, "log level (debug|info|warn|error)")
	flag.Parse()

	log := logger.New(*logLevel)
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Errorw("configuration error", "error", err)
		return 1
	}

	// Shared HTTP client for outbound API calls; carries the per-attempt timeout.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	client := transit.NewClient(httpClient, cfg.APIKey, transit.ClientOptions{BaseURL: cfg.BaseURL}, log)
	reconciler := transit.NewReconciler(log)
	formatter := board.NewFormatter(cfg.BoardOptions())
	renderer := render.NewTextRenderer(os.Stdout)
	differ := board.NewReconciler(renderer, log)
	history := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	cycle := poll.NewCycle(client, reconciler, cfg.Requests, formatter, differ, history, log)

	log.Infow("starting trainboard", "mode", cfg.Mode, "tuples", len(cfg.Requests),
		"refresh_seconds", cfg.RefreshSeconds)
	if cfg.Mode == board.ModeJourney {
		log.Infow("journey", "route", cfg.RouteName, "from", cfg.FromName, "to", cfg.ToName)
	} else {
		log.Infow("station", "station", cfg.StationName, "id", cfg.StationID)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		if err := cycle.RunTick(ctx); err != nil {
			log.Errorw("tick aborted", "error", err)
		}
		return 0
	}

	sched := scheduler.New(cycle, time.Duration(cfg.RefreshSeconds)*time.Second, log)
	if err := sched.Start(); err != nil {
		log.Errorw("failed to start scheduler", "error", err)
		return 1
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "trainboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		resp := fiber.Map{
			"status":  "ok",
			"service": "trainboard",
			"breaker": client.BreakerState(),
		}
		if entry, err := history.Latest(); err == nil {
			resp["last_tick"] = entry.At.UTC().Format(time.RFC3339)
		}
		return c.JSON(resp)
	})

	httpapi.RegisterRoutes(app, history)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Errorw("fiber server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	log.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "error during shutdown: %v\n", err)
	}
	return 0
}
