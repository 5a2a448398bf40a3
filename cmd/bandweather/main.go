package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/middleware/logger"

	httpapi "github.com/i474232898/bandweather/internal/api/http"
	"github.com/i474232898/bandweather/internal/bandsync"
	"github.com/i474232898/bandweather/internal/config"
	"github.com/i474232898/bandweather/internal/controller"
	"github.com/i474232898/bandweather/internal/forecast"
	"github.com/i474232898/bandweather/internal/location"
	"github.com/i474232898/bandweather/internal/observe"
	"github.com/i474232898/bandweather/internal/scheduler"
	"github.com/i474232898/bandweather/internal/settings"
	"github.com/i474232898/bandweather/internal/tile"
	"github.com/i474232898/bandweather/internal/wearable"
	"github.com/i474232898/bandweather/internal/wearable/emulator"
)

func main() {
	cfgPath := os.Getenv(config.EnvPrefix + "_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	hook := observe.NewSentryHook(cfg.App.Env, cfg.App.Name, cfg.Log.SentryDSN, !cfg.IsProduction())
	l := observe.NewZapLogger(cfg.App.Name, cfg.App.Env, cfg.Log.Level, os.Stdout, hook)
	hook.SetLogger(l)
	defer l.Stop()
	defer hook.Flush()

	store, err := settings.NewSQLite(cfg.Storage.SettingsPath, l)
	if err != nil {
		l.Fatal("failed to open settings", map[string]any{"path": cfg.Storage.SettingsPath, "error": err.Error()})
	}
	defer store.Close()

	if !cfg.Band.Emulated {
		l.Fatal("no band bridge is available, set band.emulated to true")
	}
	band := emulator.New("Band Weather emulator",
		emulator.WithPaired(cfg.Band.EmulatorPaired),
		emulator.WithLogger(l),
	)

	icons, err := tile.LoadIcons(cfg.Band.IconDir)
	if err != nil {
		l.Fatal("failed to load tile icons", map[string]any{"dir": cfg.Band.IconDir, "error": err.Error()})
	}

	// Outbound forecast calls: one GET per sync behind a breaker and a rate limit.
	var fetcher forecast.Fetcher = forecast.NewClient(&http.Client{Timeout: cfg.Forecast.Timeout}, forecast.Options{
		BaseURL:          cfg.Forecast.BaseURL,
		AlternateBaseURL: cfg.Forecast.AlternateBaseURL,
		APIKey:           cfg.Forecast.APIKey,
		Days:             cfg.Forecast.Days,
	}, l)
	if cfg.Forecast.RatePerMinute > 0 {
		fetcher = forecast.NewRateLimitedClient(fetcher, cfg.Forecast.RatePerMinute, 1)
	}

	deps := bandsync.Deps{
		Locator:  newLocator(cfg, l),
		Forecast: fetcher,
		Session:  wearable.NewSession(band, l),
		Settings: store,
		Guard:    bandsync.NewTileGuard(),
		Logger:   l,
	}
	if cfg.Location.UsePostalCode {
		deps.Postal = location.NewResolver(cfg.Location.GeocoderAPIKey)
	}

	orch := bandsync.New(deps, bandsync.WithRetry(wearable.RetryPolicy{
		Attempts: cfg.Band.ConnectAttempts,
		Delay:    cfg.Band.ConnectDelay,
	}))

	registry := scheduler.NewRegistry(cfg.Schedule.SyncTimeout, l)
	registry.Start()
	defer registry.Stop()

	ctrl := controller.New(controller.Config{
		TimerInterval:    cfg.Schedule.TimerInterval,
		TimeZoneInterval: cfg.Schedule.TimeZoneInterval,
	}, controller.Deps{
		Orchestrator: orch,
		Session:      deps.Session,
		Settings:     store,
		Registry:     registry,
		Tile:         tile.New(icons),
		Notifier: func(s controller.Snapshot) {
			l.Debug("band state changed", map[string]any{
				"paired":     s.IsPaired,
				"tile_added": s.IsTileAdded,
				"syncing":    s.IsSyncing,
			})
		},
		Logger: l,
	})

	// Triggers live in memory, so an installed tile gets them back here.
	checkCtx, cancelCheck := context.WithTimeout(context.Background(), cfg.Schedule.SyncTimeout)
	st := ctrl.Refresh(checkCtx)
	cancelCheck()
	l.Info("band checked", map[string]any{"kind": string(st.Kind), "message": st.Message})

	app := httpapi.NewApp(httpapi.AppConfig{
		Name:         cfg.App.Name,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})
	app.Use(logger.New())
	httpapi.RegisterRoutes(app, cfg.App.Name, ctrl)

	go func() {
		l.Info("http api listening", map[string]any{"addr": cfg.Addr()})
		if err := app.Listen(cfg.Addr()); err != nil {
			l.Error(err, map[string]any{"component": "http"})
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	l.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		l.Error(err, map[string]any{"component": "http"})
	}
}

func newLocator(cfg *config.Config, l *observe.Logger) location.Provider {
	if cfg.Location.Mode == "ip" {
		return location.NewIPProvider(&http.Client{}, cfg.Location.LookupURL, cfg.Location.Timeout, cfg.Location.MaxAge, l)
	}
	return location.NewStaticProvider(location.Coordinate{
		Latitude:  cfg.Location.Latitude,
		Longitude: cfg.Location.Longitude,
	})
}
