package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/plantboard/internal/api"
	"github.com/gyaneshwarpardhi/plantboard/internal/cache"
	"github.com/gyaneshwarpardhi/plantboard/internal/config"
	"github.com/gyaneshwarpardhi/plantboard/internal/dashboard"
	"github.com/gyaneshwarpardhi/plantboard/internal/dataset"
	"github.com/gyaneshwarpardhi/plantboard/internal/errs"
	"github.com/gyaneshwarpardhi/plantboard/internal/hub"
)

func main() {
	cfgPath := flag.String("config", "", "Path to YAML or TOML config (defaults when empty)")
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	dataPath := flag.String("data", "", "Path to the source CSV (overrides data.path)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", errs.Loggable(err))
		os.Exit(1)
	}
	cfg := withFlags(loader.Config(), *addr, *dataPath)
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Dataset ───────────────────────────────────────────────────────────────
	store := dataset.NewStore(cfg)
	notices := hub.New()
	defer notices.Close()

	var relay *hub.Relay
	if cfg.Notify.RedisAddr != "" {
		relay, err = hub.NewRelay(ctx, cfg.Notify.RedisAddr, cfg.Notify.Channel)
		if err != nil {
			slog.Warn("notice relay unavailable, notices stay local", "err", errs.Loggable(err))
		} else {
			defer relay.Close()
			if err := relay.Forward(ctx, notices); err != nil {
				slog.Warn("notice relay subscribe failed", "err", errs.Loggable(err))
			}
		}
	}
	store.OnSwap(func(snap *dataset.Snapshot) {
		n := hub.Reloaded(snap)
		notices.Publish(n)
		if relay != nil {
			if err := relay.Publish(ctx, n); err != nil {
				slog.Warn("notice relay publish failed", "err", errs.Loggable(err))
			}
		}
	})

	if _, _, err := store.Reload(ctx); err != nil {
		// The server still starts; views report the store state until the file appears.
		slog.Warn("initial dataset load failed", "path", cfg.Data.Path, "err", errs.Loggable(err))
	}
	if cfg.Data.Watch {
		stopData, err := store.Watch(ctx)
		if err != nil {
			slog.Warn("dataset watcher unavailable (hot-reload disabled)", "err", errs.Loggable(err))
		} else {
			defer stopData()
		}
	}

	// ── Hot-reload config ─────────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		newCfg = withFlags(newCfg, *addr, *dataPath)
		if err := config.Validate(newCfg); err != nil {
			slog.Warn("hot-reload skipped: config invalid", "err", err)
			return
		}
		store.SetConfig(newCfg)
		if _, changed, err := store.Reload(ctx); err != nil {
			slog.Warn("reload after config change failed", "err", errs.Loggable(err))
		} else {
			slog.Info("config hot-reloaded", "reparsed", changed)
		}
	})
	if loader.Path() != "" {
		stopWatch, err := loader.Watch()
		if err != nil {
			slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
		} else {
			defer stopWatch()
		}
	}

	// ── Result cache ──────────────────────────────────────────────────────────
	results, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		slog.Warn("cache backend unavailable, caching disabled", "backend", cfg.Cache.Backend, "err", errs.Loggable(err))
		results = cache.Noop{}
	}
	defer results.Close()
	svc := dashboard.New(store, dashboard.WithCache(results, time.Duration(cfg.Cache.TTLSeconds)*time.Second))

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.New(svc, notices),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutMs) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutMs) * time.Millisecond,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Server.Addr, "data", cfg.Data.Path, "cache", cfg.Cache.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	// Websocket clients are hijacked connections; close them before Shutdown waits.
	notices.Close()
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // stop watchers and the relay
	slog.Info("goodbye")
}

// withFlags applies command-line overrides to a copy of cfg.
func withFlags(cfg *config.Config, addr, data string) *config.Config {
	out := *cfg
	if addr != "" {
		out.Server.Addr = addr
	}
	if data != "" {
		out.Data.Path = data
	}
	return &out
}
