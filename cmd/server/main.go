package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"loungepos/internal/api"
	"loungepos/internal/cache"
	"loungepos/internal/config"
	"loungepos/internal/engine"
	"loungepos/internal/events"
	"loungepos/internal/export"
	"loungepos/internal/metrics"
	"loungepos/internal/notify"
	"loungepos/internal/sheets"
	"loungepos/internal/store"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("LOUNGEPOS_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := store.New(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open store error")
	}
	defer db.Close()

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	}
	stationCache := cache.New(rdb, cfg.CacheTTL())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	eng, err := engine.New(ctx, db, db, db, bus, cfg.WriteTimeout(), &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("create engine error")
	}

	backup := store.NewBackupService(db, store.BackupConfig{
		Enabled:       cfg.Backup.Enabled,
		StoragePath:   cfg.Backup.StoragePath,
		IntervalHours: cfg.Backup.IntervalHours,
		RetentionDays: cfg.Backup.RetentionDays,
	}, &logger)
	go backup.Start(ctx)

	subscribeCacheInvalidation(bus, stationCache)
	subscribeNotifier(bus, cfg, &logger)
	subscribeSheets(ctx, bus, cfg, &logger)

	metrics.Register()

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	reports := export.NewDailyReport(db, nil)
	srv := api.NewHTTPServer(api.Config{
		Port:      cfg.Server.Port,
		APIKey:    cfg.Server.APIKey,
		RateLimit: cfg.APIRateLimit(),
		RateBurst: cfg.APIRateBurst(),
	}, eng, stationCache, reports, &logger)

	logger.Info().Msg("lounge POS server started")
	if err := srv.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("API server error")
	}
}

func subscribeCacheInvalidation(bus *events.Bus, stationCache *cache.StationCache) {
	if !stationCache.Enabled() {
		return
	}
	invalidate := func(events.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		stationCache.Invalidate(ctx)
	}
	bus.Subscribe(engine.EventSessionStarted, invalidate)
	bus.Subscribe(engine.EventSessionClosed, invalidate)
}

func subscribeNotifier(bus *events.Bus, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Telegram.Enabled || cfg.Telegram.BotToken == "" {
		return
	}

	notifier, err := notify.New(cfg.Telegram.BotToken, cfg.Telegram.StaffChatID, logger)
	if err != nil {
		logger.Error().Err(err).Msg("telegram notifier disabled")
		return
	}

	bus.Subscribe(engine.EventSessionClosed, func(ev events.Event) {
		var payload engine.SessionClosedEvent
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			return
		}
		notifier.SessionClosed(&payload.LineItem, payload.Warnings)
	})
}

func subscribeSheets(ctx context.Context, bus *events.Bus, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Sheets.Enabled || cfg.Sheets.CredentialsFile == "" {
		return
	}

	svc, err := sheets.New(ctx, cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetName, logger)
	if err != nil {
		logger.Error().Err(err).Msg("sheets sync disabled")
		return
	}

	bus.Subscribe(engine.EventSessionClosed, func(ev events.Event) {
		var payload engine.SessionClosedEvent
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			return
		}
		syncCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := svc.AppendLineItem(syncCtx, &payload.LineItem); err != nil {
			logger.Warn().Err(err).Str("session_id", payload.Session.ID).Msg("sheets sync failed")
		}
	})
}

func startHealthServer(ctx context.Context, port int, db *store.Store, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
