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

	"github.com/hray3182/Nuhyi/internal/ai"
	"github.com/hray3182/Nuhyi/internal/aladhan"
	"github.com/hray3182/Nuhyi/internal/alarm"
	"github.com/hray3182/Nuhyi/internal/api"
	"github.com/hray3182/Nuhyi/internal/bot"
	"github.com/hray3182/Nuhyi/internal/bot/handlers"
	"github.com/hray3182/Nuhyi/internal/cache"
	"github.com/hray3182/Nuhyi/internal/config"
	"github.com/hray3182/Nuhyi/internal/database"
	"github.com/hray3182/Nuhyi/internal/geocode"
	"github.com/hray3182/Nuhyi/internal/logger"
	"github.com/hray3182/Nuhyi/internal/metrics"
	"github.com/hray3182/Nuhyi/internal/notify"
	"github.com/hray3182/Nuhyi/internal/prayer"
	"github.com/hray3182/Nuhyi/internal/quran"
	"github.com/hray3182/Nuhyi/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	logger.Setup(cfg.LogLevel, cfg.IsDev())
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.MustNew(prometheus.DefaultRegisterer)

	// Connect to database
	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Connected to database")

	// Run migrations
	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Msg("Database migrations completed")

	rdb := cache.NewRedisClient(cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("address", cfg.RedisAddress).Msg("Redis unreachable, timetables will be refetched")
	}
	timetables := cache.NewTimetableCache(rdb, cache.DefaultTTL)

	users := repository.NewUserRepository(db)
	runner := alarm.New(repository.NewAlarmRepository(db),
		alarm.WithInterval(cfg.TickInterval),
		alarm.WithMetrics(m),
	)

	tgAPI, err := bot.NewAPI(cfg.TelegramToken, cfg.IsDev())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Telegram API")
	}

	sinks := []notify.Sink{notify.NewTelegram(tgAPI)}
	if cfg.MQTTBrokerURL != "" {
		client, err := notify.NewMQTTClient(cfg.MQTTBrokerURL, fmt.Sprintf("nuhyi-%d", os.Getpid()))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to MQTT broker")
		}
		defer client.Disconnect(250)
		sinks = append(sinks, notify.NewMQTT(client, cfg.MQTTTopicPrefix))
	} else {
		log.Info().Msg("MQTT not configured, azan speaker notifications disabled")
	}

	sched := prayer.New(prayer.Deps{
		Timers:    runner,
		Source:    aladhan.New(cfg.AladhanBaseURL, cfg.HTTPTimeout),
		Cache:     timetables,
		Settings:  repository.NewSettingsRepository(db),
		Reminders: repository.NewReminderRepository(db),
		Notifier:  notify.NewFanout(m, sinks...),
		Metrics:   m,
	})
	runner.SetHandler(sched.OnAlarm)
	go runner.Start(ctx)

	verses := quran.New(cfg.QuranBaseURL, cfg.HTTPTimeout)

	deps := handlers.Deps{
		API:       tgAPI,
		Scheduler: sched,
		Users:     users,
		Verses:    verses,
		Geocoder:  geocode.New(cfg.GeocodeBaseURL, cfg.HTTPTimeout),
	}
	// Initialize AI client (optional)
	if cfg.AIAPIKey != "" {
		deps.AI = ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
		log.Info().Str("model", cfg.AIModel).Msg("AI client initialized")
	} else {
		log.Info().Msg("AI client not configured, natural language features disabled")
	}
	b := bot.New(tgAPI, handlers.New(deps))

	var srv *http.Server
	if cfg.HTTPAddress != "" {
		server := api.NewServer(sched, verses, api.Config{
			Token:    cfg.APIToken,
			Gatherer: prometheus.DefaultGatherer,
			Users:    users,
		})
		srv = &http.Server{
			Addr:              cfg.HTTPAddress,
			Handler:           server.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Info().Str("address", cfg.HTTPAddress).Msg("HTTP API listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("HTTP API stopped")
				cancel()
			}
		}()
	}

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	log.Info().Msg("Starting bot...")
	if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Bot error")
	}

	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("HTTP API shutdown")
		}
	}
}
