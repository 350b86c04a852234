package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"ElephantWatchAPI/internal/ai"
	"ElephantWatchAPI/internal/auth"
	"ElephantWatchAPI/internal/config"
	"ElephantWatchAPI/internal/database"
	"ElephantWatchAPI/internal/detection"
	"ElephantWatchAPI/internal/geo"
	"ElephantWatchAPI/internal/handler"
	"ElephantWatchAPI/internal/line"
	"ElephantWatchAPI/internal/logger"
	"ElephantWatchAPI/internal/metrics"
	"ElephantWatchAPI/internal/middleware"
	"ElephantWatchAPI/internal/mirror"
	"ElephantWatchAPI/internal/mqtt"
	"ElephantWatchAPI/internal/repository"
	"ElephantWatchAPI/internal/server"
	"ElephantWatchAPI/internal/service"
	"ElephantWatchAPI/internal/simulation"
	"ElephantWatchAPI/internal/websocket"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// 2. Initialize Logger
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Mode:        cfg.Logging.Mode,
		LogFilePath: cfg.Logging.FilePath,
		UseColors:   cfg.Logging.UseColors,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer log.Close()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Configuration validation failed: %v", err)
	}

	cfg.Print()
	for _, missing := range cfg.MissingIntegrations() {
		log.Warn("Integration disabled: %s", missing)
	}
	log.Info("Starting Elephant Watch API Server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector, err := metrics.New(nil)
	if err != nil {
		log.Fatal("Failed to register metrics: %v", err)
	}
	hub := websocket.NewHub(log.Named("ws"), cfg.Security.CORSAllowedOrigins...)

	var checks []handler.HealthCheck

	// 3. Alert audit (optional)
	var alertRepo repository.IAlertRepository
	if cfg.Database.Enabled {
		db, err := database.New(cfg)
		if err != nil {
			log.Fatal("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			log.Fatal("Failed to migrate database: %v", err)
		}
		alertRepo = repository.NewAlertRepository(db.DB)
		checks = append(checks, handler.HealthCheck{Name: "database", Check: db.Health, Critical: true})
		log.Info("Database connected successfully")
	}

	// 4. Mirror
	var mirrorStore mirror.Store = mirror.NewMemory()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to reach redis at %s: %v", cfg.Redis.Addr, err)
		}
		mirrorStore = mirror.NewRedis(rdb, mirror.DefaultKey)
		checks = append(checks, handler.HealthCheck{
			Name:     "redis",
			Check:    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			Critical: true,
		})
		log.Info("Mirror backed by redis %s", cfg.Redis.Addr)
	}

	// 5. Simulation store and its observers
	store := simulation.NewStore(log.Named("simulation"),
		simulation.WithListener(hub),
		simulation.WithListener(collector),
	)
	syncer := simulation.NewSyncer(cfg.Sync.URL, cfg.Sync.Timeout, log.Named("sync"))
	store.Subscribe(syncer)

	alertListeners := []service.AlertListener{hub, collector}

	// 6. MQTT (optional)
	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.NewClient(mqtt.ClientConfig{
			MQTT:   &cfg.MQTT,
			Logger: log.Named("mqtt"),
		})
		if err != nil {
			log.Fatal("Failed to create MQTT client: %v", err)
		}
		defer func() {
			if err := mqttClient.Disconnect(); err != nil {
				log.Error("Failed to disconnect MQTT: %v", err)
			}
		}()

		if err := mqttClient.Connect(); err != nil {
			log.Fatal("Failed to connect to MQTT broker: %v", err)
		}

		publisher := mqtt.NewPublisher(mqttClient, &cfg.MQTT, log.Named("mqtt"))
		store.Subscribe(publisher)
		alertListeners = append(alertListeners, publisher)

		if err := mqttClient.Subscribe(cfg.MQTT.CommandTopic, mqtt.ScenarioCommandHandler(store, log.Named("mqtt"))); err != nil {
			log.Fatal("Failed to subscribe to command topic: %v", err)
		}
		checks = append(checks, handler.HealthCheck{
			Name: "mqtt",
			Check: func(ctx context.Context) error {
				_, err := mqttClient.Health(ctx)
				return err
			},
		})
		log.Info("MQTT subscriptions active")
	}

	// 7. Outbound integrations
	var notifier service.Notifier
	if cfg.LineEnabled() {
		lineClient, err := line.NewClient(ctx, cfg.Line)
		if err != nil {
			log.Fatal("Failed to create LINE client: %v", err)
		}
		notifier = lineClient
	}

	var generator ai.Generator
	if cfg.AI.APIKey != "" {
		gemini, err := ai.NewGemini(ctx, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			log.Fatal("Failed to create AI client: %v", err)
		}
		generator = gemini
	}

	detector := detection.NewClient(cfg.Detection.BaseURL, cfg.Detection.Timeout)
	if detector.Configured() {
		checks = append(checks, handler.HealthCheck{Name: "detection", Check: detector.Ping})
	}

	zones, err := geo.Resolve(ctx, cfg.Zones.KMLPath, cfg.Zones.YAMLPath)
	if err != nil {
		log.Error("Failed to load zone boundary, overlays disabled: %v", err)
		zones = nil
	}

	// 8. Services
	alertService := service.NewAlertService(service.AlertServiceConfig{
		Mirror:    mirrorStore,
		Notifier:  notifier,
		AdminID:   cfg.Line.AdminUserID,
		Repo:      alertRepo,
		Listeners: alertListeners,
		Logger:    log.Named("alerts"),
	})
	chatService := service.NewChatService(mirrorStore, generator, collector, log.Named("chat"))

	// 9. Handlers
	handlers := server.Handlers{
		Mirror:     handler.NewMirrorHandler(alertService, log),
		Chat:       handler.NewChatHandler(chatService, cfg.Server.MaxUploadBytes, log),
		Simulation: handler.NewSimulationHandler(store, log),
		Zone:       handler.NewZoneHandler(zones, log),
		Detect:     handler.NewDetectHandler(detector, cfg.Server.MaxUploadBytes, log),
		Config:     handler.NewConfigHandler(cfg.Map),
		Health:     handler.NewHealthHandler(log, checks...),
		WS:         handler.NewWSHandler(hub, store, log),
	}

	var verifier middleware.TokenVerifier
	if cfg.Security.AuthEnabled {
		authn := auth.New(
			cfg.Security.JWTSecret,
			cfg.Security.OperatorPasswordHash,
			time.Duration(cfg.Security.JWTExpirationHours)*time.Hour,
		)
		handlers.Auth = handler.NewAuthHandler(authn, log)
		verifier = authn
	}

	// 10. Run until signalled
	srv := server.New(cfg, collector, log)
	srv.RegisterHandlers(ctx, handlers, verifier)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		log.Warn("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	log.Info("API server ready on http://%s:%d", cfg.Server.Host, cfg.Server.Port)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Server stopped with error: %v", err)
	}
	syncer.Wait()

	log.Info("Shutdown complete")
}
