package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"mirrormind/internal/admintoken"
	"mirrormind/internal/app"
	"mirrormind/internal/config"
	"mirrormind/internal/ratelimit"
	"mirrormind/internal/server"
	"mirrormind/internal/util"
	"mirrormind/pkg/ai"
	"mirrormind/pkg/notify"
	"mirrormind/pkg/queue"
	"mirrormind/pkg/storage"
	"mirrormind/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	requestTimeout, err := config.ParseRequestTimeout(cfg.RequestTimeout)
	if err != nil {
		log.Fatalf("failed to parse request timeout: %v", err)
	}
	model, err := ai.NewClient(ai.Config{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		AnalysisModel:  cfg.AnalysisModel,
		NamerModel:     cfg.NamerModel,
		RequestTimeout: requestTimeout,
	})
	if err != nil {
		log.Fatalf("failed to init model client: %v", err)
	}

	var dataStore store.Store
	if cfg.DatabaseURL != "" {
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to init postgres store: %v", err)
		}
	} else {
		slog.Warn("no database configured, keeping jobs in memory")
		dataStore = store.NewMemoryStore()
	}

	var jobQueue queue.Queue
	var limiter *ratelimit.FixedWindowLimiter
	if cfg.RedisAddr != "" {
		jobQueue, err = queue.NewRedisQueue(queue.RedisQueueConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Stream:   "mirror:jobs",
			MaxLen:   int64(cfg.QueueCapacity),
		})
		if err != nil {
			log.Fatalf("failed to init redis queue: %v", err)
		}
		if cfg.RateLimitPerMinute > 0 {
			limiter, err = ratelimit.NewRedisFixedWindowLimiter(
				cfg.RedisAddr, cfg.RedisPassword, "mirror:ratelimit",
				cfg.RateLimitPerMinute, time.Minute,
			)
			if err != nil {
				log.Fatalf("failed to init rate limiter: %v", err)
			}
		}
	} else {
		slog.Warn("no redis configured, using in-process queue")
		jobQueue = queue.NewLocalQueue(cfg.QueueCapacity)
	}

	var objects storage.ObjectStore
	if cfg.MinioEndpoint != "" {
		objects, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("failed to init object store: %v", err)
		}
	}

	var notifier notify.Notifier
	if cfg.AMQPURL != "" {
		amqpNotifier, err := notify.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("failed to init notifier: %v", err)
		}
		defer amqpNotifier.Close()
		notifier = amqpNotifier
	}

	appCore, err := app.New(app.Config{
		Store:              dataStore,
		Model:              model,
		Queue:              jobQueue,
		Objects:            objects,
		Notifier:           notifier,
		LargeFileThreshold: cfg.LargeFileThreshold,
		DefaultLanguage:    cfg.DefaultLanguage,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	var adminVerifier *admintoken.Verifier
	if cfg.AdminJWTSecret != "" {
		adminVerifier, err = admintoken.NewVerifier(cfg.AdminJWTSecret, admintoken.DefaultLeeway)
		if err != nil {
			log.Fatalf("failed to init admin verifier: %v", err)
		}
	}

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:            appCore,
		Limiter:        limiter,
		TrustedProxies: trusted,
		AdminVerifier:  adminVerifier,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		Enabled:        cfg.IsEnabled(),
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	appCore.Start(ctx, cfg.Workers)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("mirror server listening", "addr", addr, "language", cfg.DefaultLanguage, "timeline_threshold", cfg.LargeFileThreshold)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
