package main

import (
	"context"   // context package is needed for Redis operations and shutdown
	"errors"    // Error matching
	"net/http"  // HTTP server
	"os"        // Process signals
	"os/signal" // Signal notification
	"syscall"   // SIGTERM
	"time"      // Shutdown timeout

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging

	"wallet_ledger/internal/api"        // Custom package for API handlers
	"wallet_ledger/internal/config"     // Custom package for configuration
	"wallet_ledger/internal/db"         // Database connection
	"wallet_ledger/internal/events"     // Ledger event publishing
	"wallet_ledger/internal/ledger"     // Ledger engine
	"wallet_ledger/internal/middleware" // Custom package for middleware
	"wallet_ledger/internal/store"      // Database backed ledger store
	"wallet_ledger/internal/utils"      // Utility functions
)

// setupLogger applies the configured level and format to logrus
func setupLogger(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Warnf("unknown log level %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// Main function to set up and run the server
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	setupLogger(cfg)

	// Connect to the database
	database, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	defer redisClient.Close()

	// Test Redis connection
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Ledger service, publishing events only when brokers are configured
	opts := []ledger.Option{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, events.RetryConfig{
			MaxAttempts: cfg.KafkaMaxAttempts,
			BaseDelay:   cfg.KafkaBaseDelay,
			MaxDelay:    cfg.KafkaMaxDelay,
		})
		defer func() {
			if err := publisher.Close(); err != nil {
				logrus.Errorf("failed to close event publisher: %v", err)
			}
		}()
		opts = append(opts, ledger.WithPublisher(publisher))
	}
	svc := ledger.NewService(store.New(database), utils.BcryptHasher{}, ledger.Config{
		MinimumTopUp:     cfg.MinimumTopUp,
		Location:         cfg.Location(),
		RetryMaxAttempts: cfg.LedgerRetryMaxAttempts,
		RetryBaseDelay:   cfg.LedgerRetryBaseDelay,
		RetryMaxDelay:    cfg.LedgerRetryMaxDelay,
		PublishTimeout:   cfg.LedgerPublishTimeout,
	}, opts...)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger())

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	api.RegisterRoutes(r, api.Deps{
		Ledger:    svc,
		Redis:     redisClient,
		JWTSecret: cfg.JWTSecret,
		JWTTTL:    cfg.JWTTTL,
		CacheTTL:  cfg.CacheTTL,
	})

	srv := &http.Server{Addr: ":" + cfg.AppPort, Handler: r}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logrus.Info("Server running on " + cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("graceful shutdown failed: %v", err)
	}
}
