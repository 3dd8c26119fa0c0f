package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/attendly/attendly/internal/api"
	"github.com/attendly/attendly/internal/config"
	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/pkg/logger"
	"github.com/attendly/attendly/internal/provider"
	"github.com/attendly/attendly/internal/provider/email"
	"github.com/attendly/attendly/internal/provider/sms"
	"github.com/attendly/attendly/internal/repository/postgres"
	"github.com/attendly/attendly/internal/service/accesscode"
	"github.com/attendly/attendly/internal/service/campaign"
	"github.com/attendly/attendly/internal/service/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	if cfg.Logging.RedactPII != nil {
		logger.SetRedact(*cfg.Logging.RedactPII)
	}

	// Database
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Redis backs the per-provider rate limiter. Without it the limiter is
	// a no-op and providers send unthrottled.
	var limiter provider.RateLimiter = provider.NoopRateLimiter{}
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unreachable, rate limiting disabled", "error", err.Error())
		} else {
			limiter = provider.NewRedisRateLimiter(redisClient)
			defer redisClient.Close()
		}
	}

	// Provider core: three-tier config resolution, cached registry,
	// failover dispatcher.
	configRepo := postgres.NewProviderConfigRepo(db)
	resolver := provider.NewResolver(configRepo, cfg.StaticProviderConfigs())
	registry := provider.NewRegistry(resolver, limiter, map[domain.Channel]map[domain.ProviderType]provider.Constructor{
		domain.ChannelEmail: email.Constructors(),
		domain.ChannelSMS:   sms.Constructors(),
	})
	dispatcher := provider.NewDispatcher(registry, cfg.Dispatch.AttemptTimeout())

	// Services
	campaignSvc := campaign.NewService(postgres.NewCampaignRepo(db), dispatcher, cfg.Dispatch.ChunkSize)
	codeSvc := accesscode.NewService(
		postgres.NewAccessCodeRepo(db),
		cfg.AccessCodes.PINLength,
		cfg.AccessCodes.TTL(),
		cfg.AccessCodes.SweepChunkSize,
	)
	metricsSvc := metrics.NewService(campaignSvc, codeSvc)

	// Background expiry sweep for access codes
	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	go codeSvc.RunSweep(sweepCtx, cfg.AccessCodes.SweepInterval())

	handlers := api.NewHandlers(registry, dispatcher, configRepo, campaignSvc, codeSvc, metricsSvc)
	server := api.NewServer(handlers)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	cancelSweep()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
