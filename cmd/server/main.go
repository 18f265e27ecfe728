package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/iluma/offer-engine/internal/api"
	"github.com/iluma/offer-engine/internal/config"
	"github.com/iluma/offer-engine/internal/insights"
	"github.com/iluma/offer-engine/internal/personalization"
	"github.com/iluma/offer-engine/internal/report"
	"github.com/iluma/offer-engine/internal/sessioncache"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	slash := strings.Index(rest, "/")
	if slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func main() {
	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  ILUMA Offer Engine (cmd/server/main.go)                  ║")
	log.Println("║  Rule-based personalization and offer adaptation API      ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")

	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	// Pre-flight check: verify the target port is available
	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Postgres backs the insights audit trail. The engine runs without it.
	var db *sql.DB
	if cfg.Database.URL != "" {
		db, err = sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := db.PingContext(pingCtx); err != nil {
			log.Printf("Warning: database unreachable at startup (%s): %v", extractHost(cfg.Database.URL), err)
		} else {
			log.Printf("Connected to PostgreSQL at %s", extractHost(cfg.Database.URL))
		}
		pingCancel()
	} else {
		log.Println("No database configured; adaptation insights will not be persisted")
	}

	// Redis backs the session snapshot cache. The engine runs without it.
	var redisClient *redis.Client
	var cache personalization.SnapshotCache
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis unreachable at startup (%s): %v", cfg.Redis.Addr, err)
		} else {
			log.Printf("Connected to Redis at %s", cfg.Redis.Addr)
		}
		pingCancel()
		cache = sessioncache.New(redisClient, cfg.Redis.SessionTTL())
	} else {
		log.Println("No Redis configured; sessions will not survive restarts")
	}

	// Insights outbox drains adaptation records into Postgres.
	var sink personalization.AdaptationSink
	var outbox *insights.Outbox
	var insightsStore *insights.Store
	if cfg.Insights.Enabled && db != nil {
		insightsStore = insights.NewStore(db)
		outbox = insights.NewOutbox(insightsStore, cfg.Insights.QueueSize)
		outbox.Start(ctx)
		sink = outbox
		log.Printf("Insights outbox started (queue size %d)", cfg.Insights.QueueSize)
	} else {
		log.Println("Insights outbox disabled")
	}

	sessions := personalization.NewSessionManager(personalization.ManagerConfig{
		AdaptationThreshold: cfg.Personalization.AdaptationThreshold,
	}, sink, cache)

	handlers := api.NewHandlers(sessions, report.NewBuilder())
	handlers.SetConfig(cfg)
	if insightsStore != nil {
		handlers.SetInsightsStore(insightsStore)
	}
	if outbox != nil {
		handlers.SetOutbox(outbox)
	}

	// Optional S3 report archiver.
	if cfg.Reports.S3Enabled && cfg.Reports.S3Bucket != "" {
		archiver, err := report.NewArchiver(ctx, cfg.Reports.S3Bucket, cfg.Reports.S3Region, cfg.Reports.AWSProfile)
		if err != nil {
			log.Printf("Warning: failed to initialize report archiver: %v", err)
		} else {
			handlers.SetArchiver(archiver)
			log.Printf("Report archiver enabled (bucket %s)", cfg.Reports.S3Bucket)
		}
	}

	healthChecker := api.NewHealthChecker(db, redisClient, sessions)
	router := api.SetupRoutes(handlers, healthChecker)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: router,
	}

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("All services initialized — server is ready")

	<-done
	log.Println("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	// Drain queued insight records before releasing the database.
	if outbox != nil {
		outbox.Stop()
	}
	if db != nil {
		db.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}

	log.Println("Server stopped")
}
