// jobtracker-tracker-service
//
// Kanban board for job applications.
// Exposes a REST API (and the same board over gRPC) used by the Gateway to:
//   - moveCard(applicationId, status, orderIndex, stages): drag-and-drop
//   - create / edit / delete applications
//   - list the board, or one column of it
//
// Publishes EVENT_CARD_MOVED and friends to Redis for the Gateway SSE
// forward, and compacts column order indexes on a cron schedule.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"jobtracker/tracker-service/internal/config"
	"jobtracker/tracker-service/internal/db"
	"jobtracker/tracker-service/internal/events"
	"jobtracker/tracker-service/internal/grpcserver"
	"jobtracker/tracker-service/internal/kanban"
	"jobtracker/tracker-service/internal/logger"
	"jobtracker/tracker-service/internal/observability"
	"jobtracker/tracker-service/internal/scheduler"
	"jobtracker/tracker-service/internal/store/postgres"
)

const (
	serviceName = "tracker-service"
	version     = "1.1.0"
)

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[tracker-service] Config error: %v", err)
	}

	logr := logger.New(cfg.LogLevel)
	slog.SetDefault(logr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Metrics ─────────────────────────────────────────────────────────────
	metricsHandler, shutdownMetrics, err := observability.InitMetrics(serviceName, version)
	if err != nil {
		log.Fatalf("[tracker-service] Metrics: %v", err)
	}
	defer shutdownMetrics(context.Background())

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[tracker-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		log.Fatalf("[tracker-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("[tracker-service] PostgreSQL connected ✓")

	if cfg.RunMigrations {
		if err := postgres.Migrate(pool); err != nil {
			log.Fatalf("[tracker-service] Migrations: %v", err)
		}
		log.Println("[tracker-service] Migrations applied ✓")
	}

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[tracker-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[tracker-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[tracker-service] Redis connected ✓")

	svc := kanban.NewService(postgres.New(pool), events.NewRedisPublisher(rdb))

	// ── Compaction ───────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.CompactionSchedule != config.CompactionOff {
		sched = scheduler.New(svc, cfg.CompactionSchedule, logr)
		if err := sched.Start(ctx); err != nil {
			log.Fatalf("[tracker-service] Scheduler: %v", err)
		}
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", metricsHandler)
	kanban.NewHandler(svc).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      logger.Middleware(logr)(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[tracker-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[tracker-service] HTTP server error: %v", err)
		}
	}()

	// ── gRPC server ──────────────────────────────────────────────────────────
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.Fatalf("[tracker-service] gRPC listen: %v", err)
	}
	gs := grpc.NewServer(grpc.UnaryInterceptor(grpcserver.LoggingInterceptor(logr)))
	grpcserver.Register(gs, grpcserver.NewServer(svc))

	go func() {
		log.Printf("[tracker-service] gRPC listening on :%s", cfg.GRPCPort)
		if err := gs.Serve(lis); err != nil {
			log.Fatalf("[tracker-service] gRPC server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[tracker-service] Shutting down…")
	cancel()
	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[tracker-service] Shutdown error: %v", err)
	}
	gs.GracefulStop()
	log.Println("[tracker-service] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": serviceName,
		"version": version,
	})
}
