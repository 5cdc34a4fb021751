package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/Ashu27-arc/cricket-backend/internal/cache"
	"github.com/Ashu27-arc/cricket-backend/internal/live"
	"github.com/Ashu27-arc/cricket-backend/internal/match"
	"github.com/Ashu27-arc/cricket-backend/internal/metrics"
	"github.com/Ashu27-arc/cricket-backend/internal/store"
)

type config struct {
	Port        string        `env:"PORT" envDefault:"8080"`
	DatabaseURL string        `env:"DATABASE_URL"`
	RedisURL    string        `env:"REDIS_URL"`
	CacheTTL    time.Duration `env:"CACHE_TTL" envDefault:"1h"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		slog.Error("config parse failed", "err", err)
		os.Exit(1)
	}

	// --- Durable store ---
	var st store.Store
	var cleanup []func()

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		st = store.NewPostgresStore(pool)
		slog.Info("connected to PostgreSQL")
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory store (data will not persist)")
		st = store.NewMemoryStore()
	}

	// --- State mirror (optional; absence degrades to store-only) ---
	var mirror cache.Mirror = cache.NopMirror{}
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "err", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opt)
		cleanup = append(cleanup, func() { rdb.Close() })

		rm := cache.NewRedisMirror(rdb, cfg.CacheTTL)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rm.Ping(ctx); err != nil {
			slog.Warn("Redis unreachable, running store-only", "err", err)
		} else {
			mirror = rm
			slog.Info("Redis mirror enabled", "ttl", cfg.CacheTTL)
		}
		cancel()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Broadcast hub ---
	hub := live.NewHub()

	// --- Scoring service ---
	svc := match.NewService(st, mirror, hub, clockwork.NewRealClock())

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"cricket-backend"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint for live updates.
	r.Get("/ws", hub.HandleWS)

	r.Route("/api/matches", func(r chi.Router) {
		// Live scoring flow, keyed by public 4-digit match ID.
		r.Post("/start", svc.StartMatch)
		r.Get("/live", svc.ListLive)
		r.Get("/{matchID}", svc.GetMatch)
		r.Post("/{matchID}/commentary", svc.AddCommentary)
		r.Put("/{matchID}/status", svc.UpdateStatus)

		// Legacy record flow, keyed by storage-internal ID.
		r.Post("/", svc.CreateRecord)
		r.Get("/", svc.ListRecords)
		r.Get("/records/{id}", svc.GetRecord)
		r.Put("/records/{id}", svc.UpdateRecord)
		r.Delete("/records/{id}", svc.DeleteRecord)
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("cricket-backend listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down cricket-backend...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("cricket-backend stopped")
}
