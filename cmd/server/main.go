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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tradepro/trading-engine/internal/auth"
	"github.com/tradepro/trading-engine/internal/config"
	"github.com/tradepro/trading-engine/internal/metrics"
	"github.com/tradepro/trading-engine/internal/store"
	"github.com/tradepro/trading-engine/internal/trade"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)

		pg := store.NewPostgresStore(pool)
		if err := pg.Init(context.Background()); err != nil {
			slog.Error("schema init failed", "err", err)
			os.Exit(1)
		}
		st = pg
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if cfg.RedisURL != "" {
			opt, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				slog.Error("invalid REDIS_URL", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, cfg.CacheTTL)
			slog.Info("Redis cache enabled", "ttl", cfg.CacheTTL)
		}
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory store (data will not persist)")
		st = store.NewMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Identity provider ---
	var provider *auth.Client
	if cfg.AuthURL != "" {
		provider = auth.NewClient(cfg.AuthURL)
		slog.Info("identity provider configured", "url", cfg.AuthURL)
	} else {
		slog.Warn("AUTH_URL not set, session endpoints disabled")
	}
	if cfg.AuthJWTSecret == "" {
		slog.Error("AUTH_JWT_SECRET is required to guard API routes")
		os.Exit(1)
	}

	// --- WebSocket hub ---
	wsHub := trade.NewWSHub()
	go wsHub.Run()

	// --- Trade service ---
	svc := trade.NewService(st, provider, wsHub)

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
		w.Write([]byte(`{"status":"ok","service":"trading-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Session endpoints (unauthenticated).
		r.Post("/auth/signin", svc.SignIn)
		r.Post("/auth/signup", svc.SignUp)
		r.Post("/auth/signout", svc.SignOut)

		// Everything below requires a valid provider token.
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.AuthJWTSecret))

			// WebSocket endpoint for real-time trade updates.
			r.Get("/ws", wsHub.HandleWS)

			// Market data.
			r.Get("/stocks", svc.ListQuotes)
			r.Get("/stocks/{symbol}", svc.GetQuote)
			r.Get("/stocks/{symbol}/chart", svc.GetChart)

			// Trade settlement.
			r.Post("/trade", svc.ExecuteTrade)

			// Portfolio and funds.
			r.Get("/portfolio", svc.GetPortfolio)
			r.Get("/funds", svc.GetFunds)
			r.Post("/funds/deposit", svc.Deposit)
			r.Post("/funds/withdraw", svc.Withdraw)

			// Transaction log.
			r.Get("/transactions", svc.ListTransactions)
			r.Delete("/transactions/{id}", svc.DeleteTransaction)

			// Payment methods.
			r.Get("/payment-methods", svc.ListPaymentMethods)
			r.Post("/payment-methods", svc.AddPaymentMethod)
			r.Delete("/payment-methods/{id}", svc.DeletePaymentMethod)
			r.Put("/payment-methods/{id}/default", svc.SetDefaultPaymentMethod)

			// Notifications.
			r.Get("/notifications", svc.ListNotifications)
			r.Post("/notifications/read-all", svc.MarkNotificationsRead)
			r.Delete("/notifications/{id}", svc.DeleteNotification)

			// Profile.
			r.Get("/profile", svc.GetProfile)
			r.Put("/profile", svc.UpdateProfile)
		})
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
		slog.Info("trading-engine listening", "port", cfg.Port)
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

	slog.Info("shutting down trading-engine...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("trading-engine stopped")
}
