package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	bondhandler "fidelis/internal/bond/handler"
	bondmetrics "fidelis/internal/bond/metrics"
	bondservice "fidelis/internal/bond/service"
	bondstore "fidelis/internal/bond/store"

	"fidelis/internal/activity"
	"fidelis/internal/bulkimport"
	"fidelis/internal/document"
	docmetrics "fidelis/internal/document/metrics"
	"fidelis/internal/document/objectstore"
	"fidelis/internal/history"
	"fidelis/internal/platform/config"
	"fidelis/internal/platform/httpserver"
	"fidelis/internal/platform/logger"
	"fidelis/internal/platform/metrics"
	"fidelis/internal/platform/middleware"
	platformredis "fidelis/internal/platform/redis"
	"fidelis/internal/reference"
	"fidelis/internal/session"
	"fidelis/pkg/domain"
	"fidelis/pkg/platform/retry"
	"fidelis/pkg/platform/tx"
)

// main wires the dependency graph and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	var sessions session.Store
	if redisClient != nil {
		defer redisClient.Close()
		sessions = session.NewRedisStore(redisClient.Client)
	} else {
		log.Warn("redis not configured, sessions held in memory")
		sessions = session.NewInMemoryStore()
	}
	provider := session.NewProvider(session.NewTokenValidator(cfg.JWTSigningKey), sessions)

	if cfg.DevActor != "" {
		if err := bootstrapDevSession(ctx, cfg, sessions, log); err != nil {
			return fmt.Errorf("bootstrap dev session: %w", err)
		}
	}

	runner := retry.New(provider,
		retry.WithMaxAttempts(cfg.RetryMaxAttempts),
		retry.WithBaseDelay(cfg.RetryBaseDelay),
		retry.WithJitter(),
		retry.WithLogger(log),
	)

	objects, err := objectstore.NewFSStore(cfg.StorageDir, cfg.PublicBaseURL)
	if err != nil {
		return fmt.Errorf("open object store: %w", err)
	}

	documents := document.NewManager(
		document.NewPostgresMetadataStore(db), objects,
		document.WithRunner(runner),
		document.WithLogger(log),
		document.WithMetrics(docmetrics.New()),
	)

	bMetrics := bondmetrics.New()
	bonds := bondservice.New(
		bondstore.NewPostgresStore(db),
		history.NewRecorder(history.NewPostgresStore(db), log),
		documents,
		bondservice.WithRunner(runner),
		bondservice.WithTxRunner(tx.NewSQLRunner(db)),
		bondservice.WithLogger(log),
		bondservice.WithMetrics(bMetrics),
	)

	importer := bulkimport.NewImporter(bonds,
		bulkimport.WithLogger(log),
		bulkimport.WithMetrics(bMetrics),
		bulkimport.WithMaxRows(cfg.ImportMaxRows),
	)

	inbox := make(chan activity.Entry, 256)
	go activity.NewWorker(activity.NewPostgresStore(db), inbox, log).Run(ctx)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RequestTime,
		middleware.Logger(log),
		middleware.Instrument(metrics.New()),
		middleware.Recovery(log),
		middleware.Timeout(60*time.Second),
	)

	router.Get("/healthz", healthz(db, redisClient))
	router.Handle("/metrics", promhttp.Handler())
	router.Handle("/files/*", http.StripPrefix("/files/",
		http.FileServer(http.Dir(cfg.StorageDir))))

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(provider, log))
		bondhandler.New(bonds, documents, importer,
			activity.NewRecorder(inbox, log), log).Register(r)
		reference.NewHandler(reference.NewPostgresStore(db)).Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting fidelis", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func healthz(db *sql.DB, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// bootstrapDevSession registers a live session and logs its bearer token.
// Tokens are normally issued by the external auth provider; this shortcut
// exists so local development doesn't need one running.
func bootstrapDevSession(ctx context.Context, cfg config.Config, sessions session.Store, log *slog.Logger) error {
	id := domain.SessionID(uuid.New())
	if err := sessions.Put(ctx, id, cfg.DevActor, cfg.SessionTTL); err != nil {
		return err
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, session.Claims{
		SessionID: id.String(),
		Actor:     cfg.DevActor,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.SessionTTL)),
		},
	}).SignedString([]byte(cfg.JWTSigningKey))
	if err != nil {
		return err
	}
	log.Info("development session ready", "actor", cfg.DevActor, "token", token)
	return nil
}
