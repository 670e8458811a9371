package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sesflow/accesscore/pkg/accesscontrol"
	"github.com/sesflow/accesscore/pkg/config"
	"github.com/sesflow/accesscore/pkg/observability"
	"github.com/sesflow/accesscore/pkg/partners"
	"github.com/sesflow/accesscore/pkg/permcache"
	"github.com/sesflow/accesscore/pkg/rbac"
	"github.com/sesflow/accesscore/pkg/visibility"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, os.Stdout)

	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		logger.WithError(err).Error("failed to open database")
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if err := runMigrations(ctx, db); err != nil {
		logger.WithError(err).Error("migrations failed")
		os.Exit(1)
	}

	rbacStore := rbac.NewStore(db)
	if err := rbacStore.SeedBuiltInRoles(ctx); err != nil {
		logger.WithError(err).Error("failed to seed built-in roles")
		os.Exit(1)
	}

	cache, err := buildCache(cfg.Cache)
	if err != nil {
		logger.WithError(err).Error("failed to initialize permission cache")
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	resolver := rbac.NewPermissionResolver(rbacStore, cache, logger, metrics)

	partnerStore := partners.NewStore(db)
	visStore := visibility.NewStore(db)
	catalog := visibility.NewEngineerCatalog(db)
	visResolver := visibility.NewResolver(partnerStore, visStore, visStore, visStore, catalog, logger, metrics)

	facade := accesscontrol.NewFacade(resolver, rbacStore, partnerStore, visStore, visResolver, logger)

	router := mux.NewRouter()
	router.Use(accesscontrol.RequestIDMiddleware)
	router.Handle("/metrics", observability.Handler(registry)).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	accesscontrol.NewHandlers(facade).RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("starting accessd")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("server failed")
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
	logger.Info("accessd stopped")
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	if err := rbac.RunMigrations(ctx, db); err != nil {
		return err
	}
	if err := partners.RunMigrations(ctx, db); err != nil {
		return err
	}
	return visibility.RunMigrations(ctx, db)
}

func buildCache(cfg config.CacheConfig) (permcache.Cache, error) {
	if cfg.Backend == config.CacheBackendRedis {
		return permcache.NewRedisCache(cfg.RedisURL, cfg.TTL)
	}
	return permcache.NewMemoryCache(cfg.MaxEntries, cfg.TTL), nil
}
