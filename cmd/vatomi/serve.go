package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/common-repository/vatomi/internal/cache"
	"github.com/common-repository/vatomi/internal/config"
	httpapi "github.com/common-repository/vatomi/internal/http"
	"github.com/common-repository/vatomi/internal/http/session"
	"github.com/common-repository/vatomi/internal/marketplace"
	logctx "github.com/common-repository/vatomi/internal/pkg/log"
	"github.com/common-repository/vatomi/internal/service"
	"github.com/common-repository/vatomi/internal/storage/mongo"
	"github.com/common-repository/vatomi/internal/storage/postgres"
)

const (
	auditBackendMongo = "mongo"

	shutdownTimeout = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func runServer(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting application", "env", cfg.Env, "version", Version)

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	// Подключение к БД c таймаутом.
	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	str, err := postgres.New(dbCtx, cfg.DB.DatabaseURL)
	dbCancel()
	if err != nil {
		log.Error("postgres_connect_failed", slog.String("err", err.Error()))
		return err
	}
	defer str.Close()
	log.Info("postgres_connected")

	tr, err := cache.NewRedisCache(cfg.Redis.RedisURL, cfg.Redis.Prefix)
	if err != nil {
		log.Error("redis_connect_failed", slog.String("err", err.Error()))
		return err
	}
	defer func() { _ = tr.Close() }()
	log.Info("redis_connected")

	market := marketplace.New(marketplace.Options{
		BaseURL:      cfg.Marketplace.BaseURL,
		Timeout:      cfg.Marketplace.Timeout,
		Cache:        tr,
		ItemCacheTTL: cfg.Marketplace.ItemCacheTTL,
		Metrics:      marketplace.NewMetrics(prometheus.DefaultRegisterer),
	})

	srvc := service.New(str, tr, market, service.Options{
		Defaults:      cfg.Settings.Typed(),
		DiscoveryTTL:  cfg.Marketplace.DiscoveryTTL,
		SyncInterval:  cfg.Marketplace.SyncInterval,
		PruneInterval: cfg.Marketplace.PruneInterval,
	})

	// Журнал в MongoDB — по настройке; по умолчанию остаётся в postgres.
	if cfg.Audit.Backend == auditBackendMongo {
		mgCtx, mgCancel := context.WithTimeout(rootCtx, 10*time.Second)
		mg, err := mongo.New(mgCtx, cfg.Audit.MongoURL)
		mgCancel()
		if err != nil {
			log.Error("mongo_connect_failed", slog.String("err", err.Error()))
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mg.Close(ctx)
		}()

		srvc.SetAuditSink(mg)
		log.Info("mongo_connected")
	}
	log.Info("service_initialized")

	sm := session.New(cfg.Session.Secret, cfg.Session.MaxAge, cfg.Session.Secure)

	api := httpapi.NewRouter(srvc, sm, httpapi.Options{
		Logger:         log,
		Timeout:        cfg.Timeouts.Service,
		CallbackURL:    cfg.HTTP.CallbackURL(),
		RateLimitRPM:   cfg.RateLimit.RequestsPerMinute,
		RateLimitBurst: cfg.RateLimit.Burst,
	})

	var ready int32 // 0 — not ready; 1 — ready

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&ready) != 1 {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := str.Ping(ctx); err != nil {
			http.Error(w, "postgres unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := tr.Ping(ctx); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", api)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Фоновая очистка журнала по сроку хранения из настроек.
	startAuditJanitor(rootCtx, srvc, log, cfg.Marketplace.PruneInterval)

	serveErrCh := make(chan error, 1)
	go func() {
		log.Info("http_listen_start", slog.String("addr", httpAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)

	// Ожидание сигнала завершения или фатальной ошибки сервера.
	var serveErr error
	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case serveErr = <-serveErrCh:
		if serveErr != nil {
			log.Error("http_serve_failed", slog.String("err", serveErr.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	// Graceful stop с таймаутом.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_force_stop", slog.String("err", err.Error()))
		_ = httpSrv.Close()
	}

	log.Info("service_stopped")

	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	return nil
}

// startAuditJanitor запускает фоновую задачу, которая периодически
// удаляет старые записи журнала через MaybePruneAudit.
func startAuditJanitor(ctx context.Context, svc *service.Service, log *slog.Logger, period time.Duration) {
	if period <= 0 {
		return
	}

	ctx = logctx.Into(ctx, log.With(slog.String("component", "audit_janitor")))

	go func() {
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if _, err := svc.MaybePruneAudit(ctx); err != nil {
					log.Error("audit_janitor_failed", slog.String("err", err.Error()))
				}
			}
		}
	}()
}
