package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"call-logd/internal/auth"
	"call-logd/internal/callog"
	"call-logd/internal/cel"
	"call-logd/internal/config"
	"call-logd/internal/directory"
	"call-logd/internal/generator"
	"call-logd/internal/interpret"
	"call-logd/internal/metrics"
	"call-logd/internal/reporting"
	"call-logd/internal/runs"
	"call-logd/pkg/logger"
	"call-logd/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const generationLockKey = "call_logd:generation"

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	tenantStore := auth.NewDefaultTenantStore(cfg.Generation.DefaultTenantUUID)
	go auth.WatchDefaultTenant(rootCtx, rdb, tenantStore, log)

	// The daemon authenticates its own directory calls with a short-lived
	// service token it mints itself.
	dird := directory.NewHTTPClient(cfg.Directory.BaseURL, func() string {
		tok, err := authManager.Issue(time.Now(), tenantStore.Get(), "internal", 5*time.Minute)
		if err != nil {
			log.Warn("directory token issue failed", "err", err)
			return ""
		}
		return tok
	}, cfg.Directory.Timeout)

	m := metrics.New()

	filter := callog.NewExtenFilter(cfg.Generation.HiddenExtens...)
	gen := generator.New(interpret.Default(log), dird, tenantStore.Get, filter, m, log)

	lock, err := utils.NewSlotLock(rdb, generationLockKey, 1, 5*time.Minute)
	if err != nil {
		log.Error("generation lock init failed", "err", err)
		os.Exit(1)
	}

	journal := runs.NewService(runs.NewPostgresRepo(db))
	runner := generator.NewRunner(
		cel.NewPostgresSource(db),
		callog.NewPostgresRepo(db),
		gen, lock, journal,
		cfg.Generation.BatchLimit, m, log,
	)
	go runner.Loop(rootCtx, cfg.Generation.Interval)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, registerDeps{
		auth:      authManager,
		db:        db,
		metrics:   m,
		runner:    runner,
		runs:      journal,
		reporting: reporting.NewService(callog.NewPostgresRepo(db)),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("callogd listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
