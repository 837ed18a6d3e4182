package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/ogier/pflag"

	"github.com/JonMunkholm/tabwork/internal/audit"
	"github.com/JonMunkholm/tabwork/internal/config"
	"github.com/JonMunkholm/tabwork/internal/core"
	"github.com/JonMunkholm/tabwork/internal/logging"
	"github.com/JonMunkholm/tabwork/internal/web"
)

var (
	optConfig = pflag.StringP("config", "c", "", "Path to a TOML config file")
	optSeed   = pflag.StringP("seed", "s", "", "Directory of .csv/.tsv files to load at startup")
	optAddr   = pflag.StringP("addr", "a", "", "Listen address, overrides SERVER_HOST and SERVER_PORT")
)

func main() {
	pflag.Parse()

	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load(*optConfig)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *optSeed != "" {
		cfg.Workspace.SeedDir = *optSeed
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"history_capacity", cfg.Workspace.HistoryCapacity,
		"max_concurrent_imports", cfg.Workspace.MaxConcurrentImports,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"audit_store", auditStoreName(cfg),
	)

	ctx := context.Background()
	log, closeLog, err := openAuditLog(ctx, cfg)
	if err != nil {
		slog.Error("failed to open audit log", "error", err)
		os.Exit(1)
	}
	defer closeLog()

	ws := core.NewWorkspace(
		core.WithHistoryCapacity(cfg.Workspace.HistoryCapacity),
		core.WithAudit(log),
	)

	imports := core.NewImportLimiter(cfg.Workspace.MaxConcurrentImports, cfg.Workspace.ImportWait)

	if cfg.Workspace.SeedDir != "" {
		n, err := loadSeedDir(ctx, ws, cfg.Workspace.SeedDir, cfg.Workspace)
		if err != nil {
			slog.Error("failed to load seed directory",
				"dir", cfg.Workspace.SeedDir,
				"error", err,
				"message", core.FormatUserError(err),
			)
			os.Exit(1)
		}
		slog.Info("seed tables loaded", "dir", cfg.Workspace.SeedDir, "count", n)
	}

	server := web.NewServer(ws, log, imports, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(ctx)
	go audit.StartRetentionScheduler(jobCtx, log, audit.RetentionConfig{
		Retention:     cfg.Audit.Retention,
		CheckInterval: cfg.Audit.CheckInterval,
	})

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if st := imports.Status(); st.Active > 0 {
			slog.Info("waiting for imports to complete", "active", st.Active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	addr := cfg.Server.Addr()
	if *optAddr != "" {
		addr = *optAddr
	}
	if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}

// openAuditLog connects the PostgreSQL audit store when a database is
// configured and falls back to a bounded in-memory log otherwise.
func openAuditLog(ctx context.Context, cfg *config.Config) (audit.Log, func(), error) {
	if !cfg.Database.UsesDatabase() {
		return audit.NewMemoryLog(cfg.Audit.MemoryCapacity), func() {}, nil
	}

	// Parse and configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	log := audit.NewPostgresLog(pool)
	if err := log.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return log, pool.Close, nil
}

func auditStoreName(cfg *config.Config) string {
	if cfg.Database.UsesDatabase() {
		return "postgres"
	}
	return "memory"
}
