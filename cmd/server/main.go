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

	"github.com/JonMunkholm/pubsheet/internal/audit"
	"github.com/JonMunkholm/pubsheet/internal/config"
	"github.com/JonMunkholm/pubsheet/internal/logging"
	"github.com/JonMunkholm/pubsheet/internal/source"
	"github.com/JonMunkholm/pubsheet/internal/tools"
	"github.com/JonMunkholm/pubsheet/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher := source.NewFetcher(source.Options{
		BaseURL:      cfg.Fetch.BaseURL,
		Timeout:      cfg.Fetch.Timeout,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		UserAgent:    cfg.Fetch.UserAgent,
	})
	limiter := tools.NewCallLimiter(cfg.Tools.MaxConcurrent, cfg.Tools.MaxWait)

	opts := []tools.Option{tools.WithLimiter(limiter)}
	var webOpts []web.Option

	if cfg.Audit.Enabled() {
		pool, err := openAuditPool(ctx, cfg.Audit)
		if err != nil {
			return err
		}
		defer pool.Close()

		recorder := audit.NewPGRecorder(pool)
		if err := recorder.EnsureSchema(ctx); err != nil {
			return err
		}
		opts = append(opts, tools.WithRecorder(recorder))
		webOpts = append(webOpts, web.WithCallLister(recorder))
	} else {
		slog.Info("call audit disabled, set AUDIT_DATABASE_URL to enable")
	}

	service := tools.NewService(fetcher, opts...)
	server := web.NewServer(service, cfg, webOpts...)

	slog.Info("tools registered", "tools", tools.Names())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let in-flight calls finish before the listener closes.
		if st := limiter.Status(); st.Active > 0 {
			slog.Info("waiting for tool calls to complete", "active", st.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("tool calls did not complete in time", "error", err)
			}
		}

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}

// openAuditPool connects to the audit database with the configured pool
// limits and verifies the connection.
func openAuditPool(ctx context.Context, cfg config.AuditConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to audit database", "name", strings.TrimPrefix(u.Path, "/"))
	}
	return pool, nil
}
