// cmd/web/main.go
//
// Front door – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load configuration (defaults → .env → conf/global.yaml → legacy
//     names → FRONTDOOR_ env, Vault references resolved).
//
//  2. Start the logger (daily file plus console tee in a TTY, or JSON on
//     stdout when no log dir is set).
//
//  3. Install the tracer provider.
//
//  4. Build the application graph: record store, tenant cache, resolver,
//     content fetcher, theme, and router.
//
//  5. Serve until SIGINT or SIGTERM, then drain and flush spans.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/yanizio/frontdoor/internal/app"
	"github.com/yanizio/frontdoor/internal/config"
	"github.com/yanizio/frontdoor/internal/logger"
	"github.com/yanizio/frontdoor/internal/server"
	"github.com/yanizio/frontdoor/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Configuration ───────────────────────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	//
	// ── 2.  Logger ──────────────────────────────────────────────────────
	//
	logOut, err := logger.New(logger.Options{
		Dir:   cfg.Log.Dir,
		Level: cfg.Log.Level,
		Tee:   logger.IsTTY(),
	})
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	//
	// ── 3.  Tracing ─────────────────────────────────────────────────────
	//
	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Stdout, logOut.Named("telemetry"))
	if err != nil {
		logOut.Fatalw("start telemetry", "err", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logOut.Warnw("flush spans", "err", err)
		}
	}()

	//
	// ── 4.  Application graph ───────────────────────────────────────────
	//
	a, err := app.New(ctx, cfg, logOut)
	if err != nil {
		logOut.Fatalw("build app", "err", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logOut.Warnw("close app", "err", err)
		}
	}()

	//
	// ── 5.  Serve ───────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, a.Handler, server.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
		Idle:  cfg.HTTP.IdleTimeout,
	})
	if err := server.Run(ctx, srv, logOut); err != nil {
		logOut.Errorw("http server", "err", err)
		return
	}
	logOut.Infow("bye")
}
