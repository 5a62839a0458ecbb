// cmd/seed/main.go
//
// Seed CLI – writes a demo tenant into the configured record store.
//
// Usage
// -----
//
//	seed                      # embedded 1dun fixture, store from conf/global.yaml
//	seed --fixture acme.yaml  # custom fixture
//	seed --root /srv/frontdoor --timeout 1m
//
// Credentials come from the same configuration layers as the web server
// (FRONTDOOR_STORE__… or the plain PB_URL, PB_ADMIN_EMAIL, and
// PB_ADMIN_PASSWORD names).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanizio/frontdoor/internal/backend"
	"github.com/yanizio/frontdoor/internal/config"
	"github.com/yanizio/frontdoor/internal/logger"
	"github.com/yanizio/frontdoor/internal/seed"
)

var (
	fixturePath string
	rootPath    string
	timeout     time.Duration
)

var seedCmd = &cobra.Command{
	Use:          "seed",
	Short:        "Upsert a demo tenant into the record store",
	SilenceUsage: true,
	RunE:         runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&fixturePath, "fixture", "", "path to a YAML fixture (default: embedded 1dun)")
	seedCmd.Flags().StringVar(&rootPath, "root", "", "project root holding conf/ (default: FRONTDOOR_ROOT or discovered)")
	seedCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline for the run")
}

func main() {
	if err := seedCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSeed(cmd *cobra.Command, _ []string) error {
	var (
		cfg *config.Config
		err error
	)
	if rootPath != "" {
		cfg, err = config.LoadFrom(rootPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Options{Level: cfg.Log.Level})
	if err != nil {
		return fmt.Errorf("start logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	var f *seed.Fixture
	if fixturePath != "" {
		f, err = seed.LoadFile(fixturePath)
	} else {
		f, err = seed.Default()
	}
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	b, err := backend.Open(ctx, cfg.Store, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer b.Close()

	res, err := seed.New(b.Writer, log.Named("seed")).Run(ctx, f)
	if err != nil {
		log.Errorw("seed failed", "err", err)
		return err
	}
	log.Infow("seed done",
		"driver", b.Driver,
		"site_id", res.SiteID,
		"domains", len(res.DomainIDs),
		"item_id", res.ItemID,
	)
	return nil
}
