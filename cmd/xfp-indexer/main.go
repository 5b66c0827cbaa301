package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/lightningnetwork/lnd/clock"
	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"

	"github.com/setavenger/xfp-indexer/internal/config"
	"github.com/setavenger/xfp-indexer/internal/database/backend"
	"github.com/setavenger/xfp-indexer/internal/indexer"
	"github.com/setavenger/xfp-indexer/internal/logging"
	"github.com/setavenger/xfp-indexer/internal/server"
	v2 "github.com/setavenger/xfp-indexer/internal/server/v2"
)

var (
	displayVersion bool
	Version        = "0.0.0"
)

func init() {
	flag.StringVar(
		&config.BaseDirectory,
		"datadir",
		envOr("DATA_DIR", config.DefaultBaseDirectory),
		"Set the base directory for the indexer. Default directory is ./data",
	)
	flag.BoolVar(
		&displayVersion,
		"version",
		false,
		"show version of xfp-indexer",
	)
	flag.Parse()

	if displayVersion {
		// we only need the version for this
		return
	}

	config.SetDirectories()

	err := os.MkdirAll(config.DBPath, 0750)
	if err != nil && !errors.Is(err, os.ErrExist) {
		logging.L.Fatal().Err(err).Msg("error creating db path")
	}

	logging.L.Info().Msgf("base directory %s", config.BaseDirectory)

	// load after loggers are instantiated
	config.LoadConfigs(path.Join(config.BaseDirectory, config.ConfigFileName))

	if config.LogsPath != "" {
		if err := logging.SetLogOutput(config.LogsPath, "xfp-indexer.log"); err != nil {
			logging.L.Warn().Err(err).Msg("Failed to initialize file logging")
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if displayVersion {
		fmt.Println("xfp-indexer version:", Version) // using fmt because loggers are not initialised
		os.Exit(0)
	}
	defer logging.Close()
	defer logging.L.Info().Msg("Program shut down")

	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		logging.L.Err(err).Msg("program failed")
		logging.Close()
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.L.Info().Msg("Program Started")

	store, err := backend.Open("")
	if err != nil {
		logging.L.Fatal().Err(err).Msg("failed opening db")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.L.Err(err).Msg("db close failed")
			return
		}
		logging.L.Debug().Msg("db closed successfully")
	}()

	state, err := store.LoadState(config.SyncStartHeight)
	if err != nil {
		logging.L.Fatal().Err(err).Msg("failed loading index")
	}

	worker := indexer.NewWorkerExecutor(indexer.DefaultProcessOptions())
	if err = worker.Start(ctx); err != nil {
		return err
	}
	defer worker.Stop()

	builder := indexer.NewBuilder(state, store, indexer.NewBlockSource(), worker, clock.NewDefaultClock())

	g, gctx := errgroup.WithContext(ctx)

	// serve reads while syncing
	g.Go(func() error {
		return server.RunServer(gctx, server.NewApiHandler(state))
	})

	// keep it optional for now
	if config.GRPCHost != "" {
		g.Go(func() error {
			return v2.RunGRPCServer(gctx, state)
		})
	}

	g.Go(func() error {
		if err := builder.IntegrityCheck(gctx); err != nil {
			// the sync loop retries chain errors on its own
			if errors.Is(err, indexer.ErrIntegrity) {
				return err
			}
			logging.L.Warn().Err(err).Msg("integrity check incomplete")
		}
		return builder.ContinuousSync(gctx)
	})

	err = g.Wait()
	if ctx.Err() != nil {
		logging.L.Info().Msg("Program interrupted")
		return nil
	}
	return err
}
