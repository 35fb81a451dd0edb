package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/franz/ta2music/internal/fetch"
	"github.com/franz/ta2music/internal/ledger"
	"github.com/franz/ta2music/internal/pipeline"
	"github.com/franz/ta2music/internal/tubearchivist"
	"github.com/franz/ta2music/internal/util"
	"github.com/franz/ta2music/internal/watch"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newLogger builds the shared logger from the verbosity flags
func newLogger() *util.Logger {
	logger := util.NewLogger(os.Stderr, util.LevelInfo)
	if viper.GetBool("verbose") {
		logger.SetLevel(util.LevelDebug)
	}
	if viper.GetBool("quiet") {
		logger.SetLevel(util.LevelError)
	}
	return logger
}

func runDaemon(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	inputDir := viper.GetString("input_dir")
	outputDir := viper.GetString("output_dir")
	dbPath := viper.GetString("db")
	apiURL := viper.GetString("api_url")
	apiToken := viper.GetString("api_token")

	logger.Infof("Starting ta2music")
	logger.Infof("Input directory: %s", inputDir)
	logger.Infof("Output directory: %s", outputDir)

	// The music directory is a mounted volume owned by Navidrome; if it is
	// missing the deployment is broken and starting up would only hide that.
	info, err := os.Stat(outputDir)
	if err != nil {
		return fmt.Errorf("music directory not found: %s (check the volume mount): %w", outputDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("music directory is not a directory: %s", outputDir)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	// Single-instance guard: two daemons sharing the ledger would break
	// the single-writer discipline of the SQLite store.
	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another ta2music instance is already running (lock: %s)", dbPath+".lock")
	}
	defer lock.Unlock()

	led, err := ledger.Open(dbPath, logger)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer led.Close()

	if count, err := led.Count(); err == nil {
		logger.Infof("MP3s already downloaded: %d", count)
	}

	var gate pipeline.Gate
	if apiURL != "" && apiToken != "" {
		gate = tubearchivist.NewClient(apiURL, apiToken, logger)
		logger.Infof("TubeArchivist API enabled: %s", apiURL)
	} else {
		logger.Warnf("TubeArchivist API not configured (api-url and api-token required)")
		logger.Warnf("MUSIC playlist checks are disabled; every new video will be skipped")
	}

	fetcher := fetch.New(&fetch.Config{
		OutputDir: outputDir,
		Logger:    logger,
	})

	processor := pipeline.New(&pipeline.Config{
		Ledger:  led,
		Gate:    gate,
		Fetcher: fetcher,
		Logger:  logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := watch.New(&watch.Config{
		Root:   inputDir,
		Logger: logger,
		Handler: func(ctx context.Context, path string) {
			processor.Process(ctx, path)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	logger.Infof("Watching for new videos under %s", inputDir)

	<-ctx.Done()

	logger.Infof("Shutting down...")
	watcher.Stop()
	logger.Infof("Stopped")

	return nil
}
