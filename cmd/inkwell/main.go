package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"inkwell/internal/config"
	"inkwell/internal/server"
	"inkwell/internal/store"
	"inkwell/internal/upload"
	"inkwell/internal/worker"
)

var logger *zap.Logger

var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "inkwell - a self-hosted article manager with a rich-text editing API",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API, import worker and store maintenance",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			logger.Fatal("bad configuration", zap.Error(err))
		}
		if cfg.LogMode == "prod" {
			prod, err := zap.NewProduction()
			if err == nil {
				logger = prod
			}
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		adapter := store.NewAdapter(store.Config{
			RedisAddr:  cfg.RedisAddr,
			BadgerPath: cfg.DataDir,
		}, logger)
		defer adapter.Close()

		// Connect eagerly so a dead store endpoint fails the boot instead
		// of the first request. Handlers still go through the adapter and
		// pick up a fresh handle if this one is ever closed.
		st, err := adapter.Connect(ctx)
		if err != nil {
			logger.Fatal("failed to init store", zap.Error(err))
		}
		if hybrid, ok := st.(*store.Hybrid); ok {
			go hybrid.StartGC(ctx, 5*time.Minute, logger)
		}

		policy := upload.Policy{MaxBytes: cfg.UploadMaxBytes}
		var gw upload.Gateway
		var uploadsDir string
		switch cfg.UploadBackend {
		case config.BackendAssetHost:
			gw = upload.NewAssetHostGateway(cfg.AssetHostURL, cfg.AssetHostKey, policy)
		default:
			disk, err := upload.NewDiskGateway(cfg.UploadDir, "/uploads", policy)
			if err != nil {
				logger.Fatal("failed to init uploads dir", zap.Error(err))
			}
			gw = disk
			uploadsDir = disk.Dir()
		}

		w := worker.New(st, logger)
		go w.Start(ctx)

		srv := server.New(adapter, gw, uploadsDir, logger)
		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start(cfg.ListenAddr)
		}()

		select {
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				logger.Fatal("http server failed", zap.Error(err))
			}
		case <-ctx.Done():
			logger.Info("shutting down")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				logger.Error("shutdown error", zap.Error(err))
			}
		}

		logger.Info("goodbye")
	},
}

var importCmd = &cobra.Command{
	Use:   "import [url]",
	Short: "Queue a web page for import as a new article",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		url := args[0]

		cfg, err := config.Load()
		if err != nil {
			logger.Fatal("bad configuration", zap.Error(err))
		}

		// Redis-only client mode: no Badger path, so the running server's
		// file lock is left alone.
		adapter := store.NewAdapter(store.Config{RedisAddr: cfg.RedisAddr}, logger)
		defer adapter.Close()

		ctx := context.Background()
		st, err := adapter.Connect(ctx)
		if err != nil {
			logger.Fatal("failed to init store", zap.Error(err))
		}
		if err := st.EnqueueImport(ctx, url); err != nil {
			logger.Fatal("failed to queue import", zap.Error(err))
		}

		logger.Info("import queued", zap.String("url", url))
	},
}

func main() {
	var err error
	logger, err = zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
