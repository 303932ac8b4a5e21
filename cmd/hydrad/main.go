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

	"github.com/hydranet/hydranet/pkg/api"
	"github.com/hydranet/hydranet/pkg/config"
	"github.com/hydranet/hydranet/pkg/dataset"
	"github.com/hydranet/hydranet/pkg/events"
	"github.com/hydranet/hydranet/pkg/log"
	"github.com/hydranet/hydranet/pkg/metrics"
	"github.com/hydranet/hydranet/pkg/permission"
	"github.com/hydranet/hydranet/pkg/query"
	"github.com/hydranet/hydranet/pkg/scenario"
	"github.com/hydranet/hydranet/pkg/storage"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hydrad",
	Short: "Hydranet - scenario engine for water-resource network models",
	Long: `Hydranet persists networks of nodes, links and resource groups whose
attribute data evolves over named scenarios, backed by a content-addressed
dataset store that deduplicates identical values across scenarios.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Hydranet version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	serveCmd.Flags().String("config", "", "Path to YAML config file")
	serveCmd.Flags().String("data-dir", "", "Data directory (overrides config)")
	serveCmd.Flags().String("listen-addr", "", "API listen address (overrides config)")
	serveCmd.Flags().String("metrics-addr", "", "Metrics listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scenario engine server",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
			cfg.DataDir = v
		}
		if v, _ := cmd.Flags().GetString("listen-addr"); v != "" {
			cfg.ListenAddr = v
		}
		if v, _ := cmd.Flags().GetString("metrics-addr"); v != "" {
			cfg.MetricsAddr = v
		}

		log.Init(log.Config{
			Level:      log.Level(cfg.LogLevel),
			JSONOutput: cfg.LogJSON,
		})
		logger := log.WithComponent("main")

		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return fmt.Errorf("failed to create data dir: %w", err)
		}
		store, err := storage.NewBoltStore(cfg.DataDir)
		if err != nil {
			return err
		}
		defer store.Close()

		broker := events.NewBroker()
		broker.Start()
		defer broker.Stop()

		guard := permission.NewGuard()
		data := dataset.NewStore(cfg.CompressionThreshold, guard)
		engine := scenario.NewEngine(store, data, guard, broker)
		queries := query.NewService(store, guard)

		metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metrics.Handler()}
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server listening")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()

		server := api.NewServer(cfg.ListenAddr, engine, queries, data, store)
		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			logger.Info().Str("signal", sig.String()).Msg("shutting down")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Stop(ctx); err != nil {
			return err
		}
		return metricsSrv.Shutdown(ctx)
	},
}
