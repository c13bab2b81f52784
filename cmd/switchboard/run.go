package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/switchboard/pkg/cli"
	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/proxy"
	"mercator-hq/switchboard/pkg/server"
	"mercator-hq/switchboard/pkg/telemetry/logging"
	"mercator-hq/switchboard/pkg/telemetry/metrics"
	"mercator-hq/switchboard/pkg/telemetry/tracing"
	"mercator-hq/switchboard/pkg/usage"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	watch         bool
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Switchboard gateway",
	Long: `Start the Switchboard gateway with the specified configuration.

Every configured backend is registered, then the HTTP API is served until
SIGINT or SIGTERM. SIGHUP reloads backends and routing settings from the
configuration file; --watch does the same whenever the file changes.

Examples:
  # Start with default config
  switchboard run

  # Start with custom config
  switchboard run --config /etc/switchboard/config.yaml

  # Override listen address
  switchboard run --listen 0.0.0.0:8080

  # Validate config and build the gateway without serving
  switchboard run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVarP(&runFlags.watch, "watch", "w", false, "reload backends when the config file changes")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "build the gateway without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(loggingConfig(cfg.Telemetry.Logging))
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	defer logger.Close()
	logger.SetDefault()

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithServiceVersion(Version))
	if err != nil {
		return cli.NewConfigError("telemetry.tracing", err.Error())
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()

	var (
		recorder   *usage.Recorder
		usageStore usage.Store
	)
	if cfg.Usage.Enabled {
		recorder, err = usage.NewRecorderFromConfig(cfg.Usage)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to open usage ledger: %w", err))
		}
		usageStore = recorder.Store()
		defer usageStore.Close()
	}

	opts := proxy.OptionsFromConfig(cfg)
	opts.Metrics = collector
	opts.Tracer = tracer
	opts.Usage = recorder

	svc := proxy.NewService(opts)
	for _, b := range cfg.Backends {
		if err := svc.RegisterBackend(b); err != nil {
			return cli.WrapConfigError(fmt.Errorf("backend %q: %w", b.ID, err))
		}
	}
	if err := svc.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		if err := svc.Stop(context.Background()); err != nil {
			slog.Error("service stop failed", "error", err)
		}
	}()

	printBanner(cmd, cfg, svc)
	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Dry run complete")
		return nil
	}

	reload := func(next *config.Config) error {
		result, err := svc.ApplyConfig(next)
		if lvl, lerr := logging.ParseLevel(next.Telemetry.Logging.Level); lerr == nil && runFlags.logLevel == "" && !verbose {
			logger.SetLevel(lvl)
		}
		slog.Info("configuration applied",
			"added", result.Added,
			"updated", result.Updated,
			"removed", result.Removed,
			"unchanged", result.Unchanged,
		)
		return err
	}

	if runFlags.watch {
		watcher, err := config.NewWatcher(cfgFile, 0)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer watcher.Stop()
		go func() {
			if err := watcher.Watch(ctx, reload); err != nil {
				slog.Error("config watcher stopped", "error", err)
			}
		}()
	}

	hup, stopHup := cli.ReloadSignals()
	defer stopHup()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				next, err := config.LoadConfigWithEnvOverrides(cfgFile)
				if err != nil {
					slog.Error("config reload rejected, keeping current configuration", "error", err)
					continue
				}
				if err := reload(next); err != nil {
					slog.Error("config reload failed", "error", err)
				}
			}
		}
	}()

	srv := server.NewServer(cfg.Server, svc, server.Options{
		Metrics:     collector,
		MetricsPath: cfg.Telemetry.Metrics.Path,
		Usage:       usageStore,
		Version:     Version,
		Commit:      GitCommit,
		BuildTime:   BuildDate,
	})

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Server stopped")
	return nil
}

func printBanner(cmd *cobra.Command, cfg *config.Config, svc *proxy.Service) {
	out := cmd.OutOrStdout()
	stats := svc.GetServiceStats()

	fmt.Fprintf(out, "Switchboard v%s\n", Version)
	fmt.Fprintf(out, "✓ Configuration loaded from %s\n", cfgFile)
	fmt.Fprintf(out, "✓ Backends registered (%d): %s\n", stats.RegisteredBackends, strings.Join(stats.Backends, ", "))
	fmt.Fprintf(out, "✓ Strategy: %s, max attempts: %d, failover: %t\n", stats.Strategy, stats.MaxAttempts, stats.Failover)
	if stats.CacheEnabled {
		fmt.Fprintf(out, "✓ Response cache: %d entries, ttl %s\n", cfg.Cache.MaxSize, cfg.Cache.TTL)
	}
	if cfg.Usage.Enabled {
		fmt.Fprintf(out, "✓ Usage ledger: %s\n", cfg.Usage.Backend)
	}
	if !runFlags.dryRun {
		fmt.Fprintf(out, "✓ Listening on %s\n", cfg.Server.ListenAddress)
		if cfg.Telemetry.Metrics.Enabled {
			fmt.Fprintf(out, "✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
		}
		fmt.Fprintln(out, "\nPress Ctrl+C to stop")
	}
}
