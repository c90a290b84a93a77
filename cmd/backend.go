package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"scrapeforge.xyz/orchestrator/internal/config"
	"scrapeforge.xyz/orchestrator/internal/dispatcher"
	"scrapeforge.xyz/orchestrator/internal/log"
	"scrapeforge.xyz/orchestrator/internal/metrics"
)

var (
	beIP        string
	bePort      int
	beProcesses int
	beVerbose   bool
)

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Run the heavy-phase process-pool dispatcher",
	Long:  "Accepts one request per connection and routes screenshot / performance / image_processing jobs to a fixed pool of worker processes.",
	RunE:  runBackend,
}

func init() {
	backendCmd.Flags().StringVar(&beIP, "ip", "", "bind address (overrides config)")
	backendCmd.Flags().IntVar(&bePort, "port", 0, "bind port (overrides config)")
	backendCmd.Flags().IntVar(&beProcesses, "processes", 0, "worker process count; 0 uses host CPU count")
	backendCmd.Flags().BoolVar(&beVerbose, "verbose", false, "enable debug logging (overrides config)")

	rootCmd.AddCommand(backendCmd)
}

func runBackend(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadBackend(configFile)
	if err != nil {
		exitWithError("failed to load backend config", err)
	}
	applyBackendFlagOverrides(cfg, cmd)

	if err := log.Init(cfg.Log); err != nil {
		exitWithError("failed to initialize logging", err)
	}

	slog.Info("starting scrapeforge backend", "ip", cfg.IP, "port", cfg.Port, "processes", cfg.Processes)

	size := cfg.Processes
	if size <= 0 {
		size = runtime.NumCPU()
	}
	pool, err := dispatcher.NewPool(size)
	if err != nil {
		exitWithError("failed to start worker pool", err)
	}
	defer pool.Close()

	srv := dispatcher.NewServer(pool)
	addr := net.JoinHostPort(cfg.IP, fmt.Sprintf("%d", cfg.Port))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		metricsSrv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path, "backend")
		if err := metricsSrv.Start(ctx); err != nil {
			exitWithError("failed to start metrics server", err)
		}
		defer metricsSrv.Stop(context.Background())
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ctx, addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("backend dispatcher error: %w", err)
	case <-ctx.Done():
		// Connections are serviced by detached goroutines and dropped
		// without joining on shutdown, matching the daemon-thread model.
		return nil
	}
}

func applyBackendFlagOverrides(cfg *config.BackendConfig, cmd *cobra.Command) {
	if cmd.Flags().Changed("ip") {
		cfg.IP = beIP
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = bePort
	}
	if cmd.Flags().Changed("processes") {
		cfg.Processes = beProcesses
	}
	if cmd.Flags().Changed("verbose") && beVerbose {
		cfg.Log.Level = "debug"
	}
}
