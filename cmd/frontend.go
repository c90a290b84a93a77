package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"scrapeforge.xyz/orchestrator/internal/backendclient"
	"scrapeforge.xyz/orchestrator/internal/config"
	"scrapeforge.xyz/orchestrator/internal/httpapi"
	"scrapeforge.xyz/orchestrator/internal/log"
	"scrapeforge.xyz/orchestrator/internal/metrics"
	"scrapeforge.xyz/orchestrator/internal/pipeline"
	"scrapeforge.xyz/orchestrator/internal/task"
)

var (
	feIP             string
	fePort           int
	feWorkers        int
	feProcessingHost string
	feProcessingPort int
	feVerbose        bool
)

const frontendShutdownGrace = 10 * time.Second

var frontendCmd = &cobra.Command{
	Use:   "frontend",
	Short: "Run the light-phase HTTP frontend",
	Long:  "Accepts scrape requests, fetches and parses pages, and dispatches heavy-phase jobs to a backend dispatcher.",
	RunE:  runFrontend,
}

func init() {
	frontendCmd.Flags().StringVar(&feIP, "ip", "", "bind address (overrides config)")
	frontendCmd.Flags().IntVar(&fePort, "port", 0, "bind port (overrides config)")
	frontendCmd.Flags().IntVar(&feWorkers, "workers", 0, "advisory worker count (overrides config; currently not wired to behavior)")
	frontendCmd.Flags().StringVar(&feProcessingHost, "processing-host", "", "backend dispatcher host (overrides config)")
	frontendCmd.Flags().IntVar(&feProcessingPort, "processing-port", 0, "backend dispatcher port (overrides config)")
	frontendCmd.Flags().BoolVar(&feVerbose, "verbose", false, "enable debug logging (overrides config)")

	rootCmd.AddCommand(frontendCmd)
}

func runFrontend(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFrontend(configFile)
	if err != nil {
		exitWithError("failed to load frontend config", err)
	}
	applyFrontendFlagOverrides(cfg, cmd)

	if err := log.Init(cfg.Log); err != nil {
		exitWithError("failed to initialize logging", err)
	}

	slog.Info("starting scrapeforge frontend",
		"ip", cfg.IP, "port", cfg.Port,
		"processing_host", cfg.ProcessingHost, "processing_port", cfg.ProcessingPort)

	registry := task.NewRegistry(cfg.MaxTasks)
	backend := backendclient.NewClient(cfg.ProcessingHost, cfg.ProcessingPort)
	orch := pipeline.New(registry, backend)
	engine := httpapi.New(registry, orch)

	addr := net.JoinHostPort(cfg.IP, fmt.Sprintf("%d", cfg.Port))
	server := &http.Server{Addr: addr, Handler: engine}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		metricsSrv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path, "frontend")
		if err := metricsSrv.Start(ctx); err != nil {
			exitWithError("failed to start metrics server", err)
		}
		defer metricsSrv.Stop(context.Background())
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("frontend server error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), frontendShutdownGrace)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func applyFrontendFlagOverrides(cfg *config.FrontendConfig, cmd *cobra.Command) {
	if cmd.Flags().Changed("ip") {
		cfg.IP = feIP
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = fePort
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = feWorkers
	}
	if cmd.Flags().Changed("processing-host") {
		cfg.ProcessingHost = feProcessingHost
	}
	if cmd.Flags().Changed("processing-port") {
		cfg.ProcessingPort = feProcessingPort
	}
	if cmd.Flags().Changed("verbose") && feVerbose {
		cfg.Log.Level = "debug"
	}
}
