package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/tmeadows/outboxd/internal/instrumentation"
	"github.com/tmeadows/outboxd/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		debugMode      bool
		transport      string
		httpAddr       string
		envFile        string
		noInteractive  bool
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the action server",
		Long: `Start the outboxd action server.

Supports multiple transport types:
  - http: JSON HTTP API on /api/send-email and /api/voice-command (default)
  - stdio: MCP server over standard input/output for AI assistants

Credentials:
  The Google OAuth client secret is read from the file named by
  GOOGLE_CREDENTIALS_FILE (default: credentials.json). The granted token
  is persisted to OUTBOXD_TOKEN_FILE and refreshed automatically. When
  no usable token exists, the first send triggers a browser
  authorization flow unless --no-interactive is set; run
  "outboxd authorize" ahead of time for unattended deployments.

Generation:
  At least one of GEMINI_API_KEY or OPENAI_API_KEY must be set. Gemini
  is tried first, OpenAI is the fallback.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(transport, debugMode, httpAddr, envFile, !noInteractive, metricsEnabled, metricsAddr)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&transport, "transport", "http", "Transport type: http or stdio")
	cmd.Flags().StringVar(&httpAddr, "http-addr", server.DefaultAPIAddr, "HTTP API server address (for http transport)")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to a .env file to load before reading configuration")
	cmd.Flags().BoolVar(&noInteractive, "no-interactive", false, "Fail instead of opening a browser when no usable credential exists")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(transport string, debugMode bool, httpAddr, envFile string, interactive bool, metricsEnabled bool, metricsAddr string) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load metrics config from environment if not set via flags
	if os.Getenv("METRICS_ENABLED") == "false" {
		metricsEnabled = false
	}
	if metricsAddr == "" || metricsAddr == server.DefaultMetricsAddr {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			metricsAddr = addr
		}
	}

	app, err := newApplication(appOptions{
		envFile:     envFile,
		debug:       debugMode,
		interactive: interactive,
	})
	if err != nil {
		return err
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			if transport != "stdio" {
				log.Printf("Error during instrumentation shutdown: %v", err)
			}
		}
	}()

	if provider.Enabled() {
		audit := instrumentation.NewAuditLoggerWithConfig(app.logger, instrConfig.AuditLogging)
		app.registry.WithInstrumentation(provider.Metrics(), audit)
		app.lifecycle.WithInstrumentation(provider.Metrics())
		app.chain.WithInstrumentation(provider.Metrics())
		app.service.WithInstrumentation(provider.Metrics())
	}

	serverContext := server.NewServerContext(shutdownCtx, app.service, app.registry, provider, app.logger)
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			if transport != "stdio" {
				log.Printf("Error during server context shutdown: %v", err)
			}
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	var metricsServer *server.MetricsServer
	if transport != "stdio" && metricsEnabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsAddr,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Metrics server stopped with error: %v", err)
			}
		}()
	}
	defer func() {
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("Error during metrics server shutdown: %v", err)
			}
		}
	}()

	switch transport {
	case "stdio":
		return runStdioServer(app)
	case "http":
		return runHTTPServer(shutdownCtx, serverContext, httpAddr)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: http, stdio)", transport)
	}
}

// runStdioServer serves the tool registry over the MCP stdio transport.
func runStdioServer(app *application) error {
	mcpSrv := mcpserver.NewMCPServer("outboxd", version,
		mcpserver.WithToolCapabilities(true),
	)
	app.registry.AttachMCP(mcpSrv)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// runHTTPServer serves the JSON API until the context is cancelled, then
// drains in-flight requests within the shutdown timeout.
func runHTTPServer(ctx context.Context, sc *server.ServerContext, addr string) error {
	healthChecker := server.NewHealthChecker(sc)
	apiServer := server.NewAPIServer(sc, healthChecker, addr)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		sc.Logger().Info("shutdown signal received, stopping HTTP server")
		healthChecker.SetReady(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	return nil
}
