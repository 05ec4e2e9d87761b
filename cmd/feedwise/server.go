package feedwise

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/feedwise/feedwise"
	"github.com/feedwise/feedwise/pkg/alert"
	"github.com/feedwise/feedwise/pkg/config"
	"github.com/feedwise/feedwise/pkg/logger"
	"github.com/feedwise/feedwise/pkg/progress"
	"github.com/feedwise/feedwise/pkg/scoring"
	"github.com/feedwise/feedwise/pkg/server"
	"github.com/feedwise/feedwise/pkg/store"
	"github.com/feedwise/feedwise/pkg/telemetry"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Feedwise HTTP server",
	Long: `Start the Feedwise HTTP server to provide REST API access to the
analysis engine.

The server provides endpoints for:
- Starting analysis runs and polling their progress
- Fetching terminal results and revealing anonymous codes
- Managing stored pets and the product catalog
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	// Server-specific flags
	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	// Record store flags
	serverCmd.Flags().String("store-path", "./feedwise_db", "Record store path")
	serverCmd.Flags().Bool("store-in-memory", false, "Keep the record store in memory")

	// Scoring flags
	serverCmd.Flags().String("scoring-backend", "workflow", "Scoring backend (workflow, openai)")
	serverCmd.Flags().String("scoring-base-url", "", "Scoring service base URL")
	serverCmd.Flags().String("scoring-api-key", "", "Scoring service API key")
	serverCmd.Flags().String("scoring-model", "", "Scoring model (openai backend only)")
	serverCmd.Flags().Int("scoring-timeout", 0, "Scoring request timeout in seconds")

	// Analysis flags
	serverCmd.Flags().Int("concurrency", 0, "Max in-flight scoring requests")
	serverCmd.Flags().Int("stagger", 0, "Delay between task submissions in seconds")

	// Telemetry flags
	serverCmd.Flags().String("telemetry-parquet-path", "", "Path to directory for error telemetry")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	overrideConfigWithFlags(cmd, cfg)

	// Validate configuration
	if err := validateServerConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := buildLogger(cfg)

	// Open the record store
	recordStore, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	defer recordStore.Close()

	// Build the scoring client
	scorer, err := buildScorer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize scorer: %w", err)
	}
	log.Info("scoring client initialized", "backend", scorer.Name())

	// Progress store and analysis engine
	progressStore := progress.NewStore(cfg.Progress)
	defer progressStore.Close()

	advisor := feedwise.New(scorer, progressStore, cfg.Analysis,
		feedwise.WithLogger(log),
		feedwise.WithSessionStore(recordStore),
	)

	// Create and setup server
	srv := server.New(cfg, advisor, scorer, recordStore)
	srv.Setup()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)

		// Create shutdown context with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Shutdown server
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		fmt.Println("Server stopped gracefully")
		return nil
	}
}

// buildLogger creates the process logger, wiring parquet error telemetry in
// front of the console handler when a telemetry path is configured.
func buildLogger(cfg *config.Config) *slog.Logger {
	console := logger.NewLogger(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})

	trackingPath := cfg.Telemetry.ParquetPath
	if trackingPath == "" {
		return console
	}
	if err := os.MkdirAll(trackingPath, 0755); err != nil {
		fmt.Printf("Warning: failed to create telemetry directory: %v\n", err)
		return console
	}

	parquetHandler, err := telemetry.NewParquetHandler(console.Handler(), trackingPath)
	if err != nil {
		fmt.Printf("Warning: failed to initialize error tracking: %v\n", err)
		return console
	}
	fmt.Printf("Error tracking enabled at: %s\n", trackingPath)
	return slog.New(parquetHandler)
}

// buildScorer creates the configured scoring backend, wrapped in a circuit
// breaker when enabled.
func buildScorer(cfg *config.Config) (scoring.Scorer, error) {
	scorer, err := scoring.NewScorer(cfg.Scoring)
	if err != nil {
		return nil, err
	}

	if !cfg.CircuitBreaker.Enabled {
		return scorer, nil
	}

	var alerter alert.Alerter = &alert.NoOpAlerter{}
	if cfg.Alert.Enabled {
		alerter = alert.NewEmailAlerter(cfg.Alert)
	}
	return scoring.NewBreakerClient(scorer, cfg.CircuitBreaker, alerter), nil
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	// Server flags
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	// Record store flags
	if cmd.Flags().Changed("store-path") {
		cfg.Store.Path, _ = cmd.Flags().GetString("store-path")
	}
	if cmd.Flags().Changed("store-in-memory") {
		cfg.Store.InMemory, _ = cmd.Flags().GetBool("store-in-memory")
	}

	// Scoring flags
	if cmd.Flags().Changed("scoring-backend") {
		cfg.Scoring.Backend, _ = cmd.Flags().GetString("scoring-backend")
	}
	if cmd.Flags().Changed("scoring-base-url") {
		cfg.Scoring.BaseURL, _ = cmd.Flags().GetString("scoring-base-url")
	}
	if cmd.Flags().Changed("scoring-api-key") {
		cfg.Scoring.APIKey, _ = cmd.Flags().GetString("scoring-api-key")
	}
	if cmd.Flags().Changed("scoring-model") {
		cfg.Scoring.Model, _ = cmd.Flags().GetString("scoring-model")
	}
	if cmd.Flags().Changed("scoring-timeout") {
		cfg.Scoring.Timeout, _ = cmd.Flags().GetInt("scoring-timeout")
	}

	// Analysis flags
	if cmd.Flags().Changed("concurrency") {
		cfg.Analysis.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	}
	if cmd.Flags().Changed("stagger") {
		cfg.Analysis.Stagger, _ = cmd.Flags().GetInt("stagger")
	}

	// Telemetry flags
	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
	}
}

func validateServerConfig(cfg *config.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}

	if !cfg.Store.InMemory && cfg.Store.Path == "" {
		return fmt.Errorf("record store path is required")
	}
	return nil
}
