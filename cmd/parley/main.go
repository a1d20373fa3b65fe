package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/marmos91/parley/internal/logger"
	"github.com/marmos91/parley/pkg/api"
	"github.com/marmos91/parley/pkg/channel"
	"github.com/marmos91/parley/pkg/chat"
	"github.com/marmos91/parley/pkg/config"
	"github.com/marmos91/parley/pkg/identity"
	"github.com/marmos91/parley/pkg/metrics"
	prommetrics "github.com/marmos91/parley/pkg/metrics/prometheus"
)

// Build-time variables injected via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = `Parley - Multi-user TCP chat server

Usage:
  parley <command> [flags]

Commands:
  init     Initialize a sample configuration file
  start    Start the chat server
  version  Show version information

Flags:
  --config string    Path to config file (default: $XDG_CONFIG_HOME/parley/config.yaml)
  --force            Force overwrite existing config file (init command only)
  --port int         Chat listener port (start command only, overrides config)

Examples:
  # Initialize config file
  parley init

  # Start server with default config location
  parley start

  # Start server on a specific port
  parley start 12345

  # Start server with custom config
  parley start --config /etc/parley/config.yaml

  # Use environment variables to override config
  PARLEY_LOGGING_LEVEL=DEBUG parley start

Environment Variables:
  All configuration options can be overridden using environment variables.
  Format: PARLEY_<SECTION>_<KEY> (use underscores for nested keys)

  Examples:
    PARLEY_LOGGING_LEVEL=DEBUG
    PARLEY_CHAT_PORT=12346
    PARLEY_API_ENABLED=true
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "init":
		runInit()
	case "start":
		runStart()
	case "help", "--help", "-h":
		fmt.Print(usage)
		os.Exit(0)
	case "version", "--version", "-v":
		fmt.Printf("parley %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// runInit handles the init subcommand
func runInit() {
	initFlags := flag.NewFlagSet("init", flag.ExitOnError)
	configFile := initFlags.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/parley/config.yaml)")
	force := initFlags.Bool("force", false, "Force overwrite existing config file")

	if err := initFlags.Parse(os.Args[2:]); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	var configPath string
	var err error

	if *configFile != "" {
		err = config.InitConfigToPath(*configFile, *force)
		configPath = *configFile
	} else {
		configPath, err = config.InitConfig(*force)
	}

	if err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the server with: parley start")
	fmt.Printf("  3. Or specify custom config: parley start --config %s\n", configPath)
}

// runStart handles the start subcommand
func runStart() {
	startFlags := flag.NewFlagSet("start", flag.ExitOnError)
	configFile := startFlags.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/parley/config.yaml)")
	port := startFlags.Int("port", 0, "Chat listener port (overrides config)")

	if err := startFlags.Parse(os.Args[2:]); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	// A bare positional argument is accepted as the port too:
	//   parley start 12345
	if args := startFlags.Args(); len(args) > 0 {
		p, err := strconv.Atoi(args[0])
		if err != nil || p < 1 || p > 65535 {
			fmt.Fprintf(os.Stderr, "Error: invalid port: %s\n", args[0])
			os.Exit(1)
		}
		*port = p
	}

	// Load configuration; a missing default config falls back to defaults
	// so 'parley start 12345' works out of the box.
	if *configFile != "" {
		if _, err := os.Stat(*configFile); os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error: Configuration file not found: %s\n\n", *configFile)
			fmt.Fprintln(os.Stderr, "Please create the configuration file:")
			fmt.Fprintf(os.Stderr, "  parley init --config %s\n", *configFile)
			os.Exit(1)
		}
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Chat.Port = *port
	}

	// Initialize the structured logger
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(*configFile))

	// Initialize metrics first so every component created below records
	var chatMetrics metrics.ChatMetrics
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		chatMetrics = prommetrics.NewChatMetrics()
		logger.Info("Metrics collection enabled")
	} else {
		logger.Info("Metrics collection disabled")
	}

	// In-memory registries; all state is lost on restart
	users := identity.NewRegistry()
	channels := channel.NewRegistry()
	cfg.Seed.Apply(users, channels)
	logger.Info("Registries initialized",
		"users", users.Count(),
		"channels", channels.Count())

	dispatcher := chat.NewDispatcher(users, channels, chatMetrics)
	adapter := chat.New(chat.Config{
		BindAddress:     cfg.Chat.BindAddress,
		Port:            cfg.Chat.Port,
		MaxConnections:  cfg.Chat.MaxConnections,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, dispatcher, chatMetrics)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- adapter.Serve(ctx)
	}()
	logger.Info("Chat server enabled", "address", cfg.Chat.BindAddress, "port", cfg.Chat.Port)

	// Start the admin API server (if enabled)
	var apiDone chan error
	if cfg.API.Enabled {
		apiServer, err := api.NewServer(cfg.API, users, channels, adapter)
		if err != nil {
			log.Fatalf("Failed to create API server: %v", err)
		}
		apiDone = make(chan error, 1)
		go func() {
			apiDone <- apiServer.Start(ctx)
		}()
		logger.Info("API server enabled", "port", cfg.API.Port)
	} else {
		logger.Info("API server disabled")
	}

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", "error", err)
			os.Exit(1)
		}
		if apiDone != nil {
			if err := <-apiDone; err != nil {
				logger.Error("API server shutdown error", "error", err)
				os.Exit(1)
			}
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		cancel()
		if err != nil {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
		logger.Info("Server stopped")

	case err := <-apiDoneOrNever(apiDone):
		signal.Stop(sigChan)
		cancel()
		logger.Error("API server error", "error", err)
		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		os.Exit(1)
	}
}

// apiDoneOrNever turns a nil API error channel into one that never fires,
// so the shutdown select works whether or not the API server is enabled.
func apiDoneOrNever(apiDone chan error) <-chan error {
	if apiDone == nil {
		return make(chan error)
	}
	return apiDone
}

// getConfigSource returns a description of where the config was loaded from
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
