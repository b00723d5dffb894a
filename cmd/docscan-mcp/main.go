package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/docscan-mcp/internal/config"
	"github.com/ironsheep/docscan-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("docscan-mcp - MCP server for document detection and rectification")
	fmt.Println()
	fmt.Println("Usage: docscan-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config <path>  YAML configuration file (defaults apply if missing)")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=debug        Log level (debug, info, warn, error)\n", config.EnvLogLevel)
	fmt.Printf("  %s=:8080     Also serve the HTTP API on this address\n", config.EnvHTTPAddress)
	fmt.Printf("  %s=eng      Default OCR language\n", config.EnvOCRLanguage)
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("docscan-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		}
	}

	configFlag := flag.String("config", "", "configuration file")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Parse(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Validated by Parse
	level, _ := cfg.SlogLevel()

	// Logs go to stderr; stdout is for MCP protocol
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if Version != "dev" {
		server.Version = Version
	}
	logger.Debug("starting", "name", server.Name, "version", server.Version, "built", BuildTime, "commit", GitCommit)

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.HTTP.Address != "" {
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil {
				logger.Error("http server failed", "error", err)
				stop()
			}
		}()
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Run() }()

	select {
	case err := <-errc:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		// stdin closed; keep serving HTTP until signalled
		if cfg.HTTP.Address != "" {
			<-ctx.Done()
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}
}
