package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/mace-w/auto-crop/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("autocrop-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("autocrop-mcp - MCP server for trimming transparent padding from images")
			fmt.Println()
			fmt.Println("Usage: autocrop-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables (also read from a .env file):")
			fmt.Println("  AUTOCROP_STRIDE=5          Default sampling stride (1 = exhaustive scan)")
			fmt.Println("  AUTOCROP_LOG_LEVEL=info    Log level: trace, debug, info, warn, error")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	// Logging goes to stderr - stdout is for MCP protocol
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().
		Level(logLevel(os.Getenv("AUTOCROP_LOG_LEVEL")))

	stride := 0
	if v := os.Getenv("AUTOCROP_STRIDE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			logger.Warn().Str("value", v).Msg("ignoring unparseable AUTOCROP_STRIDE")
		} else {
			stride = n
		}
	}

	logger.Debug().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("commit", GitCommit).
		Int("stride", stride).
		Msg("starting autocrop MCP server")

	srv := server.New(server.Config{
		DefaultStride: stride,
		Logger:        logger,
	})
	if err := srv.Run(); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

// logLevel maps the env value to a zerolog level, defaulting to info.
func logLevel(v string) zerolog.Level {
	level, err := zerolog.ParseLevel(v)
	if err != nil || v == "" {
		return zerolog.InfoLevel
	}
	return level
}
