// Command dragond is the backend entry point for the dragon marketplace
// station. It loads configuration, validates it, wires dependencies, sets
// up signal handling, and starts the application in the configured mode.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bchsol/CryptoDragon/internal/app"
	"github.com/bchsol/CryptoDragon/internal/config"
	"github.com/bchsol/CryptoDragon/internal/crypto"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to configuration file")
	encryptOut := flag.String("encrypt-key", "",
		"write an encrypted wallet keyfile to this path and exit (reads DRAGON_WALLET_PRIVATE_KEY and DRAGON_WALLET_KEY_PASSWORD)")
	flag.Parse()

	// Setup structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *encryptOut != "" {
		if err := writeEncryptedKeyfile(*encryptOut); err != nil {
			logger.Error("failed to write encrypted keyfile", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("encrypted keyfile written", slog.String("path", *encryptOut))
		return
	}

	// Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// Set log level from config.
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("dragon station starting",
		slog.String("mode", cfg.Mode),
		slog.String("config", *configPath),
	)

	// Create the application.
	application := app.New(cfg, logger)
	defer application.Close()

	// Setup signal handling for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run the application.
	if err := application.Run(ctx); err != nil {
		// context.Canceled is expected on clean shutdown.
		if err == context.Canceled {
			logger.Info("application shut down gracefully")
		} else {
			logger.Error("application exited with error",
				slog.String("error", err.Error()),
			)
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
	}

	logger.Info("dragon station stopped")
}

// writeEncryptedKeyfile encrypts the wallet key from the environment and
// writes the keyfile, so the raw key never has to live in config.toml.
func writeEncryptedKeyfile(path string) error {
	key := os.Getenv("DRAGON_WALLET_PRIVATE_KEY")
	password := os.Getenv("DRAGON_WALLET_KEY_PASSWORD")
	if key == "" || password == "" {
		return fmt.Errorf("DRAGON_WALLET_PRIVATE_KEY and DRAGON_WALLET_KEY_PASSWORD must be set")
	}

	keyfile, err := crypto.EncryptKey(key, password)
	if err != nil {
		return err
	}
	return os.WriteFile(path, keyfile, 0o600)
}
