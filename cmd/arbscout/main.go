// Command arbscout is the entry point for the resale arbitrage scanner. It
// loads configuration, validates it, sets up signal handling, and starts the
// application in the configured mode.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alanyoungcy/arbscout/internal/app"
	"github.com/alanyoungcy/arbscout/internal/config"
	"github.com/alanyoungcy/arbscout/internal/crypto"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to configuration file")
	modeFlag := flag.String("mode", "", "override the configured mode (scan, continuous, server, report, full)")
	sealVault := flag.String("seal-vault", "", "read credentials JSON from stdin and write an encrypted vault to this path")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	if *modeFlag != "" {
		cfg.Mode = *modeFlag
	}

	if *sealVault != "" {
		if err := writeVault(os.Stdin, *sealVault, cfg.Credentials.VaultPassword); err != nil {
			fmt.Fprintf(os.Stderr, "seal vault: %v\n", err)
			os.Exit(1)
		}
		logger.Info("credentials vault written", slog.String("path", *sealVault))
		return
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("arbscout starting",
		slog.String("mode", cfg.Mode),
		slog.String("config", *configPath),
	)
	logger.Debug("effective configuration", slog.Any("config", config.RedactedConfig(cfg)))

	application := app.New(cfg, logger)
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("application shut down gracefully")
		} else {
			logger.Error("application exited with error",
				slog.String("error", err.Error()),
			)
			application.Close()
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
	}

	logger.Info("arbscout stopped")
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// writeVault seals the credentials read from r into a vault at path.
func writeVault(r io.Reader, path, password string) error {
	if password == "" {
		return errors.New("credentials.vault_password (or ARBSCOUT_CREDENTIALS_VAULT_PASSWORD) must be set")
	}
	var creds crypto.Credentials
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&creds); err != nil {
		return fmt.Errorf("decode credentials: %w", err)
	}
	return crypto.WriteVault(path, creds, password)
}
