package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dkeye/WatchParty/internal/config"
	"github.com/dkeye/WatchParty/internal/logger"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "watchparty",
	Short:         "Watch-party server: shared playback, chat and voice signaling over WebSocket",
	Long:          `HTTP + WebSocket API. Commands: serve (default), token.`,
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		_ = godotenv.Load(".env")
		// Console output until the configured logger takes over.
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
}

func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger.Init(cfg.Log)
	return cfg, nil
}
