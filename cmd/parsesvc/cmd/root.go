// Package cmd implements the parsesvc Cobra command tree, the way the
// teacher's cmd/ocr/cmd package is structured: a root command plus one
// file per subcommand, a package-level config loader, and slog set up
// from the resolved configuration by loadConfig, which each subcommand
// calls.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/docuforge/parsesvc/internal/config"
)

var (
	cfgFile      string
	configLoader *config.Loader
)

var rootCmd = &cobra.Command{
	Use:   "parsesvc",
	Short: "Document parsing and OCR service",
	Long: `parsesvc extracts text, tables, and OCR'd image content from PDF,
DOCX, PPTX, and Markdown documents.

Examples:
  parsesvc serve
  parsesvc parse report.pdf`,
}

// Execute runs the root command. It is the sole entry point main.main calls.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCommand returns the root command for in-process test execution,
// matching the teacher's cmd.GetRootCommand helper.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (not read: the loader always searches ./parsesvc.yaml, /etc/parsesvc)")
}

// loadConfig resolves the process configuration exactly once per run,
// wiring slog's default logger from the result the way the teacher's
// setupLogging does.
func loadConfig() (*config.Config, error) {
	configLoader = config.NewLoader()
	cfg, err := configLoader.Load()
	if err != nil {
		return nil, fmt.Errorf("cmd: failed to load configuration: %w", err)
	}
	setupLogging(cfg)
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
