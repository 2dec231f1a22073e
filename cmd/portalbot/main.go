package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	verbose    bool
	headless   bool
	profile    string
	record     string
	provider   string
	model      string

	logger *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "portalbot",
		Short: "Log into the MMU student portal and watch unit registration",
		Long: `portalbot drives the MMU student portal in a real browser. It logs in,
reads the fee balance and checks which units are open for registration,
reporting the result to the terminal, a JSON file, GitHub Actions outputs
and optional email or webhook notifications.

Credentials come from MMU_REG_NUMBER and MMU_PASSWORD (a .env file works).

Example:
  portalbot units --type course --notify`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if verbose {
				config = zap.NewDevelopmentConfig()
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			zap.ReplaceGlobals(logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "portalbot.json5", "Config file (a .local.json5 next to it overrides it)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress")
	flags.BoolVar(&headless, "headless", false, "Run the browser without a window (default: from config or HEADLESS)")
	flags.StringVar(&profile, "profile", "", "Chrome/Chromium profile directory (close browser first)")
	flags.StringVar(&record, "record", "", "Record the browser session to this GIF file")
	flags.StringVar(&provider, "provider", "", "AI provider for finding login fields: claude, openai (default: none)")
	flags.StringVar(&model, "model", "", "Specific model override")

	rootCmd.AddCommand(loginCmd(), watchCmd(), unitsCmd(), extractCmd(), historyCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
