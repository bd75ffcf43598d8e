package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lorad2d-sim/internal/config"
	"lorad2d-sim/internal/logging"
)

var (
	cfgFile  string
	logLevel string
	noColor  bool
)

var rootCmd = &cobra.Command{
	Use:           "lorad2d",
	Short:         "LoRa device-to-device simulation campaigns",
	Long:          "lorad2d places LoRa nodes in a field, lets them broadcast and measures packet loss over repeated seeded runs.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		lvl, err := logging.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("%w: %v", config.ErrConfiguration, err)
		}
		logger := logging.New(os.Stderr, lvl)
		slog.SetDefault(logger)
		cmd.SetContext(logging.NewContext(cmd.Context(), logger))
		if noColor {
			color.NoColor = true
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to campaign configuration YAML")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", config.ErrConfiguration, err)
	})

	rootCmd.AddCommand(campaignCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(analyzeCmd)
}
