package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parkops/workplan/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "workplan",
	Short: "Work-plan feasibility engine",
	Long: "workplan decides whether a fixed staff roster can execute a quarterly\n" +
		"work-plan without exceeding per-role capacity in any time slot.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	if _, err := os.Stat(cfgPath); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	return config.Load(cfgPath)
}
