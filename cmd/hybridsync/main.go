// Command hybridsync builds, populates and queries a hybrid dense+sparse
// collection derived from a dense-only source collection.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridsync/internal/config"
	logpkg "github.com/kailas-cloud/hybridsync/internal/logger"
	"github.com/kailas-cloud/hybridsync/internal/version"
)

var (
	envName  string
	cfgFile  string
	logLevel string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "hybridsync",
	Short: "Hybrid (dense + sparse) collection sync and query service",
	Long: `hybridsync keeps a hybrid collection (dense embedding + BM25 sparse document)
in sync with a dense-only source collection and answers fused (RRF) queries.

Example usage:
  hybridsync serve                          # Run the HTTP API
  hybridsync init                           # Drop and recreate the hybrid collection
  hybridsync migrate --resume               # Copy every source record into it
  hybridsync search -q "leash training" -f '{"species":"dog"}'`,
	Version:       fmt.Sprintf("%s (commit %s, built %s)", version.Version, version.Commit, version.Date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfgFile != "" {
			cfg, err = config.LoadFile(cfgFile)
		} else {
			cfg, err = config.Load(envName)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if logLevel != "" {
			level = logLevel
		}
		logger, err = logpkg.NewLogger(envName, level)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", config.GetEnv(), "environment: local, dev, docker, prod")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
