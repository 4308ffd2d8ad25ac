package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/macsen-huw/meshbake/internal/config"
	"github.com/macsen-huw/meshbake/internal/logger"
)

var (
	cfg *config.Config

	flagConfig   string
	flagLogLevel string
	flagLogFile  string
)

var rootCmd = &cobra.Command{
	Use:   "meshbake",
	Short: "Offline asset baker for indexed, tangent-space PBR meshes",
	Long: `meshbake converts Wavefront OBJ scenes into a compact binary asset:
vertices are welded into an indexed mesh, per-vertex tangents are derived
from the UV layout, and every referenced texture is deduplicated into a
table and copied next to the baked file.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return err
		}
		if flagLogLevel != "" {
			cfg.Logging.Level = flagLogLevel
		}
		if flagLogFile != "" {
			cfg.Logging.LogFile = flagLogFile
		}
		return logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ./meshbake.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "also log to this file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
