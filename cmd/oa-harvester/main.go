// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the oa-harvester CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/oa-harvester/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd runs a harvest.
var rootCmd = &cobra.Command{
	Use:   "oa-harvester --keywords climate action [--start-page N]",
	Short: "Harvest open-access PDFs and author contacts from Wiley Online Library",
	Long: `oa-harvester searches the Wiley Online Library SRU endpoint for the given
keywords, keeps the open-access results, downloads their PDFs and guesses a
principal author name and email from the first page of each PDF.

With --persist, one metadata row per article is written to Postgres (or to a
local SQLite file with --store-driver sqlite). Articles already stored, by
hash of DOI and title, are not inserted again.

Downloads are written to <download-dir>/<publisher>/<keywords>/ and existing
files are never fetched twice.`,
	Args: cobra.ArbitraryArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv(viper.GetString(config.KeyEnvFile))
	},
	RunE: runHarvest,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./oa-harvester.yaml or ~/.config/oa-harvester/oa-harvester.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "human-readable debug logging")
	rootCmd.PersistentFlags().String("env-file", config.DefaultEnvFile, "dotenv file loaded before resolving database settings")
	viper.BindPFlag(config.KeyVerbose, rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag(config.KeyEnvFile, rootCmd.PersistentFlags().Lookup("env-file"))
}

func initConfig() {
	config.SetDefaults(viper.GetViper())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("oa-harvester")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "oa-harvester"))
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger returns a JSON production logger, or a colored console logger
// at debug level when verbose is set.
func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewProduction()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Sampling = nil
	return cfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
