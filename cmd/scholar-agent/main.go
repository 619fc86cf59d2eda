// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the scholar-agent CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/scholar-agent/internal/logging"
	"github.com/pdiddy/scholar-agent/internal/secrets"
	"github.com/pdiddy/scholar-agent/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Process-wide state resolved in PersistentPreRunE.
var (
	loadedSecrets secrets.Secrets
	cfg           types.Config
	forceMock     bool
)

var rootCmd = &cobra.Command{
	Use:   "scholar-agent",
	Short: "Agent-driven literature and dataset discovery",
	Long: `scholar-agent finds research papers and datasets for a natural-language
question. An LLM turns the question into search queries, a semantic index
over the local corpus returns candidates, and the agent follows similar items
layer by layer, keeping those the LLM judges relevant.

Load a corpus with "corpus import", embed it with "index build", then search
with "papers" or "datasets", or serve the agents over HTTP and MCP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/", ".env")
		if err != nil {
			return err
		}
		loadedSecrets = s

		c, mock, err := configFrom(viper.GetViper(), s)
		if err != nil {
			return err
		}
		cfg, forceMock = c, mock

		logging.Init(cfg.Log)
		if len(s) > 0 {
			keys := s.Keys()
			sort.Strings(keys)
			logging.L().Debug("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./scholar-agent.yaml or ~/.config/scholar-agent/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("db", "", "corpus database path")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("corpus.db_path", rootCmd.PersistentFlags().Lookup("db"))

	setDefaults(viper.GetViper())
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("scholar-agent")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "scholar-agent"))
		}
	}

	viper.SetEnvPrefix("SCHOLAR_AGENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
