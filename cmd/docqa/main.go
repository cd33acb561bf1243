package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"docqa/internal/config"
	"docqa/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	workspace  string

	// Loaded configuration, available to all subcommands after PersistentPreRunE.
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "docqa - conversational document question answering",
	Long: `docqa answers natural-language questions against an indexed document
corpus. Each question runs through a pipeline of retrieval, drafting, and
verification agents with rolling conversational memory.

Index documents first with "docqa index", then ask with "docqa ask" or
start a conversation with "docqa chat".`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		path := configPath
		if path == "" {
			path = config.DefaultConfigPath()
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if verbose {
			cfg.Logging.DebugMode = true
		}

		logging.Initialize(workspace, logging.Settings{
			DebugMode:  cfg.Logging.DebugMode,
			Categories: cfg.Logging.Categories,
			Level:      cfg.Logging.Level,
		})
		logging.Boot("docqa starting: provider=%s model=%s", cfg.LLM.Provider, cfg.LLM.Model)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default .docqa/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&workspace, "workspace", ".", "workspace directory for logs and data")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(sessionsCmd)
}
