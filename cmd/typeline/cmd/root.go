/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ssargent/typeline/pkg/config"
	"github.com/ssargent/typeline/pkg/di"
)

type contextKey string

const configKey contextKey = "config"

// skipConfig marks commands that run without loading a configuration.
const skipConfig = "skip-config"

var container *di.Container

// SetContainer injects the dependency container used by all commands.
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "typeline",
	Short: "Typeline - typed delimited text",
	Long: `Typeline reads and writes CSV and TSV files whose columns carry
typed values. Scalars are written bare, structured values as JSON.

The column layout comes from the schema section of the configuration file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			return fmt.Errorf("dependency container not initialized")
		}
		if cmd.Annotations[skipConfig] == "true" {
			return nil
		}

		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := resolveConfig(configPath)
		if err != nil {
			return err
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}

		logger, err := newLogger(cfg.Logging.Level, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		container.SetLogger(logger)

		cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file (default ~/.config/typeline/config.yaml when present)")
	rootCmd.PersistentFlags().String("log-level", "", "Override the configured log level (debug, info, warn, error)")
}

// resolveConfig loads the named file. Without a name it falls back to the
// default location, then to the built-in defaults.
func resolveConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfig(path)
	}
	if def := config.GetDefaultConfigPath(); config.ConfigExists(def) {
		return config.LoadConfig(def)
	}
	return config.DefaultConfig(), nil
}

func configFrom(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey).(*config.Config)
	if !ok {
		return nil, fmt.Errorf("configuration not found in context")
	}
	return cfg, nil
}

// newLogger builds a console logger writing to w at the given level.
func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	if level == "" {
		level = "info"
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}
