/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/typeline/pkg/config"
)

// headerCmd represents the header command
var headerCmd = &cobra.Command{
	Use:   "header",
	Short: "Print the header line for the configured schema",
	Long: `Print the header line for the configured schema, quoted with the
configured dialect.

Example:
  typeline header --config ./typeline.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}
		line, err := renderHeader(cfg)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), line)
		return err
	},
}

func init() {
	rootCmd.AddCommand(headerCmd)
}

func renderHeader(cfg *config.Config) (string, error) {
	dialect, err := cfg.Dialect()
	if err != nil {
		return "", err
	}
	s, err := cfg.BuildSchema()
	if err != nil {
		return "", err
	}
	return dialect.AssembleHeader(s.Header(), cfg.Format.CommentPrefixes...), nil
}
