/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/typeline/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Write a starter configuration file describing the format and schema
of your typed delimited files.

The generated file uses TSV with a header line, '#' comments, atomic output
and an example record schema you can edit.

Examples:
	  typeline init
	  typeline init --config ./typeline.yaml --force`,
	Annotations: map[string]string{skipConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		force, _ := cmd.Flags().GetBool("force")
		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}

		written, err := writeStarterConfig(configPath, force)
		if err != nil {
			return err
		}
		if !written {
			cmd.Printf("Configuration already exists. Use --force to overwrite.\n")
			cmd.Printf("Configuration location: %s\n", configPath)
			return nil
		}

		cmd.Printf("✅ Configuration written to %s\n", configPath)
		cmd.Printf("\nPrint the header line for the configured schema with:\n")
		cmd.Printf("  typeline header --config %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
}

// writeStarterConfig saves the default configuration at path. It reports
// false without touching the file when one exists and force is unset.
func writeStarterConfig(path string, force bool) (bool, error) {
	if config.ConfigExists(path) && !force {
		return false, nil
	}
	if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
		return false, fmt.Errorf("failed to write configuration: %w", err)
	}
	return true, nil
}
