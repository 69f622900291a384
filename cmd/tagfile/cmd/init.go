/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/tagfile/pkg/config"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with a generated API key",
		Long: `Create a configuration file for TagFile.

This command will:
- Write the config to --config (or the platform default path)
- Point container.path at --file when given
- Generate an API key for the REST server

Examples:
  tagfile init
  tagfile init --config ./tagfile.yaml -f ./data/store.tagfile --force`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoContainer: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			printKey, _ := cmd.Flags().GetBool("print-key")
			containerPath, _ := cmd.Flags().GetString("file")

			a, err := appFrom(cmd)
			if err != nil {
				return err
			}

			if config.ConfigExists(a.configPath) && !force {
				cmd.Printf("Config already exists at %s. Use --force to overwrite.\n", a.configPath)
				return nil
			}

			cfg, err := config.BootstrapConfig(a.configPath, containerPath)
			if err != nil {
				return err
			}

			cmd.Printf("Wrote config to %s\n", a.configPath)
			cmd.Printf("Container: %s\n", cfg.Container.Path)
			if printKey {
				cmd.Printf("API key: %s\n", cfg.Server.APIKey)
			} else {
				cmd.Printf("API key stored in config (use --print-key to show it)\n")
			}
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Overwrite an existing config")
	cmd.Flags().Bool("print-key", false, "Print the generated API key")
	return cmd
}
