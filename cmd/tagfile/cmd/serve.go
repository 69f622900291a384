/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/tagfile/pkg/api"
	"github.com/ssargent/tagfile/pkg/config"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Serve the container over HTTP until interrupted.

Bind address, port and API key come from the config file unless overridden.
With api_key set to "auto" a key is generated for this run and printed.

Examples:
  tagfile serve
  tagfile serve -f ./data/store.tagfile --port 9200 --api-key mysecretkey`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationMetrics: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}

			serverConfig := api.ServerConfig{
				Bind:   a.cfg.Server.Bind,
				Port:   a.cfg.Server.Port,
				APIKey: a.cfg.Server.APIKey,
			}
			if cmd.Flags().Changed("bind") {
				serverConfig.Bind, _ = cmd.Flags().GetString("bind")
			}
			if cmd.Flags().Changed("port") {
				serverConfig.Port, _ = cmd.Flags().GetInt("port")
			}
			if cmd.Flags().Changed("api-key") {
				serverConfig.APIKey, _ = cmd.Flags().GetString("api-key")
			}

			if serverConfig.APIKey == config.AutoKey {
				key, err := config.GenerateSecureKey(32)
				if err != nil {
					return err
				}
				serverConfig.APIKey = key
				cmd.Printf("Generated API key for this run: %s\n", key)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := api.NewServer(a.container, serverConfig, a.metrics, a.logger)
			cmd.Printf("Serving %s on http://%s\n", a.container.Path(), server.Addr())
			cmd.Printf("Metrics available at: http://%s/metrics\n", server.Addr())
			return server.ListenAndServe(ctx)
		},
	}

	cmd.Flags().String("bind", "", "Bind address")
	cmd.Flags().Int("port", 0, "Port to listen on")
	cmd.Flags().String("api-key", "", "API key for /api/v1 (empty disables the check)")
	return cmd
}
