/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/tagfile/pkg/adapter"
	"github.com/ssargent/tagfile/pkg/config"
	"github.com/ssargent/tagfile/pkg/container"
	"github.com/ssargent/tagfile/pkg/metrics"
	"github.com/ssargent/tagfile/pkg/observability"
)

const (
	// annotationNoContainer marks commands that run without opening the file
	annotationNoContainer = "tagfile/no-container"
	// annotationMetrics marks commands whose container reports to Prometheus
	annotationMetrics = "tagfile/metrics"
)

// app is the per-invocation state shared with subcommands through the
// command context
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
	metrics    *metrics.Metrics
	container  *container.Container
}

type appKey struct{}

func appFrom(cmd *cobra.Command) (*app, error) {
	a, ok := cmd.Context().Value(appKey{}).(*app)
	if !ok {
		return nil, errors.New("command state not found in context")
	}
	return a, nil
}

// containerFrom returns the container opened for cmd
func containerFrom(cmd *cobra.Command) (*container.Container, error) {
	a, err := appFrom(cmd)
	if err != nil {
		return nil, err
	}
	if a.container == nil {
		return nil, errors.New("container not opened for this command")
	}
	return a.container, nil
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tagfile",
		Short: "TagFile - tagged record container",
		Long: `TagFile stores named, typed values in a single append-only file.

Every entry carries a type tag that selects the adapter used to encode and
decode its payload. Names are write-once.`,
		SilenceUsage:       true,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
	}

	rootCmd.PersistentFlags().StringP("file", "f", "", "Container file (overrides container.path from config)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default "+config.GetDefaultConfigPath()+")")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newPutCmd(),
		newGetCmd(),
		newExistsCmd(),
		newListCmd(),
		newAdaptersCmd(),
		newStatsCmd(),
		newDeleteCmd(),
		newServeCmd(),
		newExportCmd(),
		newImportCmd(),
		newInitCmd(),
	)
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	explicit := configPath != ""
	if !explicit {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	} else if explicit && cmd.Annotations[annotationNoContainer] == "" {
		return fmt.Errorf("config file does not exist: %s", configPath)
	}

	if file, _ := cmd.Flags().GetString("file"); file != "" {
		cfg.Container.Path = file
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	logger, err := observability.SetupLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	a := &app{configPath: configPath, cfg: cfg, logger: logger}
	if cmd.Annotations[annotationMetrics] != "" {
		a.metrics = metrics.NewMetrics(nil)
	}

	if cmd.Annotations[annotationNoContainer] == "" {
		c, err := container.Open(container.Config{
			Path:        cfg.Container.Path,
			ContentFile: cfg.Container.ContentFile,
			Registry:    adapter.NewDefaultRegistry(),
			Logger:      logger,
			Metrics:     a.metrics,
		})
		if err != nil {
			return fmt.Errorf("failed to open container: %w", err)
		}
		a.container = c
	}

	cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	a, err := appFrom(cmd)
	if err != nil {
		return nil
	}
	if a.container != nil {
		_ = a.container.Close()
	}
	_ = a.logger.Sync()
	return nil
}
