package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newExistsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <name>",
		Short: "Report whether a name is in the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := containerFrom(cmd)
			if err != nil {
				return err
			}
			cmd.Println(c.Exists(args[0]))
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List indexed names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := containerFrom(cmd)
			if err != nil {
				return err
			}
			for _, name := range c.Names() {
				cmd.Println(name)
			}
			return nil
		},
	}
}

func newAdaptersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adapters",
		Short: "List registered adapter tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := containerFrom(cmd)
			if err != nil {
				return err
			}
			for _, tag := range c.AdapterTags() {
				cmd.Println(tag)
			}
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show container statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			c, err := containerFrom(cmd)
			if err != nil {
				return err
			}
			stats, err := c.Stats()
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.Marshal(stats)
				if err != nil {
					return fmt.Errorf("failed to encode stats: %w", err)
				}
				cmd.Println(string(data))
				return nil
			}

			cmd.Printf("File:    %s\n", c.Path())
			cmd.Printf("Entries: %d\n", stats.Entries)
			cmd.Printf("Size:    %d bytes\n", stats.Size)
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "Print stats as JSON")
	return cmd
}
