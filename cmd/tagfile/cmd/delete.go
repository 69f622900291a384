package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the whole container file",
		Long: `Delete the container file and every entry in it. Single entries cannot
be removed.

Example:
  tagfile delete -f ./data/store.tagfile --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				return errors.New("refusing to delete the container without --yes")
			}

			c, err := containerFrom(cmd)
			if err != nil {
				return err
			}
			if err := c.Delete(); err != nil {
				return err
			}

			cmd.Printf("Deleted %s\n", c.Path())
			return nil
		},
	}

	cmd.Flags().Bool("yes", false, "Confirm deletion")
	return cmd
}
