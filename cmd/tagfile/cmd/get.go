package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/tagfile/pkg/adapter"
)

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Print the value stored under a name",
		Long: `Scan the container for a name and print its value.

Examples:
  tagfile get greeting
  tagfile get logo --out ./restored`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir, _ := cmd.Flags().GetString("out")
			showTag, _ := cmd.Flags().GetBool("show-tag")

			c, err := containerFrom(cmd)
			if err != nil {
				return err
			}

			entry, err := c.ReadEntry(args[0])
			if err != nil {
				return err
			}

			if f, ok := entry.Value.(adapter.File); ok && outDir != "" {
				path, err := f.Save(outDir)
				if err != nil {
					return err
				}
				cmd.Printf("Wrote %s\n", path)
				return nil
			}

			a, _ := c.Adapter(entry.Tag)
			if showTag {
				cmd.Printf("%s: ", entry.Tag)
			}
			cmd.Println(adapter.Format(a, entry.Value))
			return nil
		},
	}

	cmd.Flags().String("out", "", "Directory to write file values into")
	cmd.Flags().Bool("show-tag", false, "Prefix the value with its tag")
	return cmd
}
