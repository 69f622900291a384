package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/tagfile/pkg/adapter"
	"github.com/ssargent/tagfile/pkg/container"
)

func newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <name> <tag> <value>",
		Short: "Store a value under a new name",
		Long: `Store a value in the container. The tag picks the adapter that parses
the value text and encodes it.

Arrays are comma separated, bytes are hex and a file value is a path that is
read from disk.

Examples:
  tagfile put greeting string "hello world"
  tagfile put primes int[] 2,3,5,7
  tagfile put logo file ./logo.png`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, tag, text := args[0], args[1], args[2]

			c, err := containerFrom(cmd)
			if err != nil {
				return err
			}

			a, ok := c.Adapter(tag)
			if !ok {
				return &container.AdapterNotRegisteredError{Tag: tag}
			}
			value, err := adapter.Parse(a, text)
			if err != nil {
				return err
			}

			if err := c.Write(value, name, tag); err != nil {
				return err
			}

			cmd.Printf("Stored '%s' (%s)\n", name, tag)
			return nil
		},
	}
}
