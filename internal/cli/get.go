package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewGetCommand creates the get command.
func NewGetCommand(global *GlobalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get DOMAIN PATH NAME",
		Short: "Print a single cookie",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(global)
			if err != nil {
				return err
			}
			defer store.Close()

			c, err := store.FindCookie(context.Background(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			if c == nil {
				return fmt.Errorf("cookie not found: %s %s %s", args[0], args[1], args[2])
			}

			if asJSON {
				return outputJSON(cmd, c)
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.Value)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
