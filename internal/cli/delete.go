package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(global *GlobalOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "delete [DOMAIN [PATH [NAME]]]",
		Short: "Delete cookies",
		Long:  "Delete one cookie, a path, a whole domain, or (with --all) everything.",
		Args:  cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(global)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := context.Background()
			switch {
			case all:
				return store.RemoveAllCookies(ctx)
			case len(args) == 3:
				return store.RemoveCookie(ctx, args[0], args[1], args[2])
			case len(args) == 2:
				return store.RemoveCookies(ctx, args[0], args[1])
			case len(args) == 1:
				return store.RemoveCookies(ctx, args[0], "")
			default:
				return cmd.Usage()
			}
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Delete every cookie in the file")
	return cmd
}
