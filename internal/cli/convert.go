package cli

import (
	"context"
	"fmt"

	"github.com/artpar/cookiefile/internal/codec"
	"github.com/artpar/cookiefile/internal/filestore"
	"github.com/spf13/cobra"
)

// NewConvertCommand creates the convert command.
func NewConvertCommand(global *GlobalOptions) *cobra.Command {
	var to, out string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a cookie file to the other format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := codec.ParseFormat(to)
			if err != nil {
				return err
			}
			if target == codec.FormatAuto {
				return fmt.Errorf("--to must name a concrete format (json or netscape)")
			}
			if out == "" {
				return fmt.Errorf("--out is required")
			}

			src, err := openStore(global)
			if err != nil {
				return err
			}
			defer src.Close()

			ctx := context.Background()
			all, err := src.GetAllCookies(ctx)
			if err != nil {
				return err
			}

			dst, err := filestore.New(out, filestore.WithFormat(target))
			if err != nil {
				return err
			}
			defer dst.Close()

			for _, c := range all {
				if err := dst.PutCookie(ctx, c.Clone()); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d cookies to %s (%s)\n", len(all), out, target)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Target format (json or netscape)")
	cmd.Flags().StringVar(&out, "out", "", "Output file path")
	return cmd
}
