package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/artpar/cookiefile/internal/cookies"
	"github.com/spf13/cobra"
)

// SetOptions holds options for the set command.
type SetOptions struct {
	Secure   bool
	HTTPOnly bool
	HostOnly bool
	Expires  string
}

// NewSetCommand creates the set command.
func NewSetCommand(global *GlobalOptions) *cobra.Command {
	opts := &SetOptions{}

	cmd := &cobra.Command{
		Use:   "set DOMAIN PATH NAME VALUE",
		Short: "Add or update a cookie",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(global)
			if err != nil {
				return err
			}
			defer store.Close()

			c := &cookies.Cookie{
				Domain:   cookies.CanonicalDomain(args[0]),
				Path:     args[1],
				Name:     args[2],
				Value:    args[3],
				Secure:   opts.Secure,
				HttpOnly: opts.HTTPOnly,
				HostOnly: opts.HostOnly,
				Creation: time.Now(),
			}
			if opts.Expires != "" {
				expires, err := time.Parse(time.RFC3339, opts.Expires)
				if err != nil {
					return fmt.Errorf("bad --expires value: %w", err)
				}
				c.Expires = expires
			}

			return store.PutCookie(context.Background(), c)
		},
	}

	cmd.Flags().BoolVar(&opts.Secure, "secure", false, "Mark the cookie secure")
	cmd.Flags().BoolVar(&opts.HTTPOnly, "http-only", false, "Mark the cookie HTTP-only")
	cmd.Flags().BoolVar(&opts.HostOnly, "host-only", false, "Mark the cookie host-only")
	cmd.Flags().StringVar(&opts.Expires, "expires", "", "Expiry time (RFC 3339); empty means session cookie")

	return cmd
}
