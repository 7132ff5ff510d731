package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/artpar/cookiefile/internal/cookies"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand(global *GlobalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all cookies in the file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(global)
			if err != nil {
				return err
			}
			defer store.Close()

			all, err := store.GetAllCookies(context.Background())
			if err != nil {
				return err
			}

			if asJSON {
				return outputJSON(cmd, all)
			}
			return outputTable(cmd, all)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func outputJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func outputTable(cmd *cobra.Command, all []*cookies.Cookie) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DOMAIN\tPATH\tNAME\tVALUE\tEXPIRES")
	for _, c := range all {
		expires := "session"
		if !c.Expires.IsZero() {
			expires = c.Expires.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.Domain, c.Path, c.Name, c.Value, expires)
	}
	return w.Flush()
}
