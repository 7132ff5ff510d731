package cli

import (
	"fmt"

	"github.com/artpar/cookiefile/internal/codec"
	"github.com/artpar/cookiefile/internal/filestore"
	"github.com/spf13/cobra"
)

// GlobalOptions holds flags shared by every subcommand.
type GlobalOptions struct {
	File       string
	Format     string
	ForceParse bool
	ConfigPath string
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	opts := &GlobalOptions{}

	cmd := &cobra.Command{
		Use:     "cookiefile",
		Short:   "Cookiefile - inspect and edit cookie files",
		Long:    "Cookiefile reads and writes HTTP cookie files in the JSON and Netscape formats.",
		Version: version,
	}

	cmd.PersistentFlags().StringVarP(&opts.File, "file", "f", "", "Cookie file path")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "", "Cookie file format (auto, json, netscape)")
	cmd.PersistentFlags().BoolVar(&opts.ForceParse, "force-parse", false, "Tolerate malformed lines in netscape files")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", DefaultConfigPath(), "Config file path")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewConvertCommand(opts))

	return cmd
}

// openStore resolves flag/config precedence and opens the cookie file.
func openStore(opts *GlobalOptions) (*filestore.Store, error) {
	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	file := opts.File
	if file == "" {
		file = cfg.File
	}
	if file == "" {
		return nil, fmt.Errorf("no cookie file given (use --file or set one in the config)")
	}

	formatName := opts.Format
	if formatName == "" {
		formatName = cfg.Format
	}
	format, err := codec.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}

	storeOpts := []filestore.Option{
		filestore.WithFormat(format),
		filestore.WithHTTPOnlyExtension(cfg.HTTPOnly),
	}
	if opts.ForceParse || cfg.ForceParse {
		storeOpts = append(storeOpts, filestore.WithForceParse())
	}

	return filestore.New(file, storeOpts...)
}
