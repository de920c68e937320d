package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-pack/pack"
	"github.com/wippyai/wasm-pack/webc"
)

type packOptions struct {
	Output          string
	LegacyFlatPaths bool
	Exclude         []string
}

func (o *packOptions) AddFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&o.Output, "output", "o", "", "Container file to write. Defaults to DIR's name with the .webc extension.")
	flags.BoolVar(&o.LegacyFlatPaths, "legacy-flat-paths", false, "Store volume files as flat entries, like older packers did")
	flags.StringSliceVar(&o.Exclude, "exclude", nil, "Glob of volume files to leave out. May be repeated.")
}

func newPackCmd(a *app) *cobra.Command {
	var opts packOptions

	cmd := &cobra.Command{
		Use:   "pack DIR",
		Short: "Build a .webc container from a directory holding " + pack.DescriptorFile,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if _, err := os.Stat(filepath.Join(dir, pack.DescriptorFile)); err != nil {
				return fmt.Errorf("%s: %w", dir, err)
			}

			out := opts.Output
			if out == "" {
				abs, err := filepath.Abs(dir)
				if err != nil {
					return err
				}
				out = filepath.Base(abs) + webc.Extension
			}

			// Everything is read from disk relative to dir.
			data, err := pack.Pack(pack.Files{}, dir, &pack.TransformHooks{
				FlatVolumePaths: opts.LegacyFlatPaths,
				Exclude:         opts.Exclude,
			})
			if err != nil {
				return fmt.Errorf("pack %s: %w", dir, err)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}

			a.log.Info("container written",
				zap.String("path", out),
				zap.Int("size", len(data)))
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d bytes\t%s\n", out, len(data), digest.FromBytes(data))
			return nil
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}
