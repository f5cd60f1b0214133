package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type LocationsOptions struct {
	*RootOptions
	Prefix string
}

func NewLocationsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LocationsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "locations",
		Short: "List storage location names",
		Long: `List the distinct storage location names in use.

Examples:
  glassinv locations
  glassinv locations --prefix shelf
  glassinv locations --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocations(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "only names starting with this prefix (case-insensitive)")
	return cmd
}

func runLocations(opts *LocationsOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	set, err := opts.openRepository(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = set.Close() }()

	names, err := set.Locations.LocationNames(ctx, opts.Prefix)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list locations", err)
	}
	if names == nil {
		names = []string{}
	}

	return opts.formatter(cmd).Success(map[string][]string{"locations": names}, func(w io.Writer) error {
		for _, name := range names {
			if _, err := fmt.Fprintln(w, name); err != nil {
				return err
			}
		}
		return nil
	})
}
