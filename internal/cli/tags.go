package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vbonduro/glassinv/internal/service"
)

type TagsOptions struct {
	*RootOptions
	Prefix string
	Usage  bool
	Limit  int
}

type tagUsage struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

func NewTagsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TagsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List item tags",
		Long: `List the tags attached to catalog items.

With --usage each tag is shown with the number of items carrying it,
most used first.

Examples:
  glassinv tags --prefix tr
  glassinv tags --usage --limit 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTags(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "only tags starting with this prefix")
	cmd.Flags().BoolVar(&opts.Usage, "usage", false, "show usage counts")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "with --usage, show at most this many tags (0 for all)")
	return cmd
}

func runTags(opts *TagsOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	set, err := opts.openRepository(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = set.Close() }()

	svc := service.NewTagService(set.Tags, opts.logger(cmd))
	out := opts.formatter(cmd)

	if !opts.Usage {
		tags, err := svc.TagNames(ctx, opts.Prefix)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to list tags", err)
		}
		if tags == nil {
			tags = []string{}
		}
		return out.Success(map[string][]string{"tags": tags}, func(w io.Writer) error {
			for _, tag := range tags {
				if _, err := fmt.Fprintln(w, tag); err != nil {
					return err
				}
			}
			return nil
		})
	}

	counts, err := svc.Usage(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to count tags", err)
	}
	usage := make([]tagUsage, 0, len(counts))
	width := 0
	for _, c := range counts {
		usage = append(usage, tagUsage{Tag: c.Tag, Count: c.Count})
		width = max(width, len(c.Tag))
	}

	return out.Success(map[string][]tagUsage{"usage": usage}, func(w io.Writer) error {
		for _, u := range usage {
			if _, err := fmt.Fprintf(w, "%-*s  %d\n", width, u.Tag, u.Count); err != nil {
				return err
			}
		}
		return nil
	})
}
