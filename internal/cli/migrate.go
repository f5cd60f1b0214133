package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vbonduro/glassinv/internal/legacy"
)

type migrateResult struct {
	AlreadyComplete bool     `json:"already_complete"`
	StepsRun        []string `json:"steps_run"`
	RecordsMigrated int      `json:"records_migrated"`
	ChildrenCreated int      `json:"children_created"`
	CorruptSkipped  int      `json:"corrupt_skipped"`
}

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Convert legacy serialized columns into child rows",
		Long: `Run the one-time legacy migration.

Tags, techniques, glass items and reference URLs stored as serialized
arrays on project plans and logs are copied into their own tables.
Completed steps are remembered, so running the command again is safe.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(rootOpts, cmd)
		},
	}
}

func runMigrate(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	set, err := opts.openRepository(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = set.Close() }()

	m := legacy.NewMigrator(set.ProjectPlans, set.ProjectLogs, set.Settings, opts.logger(cmd))
	report, err := m.Run(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "legacy migration failed", err)
	}

	res := migrateResult{
		AlreadyComplete: report.AlreadyComplete,
		StepsRun:        report.StepsRun,
		RecordsMigrated: report.RecordsMigrated,
		ChildrenCreated: report.ChildrenCreated,
		CorruptSkipped:  report.CorruptSkipped,
	}
	if res.StepsRun == nil {
		res.StepsRun = []string{}
	}

	return opts.formatter(cmd).Success(res, func(w io.Writer) error {
		if res.AlreadyComplete {
			_, err := fmt.Fprintln(w, "legacy migration already complete")
			return err
		}
		_, err := fmt.Fprintf(w,
			"legacy migration complete\nsteps run:        %d\nrecords migrated: %d\nchildren created: %d\ncorrupt skipped:  %d\n",
			len(res.StepsRun), res.RecordsMigrated, res.ChildrenCreated, res.CorruptSkipped)
		return err
	})
}
