package cli

import (
	"time"

	"github.com/alexanderramin/taktplan/internal/cli/formatter"
	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/spf13/cobra"
)

func newReportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Read-only progress reports",
	}

	cmd.AddCommand(
		newReportStatsCmd(app),
		newReportCurveCmd(app),
		newReportTimelineCmd(app),
	)

	return cmd
}

func newReportStatsCmd(app *App) *cobra.Command {
	var project string
	var filter filterFlags
	var asOf *time.Time

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Task counts by status and trade",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, project)
			if err != nil {
				return err
			}
			stats, err := app.Reports.Stats(ctx, p.ID, filter.task(), dateOrZero(asOf))
			if err != nil {
				return err
			}
			return render(cmd, app, stats, func() string {
				return formatter.FormatStats(stats) + "\n"
			})
		},
	}

	addProjectFlag(cmd, &project)
	filter.bind(cmd.Flags())
	cmd.Flags().Var(newDateValue(&asOf), "as-of", "Reference date for delays (default today)")
	return cmd
}

func newReportCurveCmd(app *App) *cobra.Command {
	var project string
	var filter filterFlags

	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Planned starts against actual completions per calendar week",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, project)
			if err != nil {
				return err
			}
			curve, err := app.Reports.Curve(ctx, p.ID, filter.task())
			if err != nil {
				return err
			}
			return render(cmd, app, curve, func() string {
				return formatter.FormatCurve(curve)
			})
		},
	}

	addProjectFlag(cmd, &project)
	filter.bind(cmd.Flags())
	return cmd
}

func newReportTimelineCmd(app *App) *cobra.Command {
	var project, by string
	var filter filterFlags
	var asOf *time.Time

	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Activity ranges per section, stairwell or level",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kind, err := domain.ParseLocationKind(by)
			if err != nil {
				return err
			}
			p, err := resolveProject(ctx, app, project)
			if err != nil {
				return err
			}
			timeline, err := app.Reports.Timeline(ctx, p.ID, kind, filter.task(), dateOrZero(asOf))
			if err != nil {
				return err
			}
			return render(cmd, app, timeline, func() string {
				return formatter.FormatTimeline(timeline)
			})
		},
	}

	addProjectFlag(cmd, &project)
	filter.bind(cmd.Flags())
	cmd.Flags().StringVar(&by, "by", string(domain.KindLevel), "Grouping: section, stairwell or level")
	cmd.Flags().Var(newDateValue(&asOf), "as-of", "Reference date for delays (default today)")
	return cmd
}

func dateOrZero(d *time.Time) time.Time {
	if d == nil {
		return time.Time{}
	}
	return *d
}
