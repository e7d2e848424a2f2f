package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/azhengyongqin/forkhub/internal/dispatch"
	"github.com/azhengyongqin/forkhub/internal/model"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var syncRun bool

	cmd := &cobra.Command{
		Use:   "run <work_type> [options...]",
		Short: "Run one dispatch of a pipeline stage",
		Long: "Run one dispatch of a pipeline stage. For backfill, the first option names a\n" +
			"column (or a number) projected as the per-group max.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wt, err := model.ParseWorkType(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(runCtx, cfg, appOptions{sync: syncRun})
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.dispatcher.Dispatch(runCtx, wt, args[1:])
			if res != nil {
				fmt.Fprintln(cmd.OutOrStdout(), summarize(res))
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&syncRun, "sync", false, "Run work items one at a time in this process")
	return cmd
}

func summarize(res *dispatch.Result) string {
	return renderTable(
		[]string{"Run", "Stage", "Status", "Items", "Concurrency", "Failed", "Flags", "Duration"},
		[][]string{{
			res.RunID,
			string(res.WorkType),
			string(res.Status),
			fmt.Sprint(res.Items),
			fmt.Sprint(res.Concurrency),
			fmt.Sprint(res.Failed),
			res.Flags.String(),
			res.Duration.Round(time.Millisecond).String(),
		}},
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignRight},
	)
}
