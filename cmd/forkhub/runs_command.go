package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/azhengyongqin/forkhub/internal/config"
	"github.com/azhengyongqin/forkhub/internal/model"
	"github.com/azhengyongqin/forkhub/internal/repository"
	"github.com/azhengyongqin/forkhub/internal/storage/postgres"
	"github.com/azhengyongqin/forkhub/sdk"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var (
		server   string
		workType string
		status   string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent dispatch history",
		Long: "Show recent dispatch history from the PostgreSQL run table, or from a\n" +
			"running control plane when --server is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if workType != "" {
				wt, err := model.ParseWorkType(workType)
				if err != nil {
					return err
				}
				workType = string(wt)
			}
			filter := sdk.RunFilter{WorkType: workType, Status: status, Limit: limit}

			var runs []sdk.Run
			var total int64
			var err error
			if server != "" {
				c := sdk.NewClient(server).WithToken(os.Getenv("FORKHUB_TOKEN"))
				runs, total, err = c.Runs(cmd.Context(), filter)
			} else {
				var cfg *config.Config
				if cfg, err = ctx.ensureConfig(); err != nil {
					return err
				}
				runs, total, err = localRuns(cmd.Context(), cfg, filter)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), runsTable(runs))
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d runs\n", len(runs), total)
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Control plane base URL (token read from FORKHUB_TOKEN)")
	cmd.Flags().StringVar(&workType, "work-type", "", "Only this stage")
	cmd.Flags().StringVar(&status, "status", "", "Only this status (success, empty, skipped, fail)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows")
	return cmd
}

func localRuns(ctx context.Context, cfg *config.Config, f sdk.RunFilter) ([]sdk.Run, int64, error) {
	if cfg.Database.Driver != "postgres" {
		return nil, 0, errors.New("run history is only recorded with DB_DRIVER=postgres")
	}
	pool, err := postgres.NewPool(ctx, cfg.Database.PostgresDSN, postgres.PoolConfig{MaxConns: 2})
	if err != nil {
		return nil, 0, err
	}
	defer pool.Close()
	db, err := postgres.NewDB(pool)
	if err != nil {
		return nil, 0, err
	}
	defer db.Close()

	repo := repository.NewRunRepo(db.DB)
	filter := repository.ListRunsFilter{WorkType: f.WorkType, Status: f.Status, Limit: f.Limit, Offset: f.Offset}
	items, err := repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]sdk.Run, 0, len(items))
	for _, r := range items {
		out = append(out, sdk.Run{
			RunID:       r.RunID,
			WorkType:    r.WorkType,
			Options:     r.Options,
			Status:      r.Status,
			Items:       r.Items,
			Concurrency: r.Concurrency,
			Failed:      r.Failed,
			Flags:       r.Flags,
			Direct:      r.Direct,
			Error:       r.Error,
			StartedAt:   r.StartedAt,
			DurationMs:  r.DurationMs,
		})
	}
	return out, total, nil
}

func runsTable(runs []sdk.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.WorkType,
			dash(strings.Join(r.Options, " ")),
			r.Status,
			fmt.Sprint(r.Items),
			fmt.Sprint(r.Concurrency),
			fmt.Sprint(r.Failed),
			(time.Duration(r.DurationMs) * time.Millisecond).String(),
			dash(r.Error),
		})
	}
	return renderTable(
		[]string{"Started", "Stage", "Options", "Status", "Items", "Concurrency", "Failed", "Duration", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
}
