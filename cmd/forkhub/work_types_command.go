package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/azhengyongqin/forkhub/internal/dispatch"
)

func newWorkTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "work-types",
		Short: "List pipeline stages and how each one is dispatched",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), workTypesTable(dispatch.Describe()))
			return nil
		},
	}
}

func workTypesTable(infos []dispatch.WorkTypeInfo) string {
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		mode := "pool"
		if info.Direct {
			mode = "direct"
		}
		rows = append(rows, []string{
			string(info.WorkType),
			mode,
			yesNo(info.Gated),
			dash(info.Setting),
			dash(info.Script),
			dash(info.Flag),
		})
	}
	return renderTable(
		[]string{"Stage", "Mode", "Gated", "Concurrency setting", "Script", "Flag"},
		rows,
		nil,
	)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
