package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/azhengyongqin/forkhub/internal/logger"
)

func newAmazonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "amazon <delay>",
		Short: "Wait delay-1 seconds, then run the book, music and games routines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			delay, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid delay %q: %w", args[0], err)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(runCtx, cfg, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			failed, err := a.dispatcher.Amazon(runCtx, delay)
			if err != nil {
				return err
			}
			logger.L.Info().Int("failed", failed).Msg("Amazon 后处理完成")
			return nil
		},
	}
}
