package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/azhengyongqin/forkhub/internal/gateway"
	"github.com/azhengyongqin/forkhub/internal/logger"
	"github.com/azhengyongqin/forkhub/internal/pool"
	"github.com/azhengyongqin/forkhub/internal/runner"
)

// 外部处理脚本
const (
	backfillScript    = "backfill.php"
	binariesScript    = "update_binaries.php"
	releasesScript    = "update_releases.php"
	postProcessScript = "postprocess.php"
)

// Commands 返回一个工作项需要执行的命令，按执行顺序排列
func Commands(binding Binding, flags StageFlags, item gateway.Row) []runner.Command {
	switch binding {
	case BindingBackfill:
		args := []string{item.String("name")}
		if item.Has("max") {
			args = append(args, item.String("max"))
		}
		return []runner.Command{{Script: backfillScript, Args: args}}
	case BindingBinaries:
		return []runner.Command{{Script: binariesScript, Args: []string{item.String("name")}}}
	case BindingReleases:
		return []runner.Command{{Script: releasesScript, Args: []string{"1", "false", item.String("name")}}}
	case BindingPostProcess:
		id := item.String("id")
		var cmds []runner.Command
		for _, kw := range flags.Keywords() {
			cmds = append(cmds, runner.Command{Script: postProcessScript, Args: []string{kw, "true", id}})
		}
		return cmds
	}
	return nil
}

// NewWorker 返回绑定的 worker 函数，flags 按值捕获
func NewWorker(r runner.Runner, binding Binding, flags StageFlags) (pool.WorkerFunc[gateway.Row], error) {
	switch binding {
	case BindingBackfill, BindingBinaries, BindingReleases, BindingPostProcess:
	default:
		return nil, fmt.Errorf("no worker for binding %q", binding)
	}

	return func(ctx context.Context, batch []gateway.Row, label string) error {
		var errs []error
		for _, item := range batch {
			for _, cmd := range Commands(binding, flags, item) {
				if ctx.Err() != nil {
					return errors.Join(append(errs, ctx.Err())...)
				}
				if _, err := r.Run(ctx, cmd); err != nil {
					logger.L.Warn().Err(err).Str("work_type", label).Str("command", cmd.String()).Msg("外部脚本执行失败")
					errs = append(errs, err)
				}
			}
		}
		return errors.Join(errs...)
	}, nil
}
