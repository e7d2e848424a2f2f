// Command example 通过 SDK 触发一轮完整的流水线：
// binaries → releases → 各后处理阶段，最后打印运行中的调度与最近的历史。
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/azhengyongqin/forkhub/sdk"
)

var pipeline = []string{
	"binaries",
	"releases",
	"postProcess_nfo",
	"postProcess_mov",
	"postProcess_tv",
	"postProcess_add",
	"postProcess_ama",
	"postProcess_sha",
}

func main() {
	_ = godotenv.Load()
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).With().Timestamp().Logger()

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:28080"
	}
	client := sdk.NewClient(baseURL).WithToken(os.Getenv("FORKHUB_TOKEN"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	wts, err := client.WorkTypes(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("获取阶段列表失败")
	}
	log.Info().Int("count", len(wts)).Msg("控制面已连接")

	retry := sdk.DefaultRetryConfig()
	retry.Logger = log

	// 相邻阶段错开入队，前一阶段的产出才能被后一阶段枚举到
	for i, wt := range pipeline {
		resp, err := sdk.DispatchWithRetry(ctx, client, sdk.DispatchRequest{
			WorkType:      wt,
			DelaySeconds:  int32(i * 30),
			UniqueSeconds: 60,
		}, retry)
		if sdk.IsStatus(err, 409) {
			log.Warn().Str("work_type", wt).Msg("同阶段已在队列中")
			continue
		}
		if err != nil {
			log.Fatal().Err(err).Str("work_type", wt).Msg("投递失败")
		}
		log.Info().Str("work_type", wt).Str("task_id", resp.TaskID).Msg("已投递")
	}

	active, err := client.Active(ctx, "")
	if err != nil {
		log.Warn().Err(err).Msg("获取运行中调度失败")
	}
	for _, r := range active {
		fmt.Printf("running  %-16s %s  since %s\n", r.WorkType, r.RunID, r.StartedAt.Format(time.TimeOnly))
	}

	runs, _, err := client.Runs(ctx, sdk.RunFilter{Limit: 10})
	if err != nil {
		// SQLite 模式下没有调度历史
		log.Warn().Err(err).Msg("获取调度历史失败")
		return
	}
	for _, r := range runs {
		fmt.Printf("%-8s %-16s items=%d failed=%d %dms\n", r.Status, r.WorkType, r.Items, r.Failed, r.DurationMs)
	}
}
