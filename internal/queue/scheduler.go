package asynqx

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/azhengyongqin/forkhub/internal/config"
	"github.com/azhengyongqin/forkhub/internal/logger"
	"github.com/azhengyongqin/forkhub/internal/model"
)

// ScheduleEntry 一个周期调度
type ScheduleEntry struct {
	CronSpec string
	Payload  DispatchPayload
}

// ScheduleEntries 按阶段顺序展开配置中的周期调度
func ScheduleEntries(cfg config.ScheduleConfig) []ScheduleEntry {
	var out []ScheduleEntry
	for _, wt := range model.AllWorkTypes() {
		spec, ok := cfg.Entries[wt]
		if !ok || spec == "" {
			continue
		}
		p := DispatchPayload{WorkType: string(wt)}
		if wt == model.WorkTypeBackfill && cfg.BackfillColumn != "" {
			p.Options = []string{cfg.BackfillColumn}
		}
		out = append(out, ScheduleEntry{CronSpec: spec, Payload: p})
	}
	return out
}

// NewScheduler 创建周期调度器并注册全部条目
func NewScheduler(redisURI string, cfg config.ScheduleConfig) (*asynq.Scheduler, int, error) {
	opt, err := NewRedisConnOpt(redisURI)
	if err != nil {
		return nil, 0, err
	}
	s := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Logger:   asynqLogger{},
		Location: time.Local,
	})

	entries := ScheduleEntries(cfg)
	for _, e := range entries {
		task, err := NewDispatchTask(e.Payload)
		if err != nil {
			return nil, 0, err
		}
		// 同一阶段的周期任务在上一轮未被消费时不重复堆积
		id, err := s.Register(e.CronSpec, task, EnqueueOptions(EnqueueParams{
			Unique:  time.Minute,
			Timeout: cfg.DispatchTimeout,
		})...)
		if err != nil {
			return nil, 0, fmt.Errorf("register schedule %s %q: %w", e.Payload.WorkType, e.CronSpec, err)
		}
		log := logger.WithWorkType(e.Payload.WorkType)
		log.Info().Str("cron", e.CronSpec).Str("entry_id", id).Msg("注册周期调度")
	}
	return s, len(entries), nil
}
