// Package dispatch 选择流水线阶段的工作并分发到有界进程池。
//
// 一次调度：获取阶段锁，打开网关，评估开关并枚举工作项，读取并发度，
// 关闭网关，然后以阻塞方式运行进程池。直接执行的阶段（共享与单线程全量运行）
// 在选择阶段内完成，不启动进程池。
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/azhengyongqin/forkhub/internal/gateway"
	"github.com/azhengyongqin/forkhub/internal/lock"
	"github.com/azhengyongqin/forkhub/internal/logger"
	"github.com/azhengyongqin/forkhub/internal/metrics"
	"github.com/azhengyongqin/forkhub/internal/model"
	"github.com/azhengyongqin/forkhub/internal/pool"
	"github.com/azhengyongqin/forkhub/internal/runner"
)

// Result 一次调度的结果
type Result struct {
	RunID       string          `json:"run_id"`
	WorkType    model.WorkType  `json:"work_type"`
	Options     []string        `json:"options,omitempty"`
	Status      model.RunStatus `json:"status"`
	Items       int             `json:"items"`
	Concurrency int             `json:"concurrency"`
	Flags       StageFlags      `json:"flags"`
	Direct      bool            `json:"direct"`
	Skipped     bool            `json:"skipped"`
	Failed      int             `json:"failed"`
	StartedAt   time.Time       `json:"started_at"`
	Duration    time.Duration   `json:"duration"`
	Error       string          `json:"error,omitempty"`
}

// RunRecorder 保存调度记录
type RunRecorder interface {
	RecordRun(ctx context.Context, res *Result) error
}

// Tracker 跟踪正在运行的调度
type Tracker interface {
	Begin(runID string, wt model.WorkType, options []string)
	End(runID string)
}

// EngineFactory 每次调度创建新的进程池
type EngineFactory func() pool.Engine[gateway.Row]

// Deps 调度器依赖，Locker/Recorder/Tracker 可为空
type Deps struct {
	Opener    gateway.Opener
	Runner    runner.Runner
	Stages    *Stages
	NewEngine EngineFactory
	Locker    lock.Locker
	Recorder  RunRecorder
	Tracker   Tracker
}

// Dispatcher 调度器
type Dispatcher struct {
	opener    gateway.Opener
	runner    runner.Runner
	selector  *Selector
	stages    *Stages
	newEngine EngineFactory
	locker    lock.Locker
	recorder  RunRecorder
	tracker   Tracker
}

// New 创建调度器
func New(d Deps) *Dispatcher {
	locker := d.Locker
	if locker == nil {
		locker = lock.Noop{}
	}
	return &Dispatcher{
		opener:    d.Opener,
		runner:    d.Runner,
		selector:  NewSelector(d.Stages),
		stages:    d.Stages,
		newEngine: d.NewEngine,
		locker:    locker,
		recorder:  d.Recorder,
		tracker:   d.Tracker,
	}
}

// Dispatch 执行一次调度。锁被占用时返回 Skipped 结果且不返回错误；
// 查询失败中止本次调度并返回错误；worker 失败只计入 Failed。
func (d *Dispatcher) Dispatch(ctx context.Context, wt model.WorkType, options []string) (*Result, error) {
	if !wt.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownWorkType, wt)
	}

	res := &Result{
		RunID:     uuid.NewString(),
		WorkType:  wt,
		Options:   options,
		Status:    model.RunStatusRunning,
		StartedAt: time.Now(),
	}
	log := logger.WithRun(res.RunID, string(wt))

	lease, err := d.locker.Acquire(ctx, lock.Key("dispatch", string(wt)))
	if errors.Is(err, lock.ErrLocked) {
		log.Info().Msg("同阶段调度正在运行，跳过")
		res.Skipped = true
		d.finish(ctx, res, nil, log)
		return res, nil
	}
	if err != nil {
		metrics.RecordError("dispatch", "lock")
		err = fmt.Errorf("acquire dispatch lock: %w", err)
		d.finish(ctx, res, err, log)
		return res, err
	}
	defer func() {
		if rerr := lease.Release(context.WithoutCancel(ctx)); rerr != nil {
			log.Warn().Err(rerr).Msg("释放调度锁失败")
		}
	}()

	if d.tracker != nil {
		d.tracker.Begin(res.RunID, wt, options)
		defer d.tracker.End(res.RunID)
	}
	metrics.ActiveDispatches.Inc()
	defer metrics.ActiveDispatches.Dec()

	err = d.dispatch(ctx, res, log)
	d.finish(ctx, res, err, log)
	return res, err
}

func (d *Dispatcher) dispatch(ctx context.Context, res *Result, log zerolog.Logger) error {
	h, err := d.opener.Open(ctx)
	if err != nil {
		metrics.RecordError("dispatch", "gateway")
		return fmt.Errorf("open gateway: %w", err)
	}

	sel, err := d.selector.SelectWork(ctx, h, res.WorkType, res.Options)
	// 进程池运行前归还网关
	if cerr := h.Close(); cerr != nil {
		log.Warn().Err(cerr).Msg("关闭网关失败")
	}
	if err != nil {
		metrics.RecordError("dispatch", "query")
		return fmt.Errorf("select %s: %w", res.WorkType, err)
	}

	res.Flags = sel.Flags
	res.Direct = sel.Direct
	res.Failed = sel.DirectFailed
	if sel.Direct {
		return nil
	}
	if len(sel.Items) == 0 {
		log.Debug().Msg("没有工作项")
		return nil
	}

	worker, err := NewWorker(d.runner, sel.Binding, sel.Flags)
	if err != nil {
		return err
	}

	engine := d.newEngine()
	if sel.Concurrency > 0 {
		engine.SetMaxConcurrency(sel.Concurrency)
	}
	res.Items = len(sel.Items)
	res.Concurrency = engine.MaxConcurrency()

	label := string(res.WorkType)
	engine.Register(label, worker)
	engine.OnWorkerExit(func(workerID int, label string, err error) {
		ev := log.Info()
		if err != nil {
			ev = log.Warn().Err(err)
		}
		ev.Int("worker_id", workerID).Msgf("worker #%d has completed.", workerID)
		metrics.RecordWorkerExit(label, err != nil)
	})
	engine.Submit(sel.Items...)

	log.Info().
		Int("items", res.Items).
		Int("concurrency", res.Concurrency).
		Str("flags", sel.Flags.String()).
		Msg("启动进程池")

	if err := engine.Run(ctx, true); err != nil {
		return fmt.Errorf("run pool: %w", err)
	}
	stats := engine.Wait()
	res.Failed += stats.Failed
	return ctx.Err()
}

func (d *Dispatcher) finish(ctx context.Context, res *Result, err error, log zerolog.Logger) {
	res.Duration = time.Since(res.StartedAt)
	switch {
	case err != nil:
		res.Status = model.RunStatusFail
		res.Error = err.Error()
	case res.Skipped:
		res.Status = model.RunStatusSkipped
	case !res.Direct && res.Items == 0:
		res.Status = model.RunStatusEmpty
	default:
		res.Status = model.RunStatusSuccess
	}

	ev := log.Info()
	if err != nil {
		ev = log.Error().Err(err)
	}
	ev.Int("items", res.Items).
		Int("concurrency", res.Concurrency).
		Int("failed", res.Failed).
		Dur("duration", res.Duration).
		Str("status", string(res.Status)).
		Msgf("Multiprocessing for %s finished in %.2f seconds.", res.WorkType, res.Duration.Seconds())

	metrics.RecordDispatch(string(res.WorkType), string(res.Status), res.Items, res.Concurrency, res.Duration.Seconds())

	if d.recorder != nil {
		if rerr := d.recorder.RecordRun(context.WithoutCancel(ctx), res); rerr != nil {
			log.Warn().Err(rerr).Msg("保存调度记录失败")
		}
	}
}

// Amazon 等待 delay-1 秒后执行 books、music、games，不占用阶段锁
func (d *Dispatcher) Amazon(ctx context.Context, delay int) (int, error) {
	return d.stages.Amazon(ctx, delay)
}
