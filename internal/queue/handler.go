package asynqx

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/azhengyongqin/forkhub/internal/dispatch"
	"github.com/azhengyongqin/forkhub/internal/logger"
	"github.com/azhengyongqin/forkhub/internal/model"
)

// Dispatcher 执行一次调度
type Dispatcher interface {
	Dispatch(ctx context.Context, wt model.WorkType, options []string) (*dispatch.Result, error)
}

// Handler 处理 dispatch:run 任务
type Handler struct {
	d Dispatcher
}

func NewHandler(d Dispatcher) *Handler {
	return &Handler{d: d}
}

// ProcessTask 实现 asynq.Handler；错误一律不重试
func (h *Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	p, wt, err := ParseDispatchPayload(t.Payload())
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	taskID, _ := asynq.GetTaskID(ctx)
	res, err := h.d.Dispatch(ctx, wt, p.Options)
	if err != nil {
		log := logger.WithWorkType(string(wt))
		log.Error().Err(err).Str("task_id", taskID).Msg("调度任务失败")
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	if w := t.ResultWriter(); w != nil {
		if _, werr := w.Write([]byte(res.RunID)); werr != nil && !errors.Is(werr, context.Canceled) {
			logger.L.Debug().Err(werr).Msg("写入任务结果失败")
		}
	}
	return nil
}

// NewServeMux 注册调度任务处理器
func NewServeMux(h *Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeDispatch, h)
	return mux
}

// NewServer 创建任务消费服务；同一阶段的并发由调度锁控制
func NewServer(redisURI string, concurrency int) (*asynq.Server, error) {
	opt, err := NewRedisConnOpt(redisURI)
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = len(model.AllWorkTypes())
	}
	return asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      QueuePriorities(),
		Logger:      asynqLogger{},
	}), nil
}
