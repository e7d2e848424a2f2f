package pool

import (
	"context"
	"fmt"
)

// Sync 在当前 goroutine 中顺序执行的进程池，测试与 --sync 调试模式使用。
type Sync[T any] struct {
	maxConcurrency int
	label          string
	fn             WorkerFunc[T]
	onExit         ExitFunc
	queue          []T
	stats          Stats
}

// NewSync 创建同步执行器
func NewSync[T any](defaultConcurrency int) *Sync[T] {
	if defaultConcurrency <= 0 {
		defaultConcurrency = DefaultConfig().MaxConcurrency
	}
	return &Sync[T]{maxConcurrency: defaultConcurrency}
}

func (s *Sync[T]) SetMaxConcurrency(n int) {
	if n > 0 {
		s.maxConcurrency = n
	}
}

func (s *Sync[T]) MaxConcurrency() int { return s.maxConcurrency }

func (s *Sync[T]) Register(label string, fn WorkerFunc[T]) {
	s.label = label
	s.fn = fn
}

func (s *Sync[T]) OnWorkerExit(fn ExitFunc) { s.onExit = fn }

func (s *Sync[T]) Submit(items ...T) { s.queue = append(s.queue, items...) }

// Run 每个工作项作为一个 worker 顺序执行，blocking 参数被忽略
func (s *Sync[T]) Run(ctx context.Context, _ bool) error {
	if s.fn == nil {
		return ErrNoWorker
	}
	items := s.queue
	s.queue = nil
	s.stats = Stats{}
	for i, item := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.stats.Workers++
		err := s.call(ctx, item)
		if err != nil {
			s.stats.Failed++
		}
		if s.onExit != nil {
			s.onExit(i+1, s.label, err)
		}
	}
	return nil
}

func (s *Sync[T]) call(ctx context.Context, item T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()
	return s.fn(ctx, []T{item}, s.label)
}

func (s *Sync[T]) Wait() Stats { return s.stats }
