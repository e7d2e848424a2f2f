// Package pool 提供有界并发的 worker 池。
//
// 每个 worker 在独立的 goroutine 中顺序处理分到的一批工作项，
// 实际工作由 worker 函数派生的外部进程完成；worker 超过最长运行时间时
// 其 context 被取消，外部进程随之被终止，该 worker 计为失败。
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/azhengyongqin/forkhub/internal/logger"
)

// WorkerFunc 处理一批工作项，label 为注册时的名称
type WorkerFunc[T any] func(ctx context.Context, batch []T, label string) error

// ExitFunc worker 结束回调，err 为 nil 表示正常退出
type ExitFunc func(workerID int, label string, err error)

// ErrNoWorker 未注册 worker 函数
var ErrNoWorker = errors.New("no worker function registered")

// ErrChildTimeout worker 超过最长运行时间
var ErrChildTimeout = errors.New("worker exceeded max run time")

// Stats 一次 Run 的统计
type Stats struct {
	Workers  int
	Failed   int
	TimedOut int
}

// Engine 进程池能力接口
type Engine[T any] interface {
	SetMaxConcurrency(n int)
	MaxConcurrency() int
	Register(label string, fn WorkerFunc[T])
	Submit(items ...T)
	Run(ctx context.Context, blocking bool) error
	Wait() Stats
	OnWorkerExit(fn ExitFunc)
}

// Config 进程池默认配置
type Config struct {
	MaxConcurrency  int
	MaxWorkPerChild int
	ChildMaxRunTime time.Duration
}

// DefaultConfig 与 fork 守护进程的默认值一致
func DefaultConfig() Config {
	return Config{
		MaxConcurrency:  3,
		MaxWorkPerChild: 1,
		ChildMaxRunTime: 600 * time.Second,
	}
}

// ProcessPool 并发执行的 worker 池
type ProcessPool[T any] struct {
	mu              sync.Mutex
	maxConcurrency  int
	maxWorkPerChild int
	childMaxRunTime time.Duration

	label  string
	fn     WorkerFunc[T]
	onExit ExitFunc
	queue  []T

	nextID int
	wg     sync.WaitGroup
	stats  Stats
}

// New 创建进程池，非正数配置项取默认值
func New[T any](cfg Config) *ProcessPool[T] {
	def := DefaultConfig()
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = def.MaxConcurrency
	}
	if cfg.MaxWorkPerChild <= 0 {
		cfg.MaxWorkPerChild = def.MaxWorkPerChild
	}
	if cfg.ChildMaxRunTime <= 0 {
		cfg.ChildMaxRunTime = def.ChildMaxRunTime
	}
	return &ProcessPool[T]{
		maxConcurrency:  cfg.MaxConcurrency,
		maxWorkPerChild: cfg.MaxWorkPerChild,
		childMaxRunTime: cfg.ChildMaxRunTime,
	}
}

// SetMaxConcurrency 调整最大并发 worker 数，非正数忽略
func (p *ProcessPool[T]) SetMaxConcurrency(n int) {
	if n <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.maxConcurrency = n
}

// MaxConcurrency 当前最大并发 worker 数
func (p *ProcessPool[T]) MaxConcurrency() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxConcurrency
}

// Register 注册 worker 函数
func (p *ProcessPool[T]) Register(label string, fn WorkerFunc[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.label = label
	p.fn = fn
}

// OnWorkerExit 注册 worker 结束回调
func (p *ProcessPool[T]) OnWorkerExit(fn ExitFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onExit = fn
}

// Submit 追加工作项
func (p *ProcessPool[T]) Submit(items ...T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = append(p.queue, items...)
}

// Run 按批次启动 worker；blocking 为 true 时等待全部 worker 结束
func (p *ProcessPool[T]) Run(ctx context.Context, blocking bool) error {
	p.mu.Lock()
	if p.fn == nil {
		p.mu.Unlock()
		return ErrNoWorker
	}
	fn, label, onExit := p.fn, p.label, p.onExit
	batches := chunk(p.queue, p.maxWorkPerChild)
	p.queue = nil
	limit := p.maxConcurrency
	timeout := p.childMaxRunTime
	p.stats = Stats{}
	p.mu.Unlock()

	sem := make(chan struct{}, limit)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for _, batch := range batches {
			select {
			case <-ctx.Done():
				logger.L.Warn().Str("label", label).Msg("进程池被取消，剩余批次不再启动")
				return
			case sem <- struct{}{}:
			}

			p.mu.Lock()
			p.nextID++
			id := p.nextID
			p.stats.Workers++
			p.mu.Unlock()

			p.wg.Add(1)
			go func(id int, batch []T) {
				defer p.wg.Done()
				defer func() { <-sem }()
				err := p.runChild(ctx, id, label, batch, fn, timeout)
				if onExit != nil {
					onExit(id, label, err)
				}
			}(id, batch)
		}
	}()

	if blocking {
		p.wg.Wait()
	}
	return nil
}

// Wait 等待所有 worker 结束并返回统计
func (p *ProcessPool[T]) Wait() Stats {
	p.wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *ProcessPool[T]) runChild(ctx context.Context, id int, label string, batch []T, fn WorkerFunc[T], timeout time.Duration) (err error) {
	childCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic: %v", r)
		}
		if err == nil && errors.Is(childCtx.Err(), context.DeadlineExceeded) {
			err = ErrChildTimeout
		}
		if err != nil {
			p.mu.Lock()
			p.stats.Failed++
			if errors.Is(err, ErrChildTimeout) || errors.Is(err, context.DeadlineExceeded) {
				p.stats.TimedOut++
			}
			p.mu.Unlock()
		}
	}()

	logger.L.Debug().Int("worker_id", id).Str("label", label).Int("items", len(batch)).Msg("worker 启动")
	return fn(childCtx, batch, label)
}

func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = 1
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}
