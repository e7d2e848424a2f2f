// Package lock 保证同一阶段同一时刻只有一个调度在运行。
package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrLocked 锁已被其他调度持有
var ErrLocked = errors.New("dispatch already running")

// Lease 已持有的锁
type Lease interface {
	Release(ctx context.Context) error
}

// Locker 获取排他锁；锁被占用时返回 ErrLocked
type Locker interface {
	Acquire(ctx context.Context, name string) (Lease, error)
	// Close 释放后端连接，不影响已持有的锁
	Close() error
}

// Key 生成锁名
func Key(parts ...string) string {
	return "forkhub:lock:" + strings.Join(parts, ":")
}

// New 按后端名称创建锁
func New(backend, dir, redisURL string, ttl time.Duration) (Locker, error) {
	switch backend {
	case "", "none":
		return Noop{}, nil
	case "file":
		return NewFileLocker(dir), nil
	case "redis":
		l, err := NewRedisLocker(redisURL, ttl)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unsupported lock backend %q", backend)
	}
}

// Noop 不加锁
type Noop struct{}

func (Noop) Acquire(context.Context, string) (Lease, error) { return noopLease{}, nil }

func (Noop) Close() error { return nil }

type noopLease struct{}

func (noopLease) Release(context.Context) error { return nil }
