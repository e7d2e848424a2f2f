package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// FileLocker 基于 flock 的单机锁，每个锁对应 dir 下的一个文件
type FileLocker struct {
	dir string
}

// NewFileLocker 创建文件锁
func NewFileLocker(dir string) *FileLocker {
	if dir == "" {
		dir = os.TempDir()
	}
	return &FileLocker{dir: dir}
}

// Path 返回锁文件路径
func (l *FileLocker) Path(name string) string {
	return filepath.Join(l.dir, strings.ReplaceAll(name, ":", "_")+".lock")
}

// Acquire 非阻塞加锁
func (l *FileLocker) Acquire(_ context.Context, name string) (Lease, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	fl := flock.New(l.Path(name))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &fileLease{fl: fl}, nil
}

// Close 文件锁没有常驻资源
func (l *FileLocker) Close() error { return nil }

type fileLease struct {
	fl *flock.Flock
}

func (l *fileLease) Release(context.Context) error {
	return l.fl.Unlock()
}
