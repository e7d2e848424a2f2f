// Package activity 记录当前进程中正在运行的调度。
package activity

import (
	"sort"
	"sync"
	"time"

	"github.com/azhengyongqin/forkhub/internal/model"
)

// Run 一个正在运行的调度
type Run struct {
	RunID     string         `json:"run_id"`
	WorkType  model.WorkType `json:"work_type"`
	Options   []string       `json:"options,omitempty"`
	StartedAt time.Time      `json:"started_at"`
}

// Store 内存中的活动调度表
type Store struct {
	mu    sync.RWMutex
	items map[string]Run // key: run_id
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		items: map[string]Run{},
		now:   time.Now,
	}
}

// Begin 登记调度开始
func (s *Store) Begin(runID string, wt model.WorkType, options []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[runID] = Run{
		RunID:     runID,
		WorkType:  wt,
		Options:   append([]string(nil), options...),
		StartedAt: s.now(),
	}
}

// End 登记调度结束
func (s *Store) End(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, runID)
}

// List 返回所有活动调度，按开始时间排序
func (s *Store) List() []Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Run, 0, len(s.items))
	for _, v := range s.items {
		out = append(out, v)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].RunID < out[j].RunID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})

	return out
}

// Get 获取指定调度
func (s *Store) Get(runID string) (Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[runID]
	return v, ok
}

// Running 指定阶段是否有调度在运行
func (s *Store) Running(wt model.WorkType) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.items {
		if v.WorkType == wt {
			return true
		}
	}
	return false
}

// Len 活动调度数量
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
