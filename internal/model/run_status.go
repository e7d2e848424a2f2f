package model

// RunStatus 一次调度调用的结果状态（用于运行记录/API 筛选）。
// 约定：
// - running: 调度中（进程池尚未结束）
// - success: 调度完成（worker 个别失败不影响该状态）
// - empty: 闸门为假或枚举为空，未启动进程池
// - skipped: 同类型调度正在进行（锁被占用）
// - fail: 查询失败，本次调度中止
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusEmpty   RunStatus = "empty"
	RunStatusSkipped RunStatus = "skipped"
	RunStatusFail    RunStatus = "fail"
)

func (s RunStatus) Valid() bool {
	switch s {
	case RunStatusRunning, RunStatusSuccess, RunStatusEmpty, RunStatusSkipped, RunStatusFail:
		return true
	default:
		return false
	}
}
