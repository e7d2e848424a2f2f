package model

import (
	"errors"
	"fmt"
	"strings"
)

// WorkType 流水线阶段枚举，取值与命令行/任务 payload 中的名称一致。
type WorkType string

const (
	WorkTypeBackfill                WorkType = "backfill"
	WorkTypeBinaries                WorkType = "binaries"
	WorkTypeReleases                WorkType = "releases"
	WorkTypePostProcessAmazonSingle WorkType = "postProcess_ama"
	WorkTypePostProcessAdditional   WorkType = "postProcess_add"
	WorkTypePostProcessMovies       WorkType = "postProcess_mov"
	WorkTypePostProcessNfo          WorkType = "postProcess_nfo"
	WorkTypePostProcessSharing      WorkType = "postProcess_sha"
	WorkTypePostProcessTV           WorkType = "postProcess_tv"
)

// ErrUnknownWorkType 未知的阶段名称
var ErrUnknownWorkType = errors.New("unknown work type")

// AllWorkTypes 按固定顺序返回全部阶段
func AllWorkTypes() []WorkType {
	return []WorkType{
		WorkTypeBackfill,
		WorkTypeBinaries,
		WorkTypeReleases,
		WorkTypePostProcessAmazonSingle,
		WorkTypePostProcessAdditional,
		WorkTypePostProcessMovies,
		WorkTypePostProcessNfo,
		WorkTypePostProcessSharing,
		WorkTypePostProcessTV,
	}
}

func (t WorkType) Valid() bool {
	for _, v := range AllWorkTypes() {
		if v == t {
			return true
		}
	}
	return false
}

func (t WorkType) String() string { return string(t) }

// IsPostProcess 是否属于 postProcess_* 家族
func (t WorkType) IsPostProcess() bool {
	return strings.HasPrefix(string(t), "postProcess_")
}

// ParseWorkType 解析阶段名称（大小写不敏感，允许首尾空白）
func ParseWorkType(s string) (WorkType, error) {
	s = strings.TrimSpace(s)
	for _, v := range AllWorkTypes() {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWorkType, s)
}
