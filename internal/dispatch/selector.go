package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/azhengyongqin/forkhub/internal/gateway"
	"github.com/azhengyongqin/forkhub/internal/logger"
	"github.com/azhengyongqin/forkhub/internal/model"
)

// Selection 一次选择的结果
type Selection struct {
	WorkType    model.WorkType
	Items       []gateway.Row
	Concurrency int // 非正数表示保留进程池默认值
	Binding     Binding
	Flags       StageFlags
	Direct      bool
	// DirectFailed 直接执行阶段中失败的例程数
	DirectFailed int
}

// Selector 按阶段路由表选择工作
type Selector struct {
	stages *Stages
}

// NewSelector 创建选择器，stages 用于直接执行的阶段
func NewSelector(stages *Stages) *Selector {
	return &Selector{stages: stages}
}

// SelectWork 评估开关、枚举工作项并读取并发度。
// 枚举失败返回空工作项，开关探测失败返回错误。
func (s *Selector) SelectWork(ctx context.Context, gw gateway.Gateway, wt model.WorkType, options []string) (*Selection, error) {
	e, ok := registry[wt]
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownWorkType, wt)
	}

	sel := &Selection{WorkType: wt}
	log := logger.WithWorkType(string(wt))

	switch e.direct {
	case directSharing:
		sel.Direct = true
		_, err := s.stages.Sharing(ctx, gw)
		if err != nil {
			if !isRoutineFailure(err) {
				return nil, err
			}
			sel.DirectFailed++
		}
		return sel, nil
	case directSingle:
		sel.Direct = true
		failed, err := s.stages.RunSingle(ctx, gw, false)
		if err != nil {
			return nil, err
		}
		sel.DirectFailed = failed
		return sel, nil
	}

	if e.gate != nil {
		pass, err := e.gate(ctx, gw)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", wt, err)
		}
		if !pass {
			log.Debug().Msg("没有需要处理的 release，跳过")
			return sel, nil
		}
	}

	query, err := e.query(options)
	if err != nil {
		return nil, err
	}

	sel.Binding = e.binding
	if e.flag != nil {
		e.flag(&sel.Flags)
	}

	rows, err := gw.Query(ctx, query)
	if err != nil {
		log.Warn().Err(err).Msg("枚举工作项失败，按空队列处理")
		rows = nil
	}
	sel.Items = rows
	sel.Concurrency = readConcurrency(ctx, gw, e.setting)
	return sel, nil
}

// readConcurrency 读取并发度设置，读取失败或非正整数返回 0
func readConcurrency(ctx context.Context, gw gateway.Gateway, setting string) int {
	if setting == "" {
		return 0
	}
	v, err := gw.GetSetting(ctx, setting)
	if err != nil {
		logger.L.Warn().Err(err).Str("setting", setting).Msg("读取并发度设置失败")
		return 0
	}
	return ParseConcurrency(v)
}

// ParseConcurrency 解析并发度，非正数或无法解析返回 0
func ParseConcurrency(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
