package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/azhengyongqin/forkhub/internal/gateway"
	"github.com/azhengyongqin/forkhub/internal/logger"
	"github.com/azhengyongqin/forkhub/internal/nntp"
	"github.com/azhengyongqin/forkhub/internal/runner"
)

// Routine 单线程后处理例程，取值为 postprocess.php 的关键字
type Routine string

const (
	RoutineBooks    Routine = "book"
	RoutineConsoles Routine = "console"
	RoutineGames    Routine = "games"
	RoutineMusic    Routine = "music"
	RoutineAdult    Routine = "xxx"
	RoutineSharing  Routine = "sharing"
)

// SingleRoutines 单线程全量运行的固定顺序
var SingleRoutines = []Routine{RoutineBooks, RoutineConsoles, RoutineGames, RoutineMusic, RoutineAdult}

// AmazonRoutines amazon 触发器的固定顺序
var AmazonRoutines = []Routine{RoutineBooks, RoutineMusic, RoutineGames}

// ErrRoutineFailed 后处理例程执行失败（不中断调度）
var ErrRoutineFailed = errors.New("post-processing routine failed")

// PostProcessor 执行不进入进程池的后处理例程
type PostProcessor interface {
	Process(ctx context.Context, routine Routine) error
	ProcessSharing(ctx context.Context, conn nntp.Conn) error
}

// ScriptPostProcessor 通过 postprocess.php <keyword> false 执行例程
type ScriptPostProcessor struct {
	runner runner.Runner
}

// NewScriptPostProcessor 创建基于脚本的后处理器
func NewScriptPostProcessor(r runner.Runner) *ScriptPostProcessor {
	return &ScriptPostProcessor{runner: r}
}

func (p *ScriptPostProcessor) Process(ctx context.Context, routine Routine) error {
	_, err := p.runner.Run(ctx, runner.Command{Script: postProcessScript, Args: []string{string(routine), "false"}})
	return err
}

// SharingServerEnv 共享例程从该环境变量读取已确认可达的 NNTP 服务器
const SharingServerEnv = "NNTP_SERVER"

// ProcessSharing 以 postprocess.php sharing false 执行共享例程，
// 通过 NNTP_SERVER 告知脚本本次选中的服务器（主服务器或备用服务器）
func (p *ScriptPostProcessor) ProcessSharing(ctx context.Context, conn nntp.Conn) error {
	logger.L.Debug().Str("server", conn.Addr()).Msg("开始共享处理")
	_, err := p.runner.Run(ctx, runner.Command{
		Script: postProcessScript,
		Args:   []string{string(RoutineSharing), "false"},
		Env:    []string{SharingServerEnv + "=" + conn.Addr()},
	})
	return err
}

// Stages 直接执行的阶段
type Stages struct {
	post   PostProcessor
	dialer nntp.Dialer
}

// NewStages 创建直接执行阶段
func NewStages(post PostProcessor, dialer nntp.Dialer) *Stages {
	return &Stages{post: post, dialer: dialer}
}

// Sharing 共享开启时连接 NNTP，连接成功才执行共享例程；返回共享是否开启
func (s *Stages) Sharing(ctx context.Context, gw gateway.Gateway) (bool, error) {
	row, ok, err := gw.QueryOneRow(ctx, `SELECT enabled FROM sharing`)
	if err != nil {
		return false, fmt.Errorf("query sharing: %w", err)
	}
	if !ok {
		return false, nil
	}
	if enabled, _ := row.Int("enabled"); enabled != 1 {
		return false, nil
	}

	alternate, err := settingEnabled(ctx, gw, SettingAlternateNNTP)
	if err != nil {
		logger.L.Warn().Err(err).Msg("读取 alternate_nntp 失败，使用主服务器")
		alternate = false
	}

	conn, err := s.dialer.Dial(ctx, alternate)
	if err != nil {
		logger.L.Warn().Err(err).Bool("alternate", alternate).Msg("NNTP 连接失败，跳过共享")
		return true, nil
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			logger.L.Debug().Err(cerr).Msg("关闭 NNTP 连接失败")
		}
	}()

	if err := s.post.ProcessSharing(ctx, conn); err != nil {
		return true, fmt.Errorf("%w: %s: %v", ErrRoutineFailed, RoutineSharing, err)
	}
	return true, nil
}

// RunSingle 可选共享后按固定顺序执行单线程例程，返回失败的例程数
func (s *Stages) RunSingle(ctx context.Context, gw gateway.Gateway, sharing bool) (int, error) {
	failed := 0
	if sharing {
		if _, err := s.Sharing(ctx, gw); err != nil {
			if !isRoutineFailure(err) {
				return 0, err
			}
			logger.L.Warn().Err(err).Msg("共享处理失败")
			failed++
		}
	}
	failed += s.runRoutines(ctx, SingleRoutines)
	return failed, nil
}

// Amazon 等待 delay-1 秒后执行 books、music、games
func (s *Stages) Amazon(ctx context.Context, delay int) (int, error) {
	if wait := time.Duration(delay-1) * time.Second; wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-t.C:
		}
	}
	return s.runRoutines(ctx, AmazonRoutines), nil
}

func (s *Stages) runRoutines(ctx context.Context, routines []Routine) int {
	failed := 0
	for _, r := range routines {
		if ctx.Err() != nil {
			logger.L.Warn().Str("routine", string(r)).Msg("调度被取消，停止后续例程")
			break
		}
		if err := s.post.Process(ctx, r); err != nil {
			logger.L.Warn().Err(err).Str("routine", string(r)).Msg("后处理例程失败")
			failed++
		}
	}
	return failed
}

func isRoutineFailure(err error) bool {
	return errors.Is(err, ErrRoutineFailed)
}
