// Package runner 执行外部处理脚本，只允许白名单中的脚本。
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/azhengyongqin/forkhub/internal/logger"
)

// allowedScripts 允许执行的脚本
var allowedScripts = map[string]struct{}{
	"backfill.php":        {},
	"update_binaries.php": {},
	"update_releases.php": {},
	"postprocess.php":     {},
}

const waitDelay = 5 * time.Second

// MaxOutputTail Result.Output 最多保留的输出字节数（取末尾）
const MaxOutputTail = 4 * 1024

// ErrNotAllowed 脚本不在白名单中
var ErrNotAllowed = errors.New("script not allowed")

// Command 一次脚本调用
type Command struct {
	Script string
	Args   []string
	// Env 追加到当前进程环境变量之后，形如 KEY=VALUE
	Env []string
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Script
	}
	return c.Script + " " + strings.Join(c.Args, " ")
}

// Result 脚本执行结果
type Result struct {
	Command  Command
	PID      int
	ExitCode int
	// Output 输出的末尾部分，完整输出只透传不保存
	Output   string
	Duration time.Duration
}

// Runner 执行一条命令
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ScriptRunner 在脚本目录中以 <interpreter> <script> args... 的形式执行脚本
type ScriptRunner struct {
	interpreter string
	dir         string

	mu  sync.Mutex
	out io.Writer
}

// New 创建脚本执行器，输出透传到标准输出
func New(interpreter, dir string) *ScriptRunner {
	return &ScriptRunner{interpreter: interpreter, dir: dir, out: os.Stdout}
}

// SetOutput 设置透传输出，nil 表示丢弃
func (r *ScriptRunner) SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	r.mu.Lock()
	r.out = w
	r.mu.Unlock()
}

// IsAllowed 检查脚本是否在白名单中
func (r *ScriptRunner) IsAllowed(script string) bool {
	if script != filepath.Base(script) {
		return false
	}
	_, ok := allowedScripts[script]
	return ok
}

// Run 执行脚本；非零退出码以 *ExitError 返回，同时返回结果
func (r *ScriptRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if !r.IsAllowed(cmd.Script) {
		return nil, fmt.Errorf("%w: %s", ErrNotAllowed, cmd.String())
	}

	args := append([]string{cmd.Script}, cmd.Args...)
	execCmd := exec.CommandContext(ctx, r.interpreter, args...)
	execCmd.Dir = r.dir
	if len(cmd.Env) > 0 {
		execCmd.Env = append(os.Environ(), cmd.Env...)
	}
	// 孙进程可能继续持有输出管道，超时后最多再等待 waitDelay
	execCmd.WaitDelay = waitDelay

	captured := &tailBuffer{max: MaxOutputTail}
	out := io.MultiWriter(captured, r.output())
	execCmd.Stdout = out
	execCmd.Stderr = out

	start := time.Now()
	if err := execCmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", cmd.Script, err)
	}
	pid := execCmd.Process.Pid
	err := execCmd.Wait()

	res := &Result{
		Command:  cmd,
		PID:      pid,
		Output:   captured.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return res, fmt.Errorf("wait %s: %w", cmd.Script, err)
		}
		res.ExitCode = exitErr.ExitCode()
	}

	logger.L.Info().
		Int("pid", pid).
		Int("exit_code", res.ExitCode).
		Dur("duration", res.Duration).
		Str("command", cmd.String()).
		Msgf("Process ID #%d has completed.", pid)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%s interrupted: %w", cmd.Script, ctxErr)
	}
	if res.ExitCode != 0 {
		logger.L.Debug().Int("pid", pid).Str("output_tail", res.Output).Msg("脚本非零退出")
		return res, &ExitError{Command: cmd, Code: res.ExitCode}
	}
	return res, nil
}

// tailBuffer 只保留最后 max 个字节
type tailBuffer struct {
	max int
	buf []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if n >= b.max {
		b.buf = append(b.buf[:0], p[n-b.max:]...)
		return n, nil
	}
	if over := len(b.buf) + n - b.max; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	b.buf = append(b.buf, p...)
	return n, nil
}

func (b *tailBuffer) String() string { return string(b.buf) }

func (r *ScriptRunner) output() io.Writer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.out
}

// ExitError 脚本以非零状态退出
type ExitError struct {
	Command Command
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Command.Script, e.Code)
}
