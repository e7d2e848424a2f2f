package logger

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// L 全局 logger，Init 之前输出 JSON 到 stdout
var L = zerolog.New(os.Stdout).With().Timestamp().Logger()

// 控制台模式下优先展示的字段
var consoleFieldsOrder = []string{
	"run_id", "work_type", "worker_id", "pid",
	"items", "concurrency", "failed", "duration",
	"request_id", "method", "path", "status",
}

// Init 初始化日志器；production 为 true 时输出 JSON，否则输出控制台格式
func Init(production bool) error {
	return InitWithWriter(production, os.Stdout)
}

// InitWithWriter 同 Init，可指定输出
func InitWithWriter(production bool, out io.Writer) error {
	zerolog.TimeFieldFormat = time.RFC3339

	w := out
	if !production {
		w = zerolog.ConsoleWriter{
			Out:         out,
			TimeFormat:  time.Kitchen,
			NoColor:     !isTerminal(out),
			FieldsOrder: consoleFieldsOrder,
		}
	}
	L = zerolog.New(w).With().Timestamp().Caller().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	return nil
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetLevel 设置全局日志级别，无法识别时回落到 info
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// WithWorkType 带 work_type 字段的子 logger
func WithWorkType(workType string) zerolog.Logger {
	return L.With().Str("work_type", workType).Logger()
}

// WithRun 带 run_id 与 work_type 字段的子 logger
func WithRun(runID, workType string) zerolog.Logger {
	return L.With().Str("run_id", runID).Str("work_type", workType).Logger()
}
