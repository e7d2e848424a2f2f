package asynqx

import (
	"fmt"

	"github.com/azhengyongqin/forkhub/internal/logger"
)

// asynqLogger 把 asynq 的日志转到 zerolog
type asynqLogger struct{}

func (asynqLogger) Debug(args ...interface{}) { logger.L.Debug().Str("component", "asynq").Msg(fmt.Sprint(args...)) }
func (asynqLogger) Info(args ...interface{})  { logger.L.Info().Str("component", "asynq").Msg(fmt.Sprint(args...)) }
func (asynqLogger) Warn(args ...interface{})  { logger.L.Warn().Str("component", "asynq").Msg(fmt.Sprint(args...)) }
func (asynqLogger) Error(args ...interface{}) { logger.L.Error().Str("component", "asynq").Msg(fmt.Sprint(args...)) }
func (asynqLogger) Fatal(args ...interface{}) { logger.L.Fatal().Str("component", "asynq").Msg(fmt.Sprint(args...)) }
