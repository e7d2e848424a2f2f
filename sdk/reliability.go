package sdk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig 调度请求重试配置
type RetryConfig struct {
	MaxRetries     int           // 最大重试次数，默认 3
	InitialBackoff time.Duration // 初始退避时间，默认 1秒
	MaxBackoff     time.Duration // 最大退避时间，默认 30秒
	BackoffFactor  float64       // 退避因子，默认 2.0（指数退避）
	Logger         zerolog.Logger
}

// DefaultRetryConfig 默认重试配置
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
		Logger:         zerolog.Nop(),
	}
}

// retryable 网络错误与 5xx/429 重试，其余 4xx 直接返回
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// DispatchWithRetry 带重试的调度投递；409 表示同阶段已在队列中，不重试
func DispatchWithRetry(ctx context.Context, c *Client, req DispatchRequest, cfg RetryConfig) (*DispatchResponse, error) {
	var lastErr error
	backoff := cfg.InitialBackoff

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}

			backoff = time.Duration(float64(backoff) * cfg.BackoffFactor)
			if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
				backoff = cfg.MaxBackoff
			}
		}

		resp, err := c.Dispatch(ctx, req)
		if err == nil {
			if attempt > 0 {
				cfg.Logger.Info().Str("work_type", req.WorkType).Int("attempt", attempt).Msg("调度重试成功")
			}
			return resp, nil
		}

		lastErr = err
		if !retryable(err) {
			return nil, err
		}
		cfg.Logger.Warn().Err(err).Str("work_type", req.WorkType).
			Msgf("调度投递失败 (尝试 %d/%d)", attempt+1, cfg.MaxRetries+1)
	}

	return nil, fmt.Errorf("调度投递失败，已达最大重试次数: %w", lastErr)
}
