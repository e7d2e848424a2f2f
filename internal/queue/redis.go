package asynqx

import (
	"fmt"

	"github.com/hibiken/asynq"
)

// NewRedisConnOpt 解析 redis:// 或 rediss:// 地址，调度队列与周期调度共用
func NewRedisConnOpt(redisURI string) (asynq.RedisConnOpt, error) {
	opt, err := asynq.ParseRedisURI(redisURI)
	if err != nil {
		return nil, fmt.Errorf("parse redis uri %q: %w", redisURI, err)
	}
	return opt, nil
}
