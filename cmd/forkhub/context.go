package main

import (
	"strings"
	"sync"

	"github.com/azhengyongqin/forkhub/internal/config"
	"github.com/azhengyongqin/forkhub/internal/logger"
)

type commandContext struct {
	envFile  *string
	logLevel *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(envFile, logLevel *string) *commandContext {
	return &commandContext{envFile: envFile, logLevel: logLevel}
}

// ensureConfig 首次调用时加载配置并初始化日志
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if c.envFile != nil {
			if err := config.LoadEnvFile(strings.TrimSpace(*c.envFile)); err != nil {
				c.configErr = err
				return
			}
		}
		cfg, err := config.Load()
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}

		if err := logger.Init(cfg.Log.Production); err != nil {
			c.configErr = err
			return
		}
		level := cfg.Log.Level
		if c.logLevel != nil && *c.logLevel != "" {
			level = *c.logLevel
		}
		logger.SetLevel(level)

		c.config = cfg
	})
	return c.config, c.configErr
}
