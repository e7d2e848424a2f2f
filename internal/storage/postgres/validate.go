package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ParseDSN 校验并解析 DSN；支持 URI 与 key=value 两种写法
func ParseDSN(dsn string) (*pgx.ConnConfig, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("empty postgres dsn")
	}
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	if cfg.Database == "" {
		return nil, errors.New("postgres dsn missing database name")
	}
	return cfg, nil
}

// Describe 返回不含密码的连接描述，用于日志
func Describe(dsn string) string {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return "invalid"
	}
	return fmt.Sprintf("%s@%s:%d/%s", cfg.User, cfg.Host, cfg.Port, cfg.Database)
}
