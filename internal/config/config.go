package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/azhengyongqin/forkhub/internal/model"
)

// Config 应用配置
type Config struct {
	HTTP     HTTPConfig
	Database DatabaseConfig
	DBPool   DBPoolConfig
	Redis    RedisConfig
	Pool     PoolConfig
	Scripts  ScriptsConfig
	NNTP     NNTPConfig
	Lock     LockConfig
	Schedule ScheduleConfig
	Auth     AuthConfig
	Log      LogConfig
}

// HTTPConfig 控制面 HTTP 服务配置
type HTTPConfig struct {
	Addr string
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver      string // postgres | sqlite
	PostgresDSN string
	SQLitePath  string
}

// DBPoolConfig 数据库连接池配置
type DBPoolConfig struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// RedisConfig Redis 配置（asynq 与分布式锁共用）
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// PoolConfig 进程池默认值
type PoolConfig struct {
	DefaultConcurrency int
	MaxWorkPerChild    int
	ChildMaxRunTime    time.Duration
}

// ScriptsConfig 外部处理脚本
type ScriptsConfig struct {
	Interpreter string
	Dir         string
}

// NNTPConfig 共享阶段使用的 NNTP 服务器
type NNTPConfig struct {
	Addr          string
	AlternateAddr string
	Timeout       time.Duration
}

// LockConfig 调度锁配置
type LockConfig struct {
	Backend string // none | file | redis
	Dir     string
	TTL     time.Duration
}

// ScheduleConfig 周期调度配置（cron 表达式，空表示不调度）
type ScheduleConfig struct {
	Entries        map[model.WorkType]string
	BackfillColumn string
	// DispatchTimeout 队列中一次调度的最长运行时间
	DispatchTimeout time.Duration
}

// AuthConfig 控制面鉴权，JWTSecret 为空时不鉴权
type AuthConfig struct {
	JWTSecret string
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string
	Production bool
}

// LoadEnvFile 预加载指定的 env 文件（不覆盖已存在的环境变量）
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load 加载配置
func Load() (*Config, error) {
	v := viper.New()

	// 设置配置文件名和路径
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")

	// 允许从环境变量读取（优先级最高）
	v.AutomaticEnv()

	// 读取配置文件（如果存在）
	_ = v.ReadInConfig() // 忽略错误，因为可能只使用环境变量

	cfg := &Config{}

	// HTTP 配置
	cfg.HTTP.Addr = v.GetString("HTTP_ADDR")
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":28080"
	}

	// 数据库配置
	cfg.Database.Driver = strings.ToLower(v.GetString("DB_DRIVER"))
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	cfg.Database.PostgresDSN = v.GetString("POSTGRES_DSN")
	cfg.Database.SQLitePath = v.GetString("SQLITE_PATH")
	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.PostgresDSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN is required")
		}
	case "sqlite":
		if cfg.Database.SQLitePath == "" {
			cfg.Database.SQLitePath = "forkhub.db"
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}

	// 数据库连接池配置
	cfg.DBPool.MaxConns = int32(v.GetInt("DB_MAX_CONNS"))
	if cfg.DBPool.MaxConns == 0 {
		cfg.DBPool.MaxConns = 20
	}

	cfg.DBPool.MinConns = int32(v.GetInt("DB_MIN_CONNS"))
	if cfg.DBPool.MinConns == 0 {
		cfg.DBPool.MinConns = 5
	}

	cfg.DBPool.MaxConnLifetime = v.GetDuration("DB_MAX_CONN_LIFETIME")
	if cfg.DBPool.MaxConnLifetime == 0 {
		cfg.DBPool.MaxConnLifetime = 30 * time.Minute
	}

	cfg.DBPool.MaxConnIdleTime = v.GetDuration("DB_MAX_CONN_IDLE_TIME")
	if cfg.DBPool.MaxConnIdleTime == 0 {
		cfg.DBPool.MaxConnIdleTime = 5 * time.Minute
	}

	cfg.DBPool.HealthCheckPeriod = v.GetDuration("DB_HEALTH_CHECK_PERIOD")
	if cfg.DBPool.HealthCheckPeriod == 0 {
		cfg.DBPool.HealthCheckPeriod = 1 * time.Minute
	}

	// Redis 配置
	cfg.Redis.Addr = v.GetString("REDIS_ADDR")
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")

	// 进程池配置（与 fork 守护进程的默认值一致）
	cfg.Pool.DefaultConcurrency = v.GetInt("POOL_DEFAULT_CONCURRENCY")
	if cfg.Pool.DefaultConcurrency <= 0 {
		cfg.Pool.DefaultConcurrency = 3
	}
	cfg.Pool.MaxWorkPerChild = v.GetInt("POOL_MAX_WORK_PER_CHILD")
	if cfg.Pool.MaxWorkPerChild <= 0 {
		cfg.Pool.MaxWorkPerChild = 1
	}
	cfg.Pool.ChildMaxRunTime = v.GetDuration("POOL_CHILD_MAX_RUNTIME")
	if cfg.Pool.ChildMaxRunTime <= 0 {
		cfg.Pool.ChildMaxRunTime = 600 * time.Second
	}

	// 外部脚本
	cfg.Scripts.Interpreter = v.GetString("SCRIPTS_INTERPRETER")
	if cfg.Scripts.Interpreter == "" {
		cfg.Scripts.Interpreter = "php"
	}
	cfg.Scripts.Dir = v.GetString("SCRIPTS_DIR")
	if cfg.Scripts.Dir == "" {
		cfg.Scripts.Dir = "misc/update"
	}

	// NNTP
	cfg.NNTP.Addr = v.GetString("NNTP_ADDR")
	cfg.NNTP.AlternateAddr = v.GetString("NNTP_ALTERNATE_ADDR")
	cfg.NNTP.Timeout = v.GetDuration("NNTP_TIMEOUT")
	if cfg.NNTP.Timeout <= 0 {
		cfg.NNTP.Timeout = 15 * time.Second
	}

	// 调度锁
	cfg.Lock.Backend = strings.ToLower(v.GetString("LOCK_BACKEND"))
	if cfg.Lock.Backend == "" {
		cfg.Lock.Backend = "file"
	}
	cfg.Lock.Dir = v.GetString("LOCK_DIR")
	if cfg.Lock.Dir == "" {
		cfg.Lock.Dir = "/tmp"
	}
	cfg.Lock.TTL = v.GetDuration("LOCK_TTL")
	if cfg.Lock.TTL <= 0 {
		cfg.Lock.TTL = 2 * time.Hour
	}

	// 周期调度：SCHEDULE_<WORK_TYPE>，例如 SCHEDULE_POSTPROCESS_NFO="*/5 * * * *"
	cfg.Schedule.Entries = map[model.WorkType]string{}
	for _, wt := range model.AllWorkTypes() {
		if spec := strings.TrimSpace(v.GetString(ScheduleKey(wt))); spec != "" {
			cfg.Schedule.Entries[wt] = spec
		}
	}
	cfg.Schedule.BackfillColumn = v.GetString("SCHEDULE_BACKFILL_COLUMN")
	cfg.Schedule.DispatchTimeout = v.GetDuration("DISPATCH_TIMEOUT")
	if cfg.Schedule.DispatchTimeout <= 0 {
		cfg.Schedule.DispatchTimeout = 24 * time.Hour
	}

	cfg.Auth.JWTSecret = v.GetString("API_JWT_SECRET")

	// 日志
	cfg.Log.Level = v.GetString("LOG_LEVEL")
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	cfg.Log.Production = v.GetBool("LOG_PRODUCTION")

	return cfg, nil
}

// ScheduleKey 返回阶段对应的调度环境变量名
func ScheduleKey(wt model.WorkType) string {
	return "SCHEDULE_" + strings.ToUpper(string(wt))
}

// RedisURI 返回 asynq 需要的 redis:// 形式地址
func (c *Config) RedisURI() string {
	addr := c.Redis.Addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		return addr
	}
	if c.Redis.Password != "" {
		return fmt.Sprintf("redis://:%s@%s/%d", c.Redis.Password, addr, c.Redis.DB)
	}
	return fmt.Sprintf("redis://%s/%d", addr, c.Redis.DB)
}

// Validate 验证配置
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("PostgreSQL DSN is required")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("SQLite path is required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Lock.Backend {
	case "none", "file":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("Redis address is required for redis lock backend")
		}
	default:
		return fmt.Errorf("unsupported lock backend %q", c.Lock.Backend)
	}
	if c.Scripts.Interpreter == "" {
		return fmt.Errorf("scripts interpreter is required")
	}
	return nil
}
