package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/azhengyongqin/forkhub/internal/activity"
	"github.com/azhengyongqin/forkhub/internal/config"
	"github.com/azhengyongqin/forkhub/internal/dispatch"
	"github.com/azhengyongqin/forkhub/internal/gateway"
	"github.com/azhengyongqin/forkhub/internal/lock"
	"github.com/azhengyongqin/forkhub/internal/logger"
	"github.com/azhengyongqin/forkhub/internal/nntp"
	"github.com/azhengyongqin/forkhub/internal/pool"
	"github.com/azhengyongqin/forkhub/internal/repository"
	"github.com/azhengyongqin/forkhub/internal/runner"
	"github.com/azhengyongqin/forkhub/internal/storage/postgres"
	"github.com/azhengyongqin/forkhub/internal/storage/sqlite"
)

// app 一次命令执行所需的全部依赖
type app struct {
	cfg        *config.Config
	dispatcher *dispatch.Dispatcher
	active     *activity.Store

	// 只有一个非空：PostgreSQL 模式使用 pgxPool，SQLite 模式使用 sqlDB
	pgxPool *pgxpool.Pool
	sqlDB   *sql.DB
	gormDB  *postgres.DB

	runRepo repository.RunRepository
	closers []func() error
}

type appOptions struct {
	// sync 在当前 goroutine 中顺序执行工作项
	sync bool
}

func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, active: activity.NewStore()}

	opener, err := a.openStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	locker, err := lock.New(cfg.Lock.Backend, cfg.Lock.Dir, cfg.RedisURI(), cfg.Lock.TTL)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create locker: %w", err)
	}
	a.closers = append(a.closers, locker.Close)

	r := runner.New(cfg.Scripts.Interpreter, cfg.Scripts.Dir)
	r.SetOutput(os.Stdout)
	stages := dispatch.NewStages(
		dispatch.NewScriptPostProcessor(r),
		nntp.NewClient(cfg.NNTP.Addr, cfg.NNTP.AlternateAddr, cfg.NNTP.Timeout),
	)

	var recorder dispatch.RunRecorder
	if a.runRepo != nil {
		recorder = repository.NewRecorder(a.runRepo)
	}

	a.dispatcher = dispatch.New(dispatch.Deps{
		Opener:    opener,
		Runner:    r,
		Stages:    stages,
		NewEngine: engineFactory(cfg.Pool, opts.sync),
		Locker:    locker,
		Recorder:  recorder,
		Tracker:   a.active,
	})
	return a, nil
}

// openStore 打开查询网关；PostgreSQL 模式同时打开调度历史仓储
func (a *app) openStore(ctx context.Context) (gateway.Opener, error) {
	cfg := a.cfg
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.sqlDB = db
		a.closers = append(a.closers, db.Close)
		return gateway.NewSQLOpener(db, "?"), nil

	case "postgres":
		p, err := postgres.NewPool(ctx, cfg.Database.PostgresDSN, poolConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("连接数据库失败: %w", err)
		}
		a.pgxPool = p
		logger.L.Debug().Str("dsn", postgres.Describe(cfg.Database.PostgresDSN)).Msg("数据库已连接")
		a.closers = append(a.closers, func() error { p.Close(); return nil })

		gdb, err := postgres.NewDB(p)
		if err != nil {
			return nil, fmt.Errorf("打开运行记录存储失败: %w", err)
		}
		a.gormDB = gdb
		a.closers = append(a.closers, gdb.Close)
		a.runRepo = repository.NewRunRepo(gdb.DB)
		return gateway.NewPgxOpener(p), nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func poolConfig(cfg *config.Config) postgres.PoolConfig {
	return postgres.PoolConfig{
		MaxConns:          cfg.DBPool.MaxConns,
		MinConns:          cfg.DBPool.MinConns,
		MaxConnLifetime:   cfg.DBPool.MaxConnLifetime,
		MaxConnIdleTime:   cfg.DBPool.MaxConnIdleTime,
		HealthCheckPeriod: cfg.DBPool.HealthCheckPeriod,
	}
}

func engineFactory(cfg config.PoolConfig, sync bool) dispatch.EngineFactory {
	if sync {
		return func() pool.Engine[gateway.Row] {
			return pool.NewSync[gateway.Row](cfg.DefaultConcurrency)
		}
	}
	return func() pool.Engine[gateway.Row] {
		return pool.New[gateway.Row](pool.Config{
			MaxConcurrency:  cfg.DefaultConcurrency,
			MaxWorkPerChild: cfg.MaxWorkPerChild,
			ChildMaxRunTime: cfg.ChildMaxRunTime,
		})
	}
}

// Close 按打开的逆序释放资源
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		logger.L.Warn().Err(err).Msg("关闭资源失败")
		return err
	}
	return nil
}
