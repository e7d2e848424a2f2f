package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	_ "github.com/azhengyongqin/forkhub/docs" // Swagger docs
	"github.com/azhengyongqin/forkhub/internal/auth"
	"github.com/azhengyongqin/forkhub/internal/healthcheck"
	"github.com/azhengyongqin/forkhub/internal/logger"
	"github.com/azhengyongqin/forkhub/internal/metrics"
	asynqx "github.com/azhengyongqin/forkhub/internal/queue"
	httpserver "github.com/azhengyongqin/forkhub/internal/server"
)

const version = "1.0.0"

func newServeCommand(ctx *commandContext) *cobra.Command {
	var (
		httpAddr    string
		concurrency int
		noSchedule  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP control plane, the dispatch queue consumer and the periodic scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if httpAddr != "" {
				cfg.HTTP.Addr = httpAddr
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(sigCtx, cfg, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			redisURI := cfg.RedisURI()
			redisOpt, err := asynqx.NewRedisConnOpt(redisURI)
			if err != nil {
				return err
			}

			// Asynq client：用于 HTTP 入队
			client, err := asynqx.NewClient(redisURI)
			if err != nil {
				return err
			}
			defer client.Close()
			client.DispatchTimeout = cfg.Schedule.DispatchTimeout

			// Asynq server：消费调度任务
			srv, err := asynqx.NewServer(redisURI, concurrency)
			if err != nil {
				return err
			}
			if err := srv.Start(asynqx.NewServeMux(asynqx.NewHandler(a.dispatcher))); err != nil {
				return err
			}
			defer srv.Shutdown()

			var scheduler *asynq.Scheduler
			if !noSchedule {
				s, n, err := asynqx.NewScheduler(redisURI, cfg.Schedule)
				if err != nil {
					return err
				}
				if n > 0 {
					if err := s.Start(); err != nil {
						return err
					}
					scheduler = s
					logger.L.Info().Int("entries", n).Msg("周期调度已启动")
				}
			}

			hc := healthcheck.NewHealthChecker(version).
				AddCheck("database", healthcheck.PgxCheck(a.pgxPool)).
				AddCheck("database", healthcheck.SQLCheck(a.sqlDB)).
				AddCheck("redis", healthcheck.RedisCheck(redisOpt)).
				WithHost(healthcheck.SampleHost)

			httpSrv := &http.Server{
				Addr: cfg.HTTP.Addr,
				Handler: httpserver.NewRouter(httpserver.Deps{
					Enqueuer:      client,
					Active:        a.active,
					RunRepo:       a.runRepo,
					HealthChecker: hc,
					Tokens:        auth.NewTokenManager(cfg.Auth.JWTSecret),
				}),
				ReadHeaderTimeout: 5 * time.Second,
			}

			go a.reportPoolStats(sigCtx, 15*time.Second)

			errCh := make(chan error, 1)
			go func() {
				logger.L.Info().Str("addr", cfg.HTTP.Addr).Msg("HTTP 服务监听")
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case <-sigCtx.Done():
			case err := <-errCh:
				logger.L.Error().Err(err).Msg("HTTP 服务错误")
				stop()
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if scheduler != nil {
				scheduler.Shutdown()
			}
			_ = httpSrv.Shutdown(shutdownCtx)
			logger.L.Info().Msg("服务已优雅关闭")
			return nil
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "Override HTTP_ADDR")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Dispatches consumed at once (default: one per stage)")
	cmd.Flags().BoolVar(&noSchedule, "no-scheduler", false, "Do not register SCHEDULE_* entries")
	return cmd
}

// reportPoolStats 定期上报数据库连接池指标
func (a *app) reportPoolStats(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		switch {
		case a.pgxPool != nil:
			st := a.pgxPool.Stat()
			metrics.UpdateDBPoolStats(st.AcquiredConns(), st.IdleConns(), st.MaxConns())
		case a.sqlDB != nil:
			st := a.sqlDB.Stats()
			metrics.UpdateDBPoolStats(int32(st.InUse), int32(st.Idle), int32(st.MaxOpenConnections))
		}
	}
}
