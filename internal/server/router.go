package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/azhengyongqin/forkhub/internal/activity"
	"github.com/azhengyongqin/forkhub/internal/auth"
	"github.com/azhengyongqin/forkhub/internal/healthcheck"
	"github.com/azhengyongqin/forkhub/internal/middleware"
	"github.com/azhengyongqin/forkhub/internal/repository"
	"github.com/azhengyongqin/forkhub/internal/server/handler"
)

type Deps struct {
	// Enqueuer 用于投递调度任务
	Enqueuer handler.Enqueuer

	// Active 本进程正在执行的调度
	Active *activity.Store

	// 可选：PostgreSQL 模式下提供调度历史
	RunRepo repository.RunRepository

	// HealthChecker 健康检查器
	HealthChecker *healthcheck.HealthChecker

	// Tokens 配置了密钥时保护 POST /dispatch
	Tokens *auth.TokenManager
}

// NewRouter 提供 Gin HTTP API
// @title forkhub API
// @version 1.0.0
// @description 流水线阶段调度 API
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func NewRouter(deps Deps) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.PrometheusMiddleware())
	r.Use(middleware.PayloadSizeLimit(middleware.MaxPayloadSize))
	r.Use(middleware.CORSMiddleware())

	healthHandler := handler.NewHealthHandler(deps.HealthChecker)
	dispatchHandler := handler.NewDispatchHandler(deps.Enqueuer, deps.Active)
	runHandler := handler.NewRunHandler(deps.RunRepo)

	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	{
		api.GET("/work-types", dispatchHandler.ListWorkTypes)
		api.POST("/dispatch", auth.Middleware(deps.Tokens), dispatchHandler.Dispatch)
		api.GET("/dispatch/active", dispatchHandler.ListActive)

		api.GET("/runs", runHandler.ListRuns)
		api.GET("/runs/:run_id", middleware.ValidateRunIDParam(), runHandler.GetRun)
	}

	return r
}
