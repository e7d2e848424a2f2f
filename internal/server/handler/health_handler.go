package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/azhengyongqin/forkhub/internal/healthcheck"
)

// HealthHandler 健康检查 Handler
type HealthHandler struct {
	checker *healthcheck.HealthChecker
}

// NewHealthHandler 创建 HealthHandler；checker 为空时两个探针都只返回 ok
func NewHealthHandler(checker *healthcheck.HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Liveness godoc
// @Summary Liveness 检查
// @Description 进程存活即返回 200，不检查依赖
// @Tags Health
// @Produce json
// @Success 200 {object} healthcheck.CheckResult
// @Router /healthz [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	if h.checker == nil {
		c.String(http.StatusOK, "ok")
		return
	}
	c.JSON(http.StatusOK, h.checker.LivenessCheck())
}

// Readiness godoc
// @Summary Readiness 检查
// @Description 检查数据库与 Redis，附带主机 CPU/内存负载；任一依赖异常返回 503
// @Tags Health
// @Produce json
// @Success 200 {object} healthcheck.CheckResult
// @Failure 503 {object} healthcheck.CheckResult
// @Router /readyz [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	if h.checker == nil {
		c.String(http.StatusOK, "ok")
		return
	}
	result := h.checker.ReadinessCheck(c.Request.Context())
	status := http.StatusOK
	if result.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, result)
}
