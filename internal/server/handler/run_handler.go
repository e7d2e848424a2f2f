package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/azhengyongqin/forkhub/internal/model"
	"github.com/azhengyongqin/forkhub/internal/repository"
	"github.com/azhengyongqin/forkhub/internal/server/dto"
)

// RunHandler 调度历史 API Handler
type RunHandler struct {
	repo repository.RunRepository
}

// NewRunHandler 创建 RunHandler；repo 为空时历史接口返回 503
func NewRunHandler(repo repository.RunRepository) *RunHandler {
	return &RunHandler{repo: repo}
}

// ListRuns godoc
// @Summary 调度历史
// @Description 按开始时间倒序查询调度历史
// @Tags Runs
// @Produce json
// @Param work_type query string false "阶段"
// @Param status query string false "状态：success/empty/skipped/fail"
// @Param limit query int false "每页数量（默认 50，最大 200）"
// @Param offset query int false "偏移"
// @Success 200 {object} dto.ListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /runs [get]
func (h *RunHandler) ListRuns(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "调度历史未启用"})
		return
	}

	var req dto.RunListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	filter := repository.ListRunsFilter{Limit: req.Limit, Offset: req.Offset}
	if req.WorkType != "" {
		wt, err := model.ParseWorkType(req.WorkType)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "未知的阶段: " + req.WorkType})
			return
		}
		filter.WorkType = string(wt)
	}
	if req.Status != "" {
		if !model.RunStatus(req.Status).Valid() {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "status 无效"})
			return
		}
		filter.Status = req.Status
	}

	ctx := c.Request.Context()
	items, err := h.repo.List(ctx, filter)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "查询调度历史失败"})
		return
	}
	total, err := h.repo.Count(ctx, filter)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "统计调度历史失败"})
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{Items: items, Total: total})
}

// GetRun godoc
// @Summary 调度详情
// @Tags Runs
// @Produce json
// @Param run_id path string true "运行 ID"
// @Success 200 {object} repository.Run
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /runs/{run_id} [get]
func (h *RunHandler) GetRun(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "调度历史未启用"})
		return
	}

	run, err := h.repo.Get(c.Request.Context(), c.Param("run_id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "记录不存在"})
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "查询调度历史失败"})
		return
	}
	c.JSON(http.StatusOK, run)
}
