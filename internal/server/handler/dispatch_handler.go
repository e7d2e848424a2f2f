package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/azhengyongqin/forkhub/internal/activity"
	"github.com/azhengyongqin/forkhub/internal/dispatch"
	"github.com/azhengyongqin/forkhub/internal/middleware"
	"github.com/azhengyongqin/forkhub/internal/model"
	asynqx "github.com/azhengyongqin/forkhub/internal/queue"
	"github.com/azhengyongqin/forkhub/internal/server/dto"
)

// Enqueuer 投递调度任务
type Enqueuer interface {
	EnqueueDispatch(ctx context.Context, p asynqx.DispatchPayload, params asynqx.EnqueueParams) (*asynq.TaskInfo, error)
}

// DispatchHandler 调度相关 API Handler
type DispatchHandler struct {
	enqueuer Enqueuer
	active   *activity.Store
}

// NewDispatchHandler 创建 DispatchHandler
func NewDispatchHandler(enqueuer Enqueuer, active *activity.Store) *DispatchHandler {
	return &DispatchHandler{enqueuer: enqueuer, active: active}
}

// ListWorkTypes godoc
// @Summary 阶段列表
// @Description 列出全部阶段及其并发度设置、闸门与处理脚本
// @Tags Dispatch
// @Produce json
// @Success 200 {object} dto.ListResponse
// @Router /work-types [get]
func (h *DispatchHandler) ListWorkTypes(c *gin.Context) {
	items := dispatch.Describe()
	c.JSON(http.StatusOK, dto.ListResponse{Items: items, Total: int64(len(items))})
}

// Dispatch godoc
// @Summary 触发调度
// @Description 将一次阶段调度投递到 Asynq，由 serve 进程消费执行
// @Tags Dispatch
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.DispatchRequest true "调度请求"
// @Success 202 {object} dto.DispatchResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /dispatch [post]
func (h *DispatchHandler) Dispatch(c *gin.Context) {
	if h.enqueuer == nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "asynq client 未配置"})
		return
	}

	var req dto.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	wt, err := model.ParseWorkType(req.WorkType)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "未知的阶段: " + req.WorkType})
		return
	}
	options := make([]string, 0, len(req.Options))
	for _, o := range req.Options {
		options = append(options, middleware.SanitizeString(o))
	}
	if err := dispatch.ValidateOptions(wt, options); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if req.Queue != "" && !asynqx.IsServedQueue(req.Queue) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "queue 没有消费者: " + req.Queue})
		return
	}

	params := asynqx.EnqueueParams{
		Queue:          req.Queue,
		TimeoutSeconds: req.TimeoutSeconds,
		DelaySeconds:   req.DelaySeconds,
		Unique:         time.Duration(req.UniqueSeconds) * time.Second,
	}
	if req.RunAt != nil {
		params.RunAt = *req.RunAt
	}

	info, err := h.enqueuer.EnqueueDispatch(c.Request.Context(), asynqx.DispatchPayload{
		WorkType: string(wt),
		Options:  options,
	}, params)
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "同一阶段的调度已在队列中"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "入队失败"})
		return
	}

	c.JSON(http.StatusAccepted, dto.DispatchResponse{
		TaskID:   info.ID,
		Queue:    info.Queue,
		WorkType: string(wt),
		Status:   "pending",
	})
}

// ListActive godoc
// @Summary 正在运行的调度
// @Description 列出当前进程中正在执行的调度，可按阶段过滤
// @Tags Dispatch
// @Produce json
// @Param work_type query string false "阶段"
// @Success 200 {object} dto.ListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /dispatch/active [get]
func (h *DispatchHandler) ListActive(c *gin.Context) {
	runs := []activity.Run{}
	if h.active != nil {
		runs = h.active.List()
	}

	if raw := c.Query("work_type"); raw != "" {
		wt, err := model.ParseWorkType(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "未知的阶段: " + raw})
			return
		}
		filtered := runs[:0]
		for _, r := range runs {
			if r.WorkType == wt {
				filtered = append(filtered, r)
			}
		}
		runs = filtered
	}

	c.JSON(http.StatusOK, dto.ListResponse{Items: runs, Total: int64(len(runs))})
}
