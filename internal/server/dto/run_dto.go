package dto

// RunListRequest 调度历史查询
type RunListRequest struct {
	WorkType string `form:"work_type" example:"releases"`
	Status   string `form:"status" example:"success"`
	Limit    int    `form:"limit" example:"50"`
	Offset   int    `form:"offset" example:"0"`
}
