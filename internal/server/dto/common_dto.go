package dto

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error" example:"错误信息"`
}

// ListResponse 通用列表响应
type ListResponse struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
}
