package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/azhengyongqin/forkhub/internal/model"
)

// MaxPayloadSize 调度请求体上限（64KB）
const MaxPayloadSize = 64 * 1024

// WorkTypeKey 已校验的阶段写入 gin 上下文的键
const WorkTypeKey = "work_type"

// RunIDRegex 运行 ID / 请求 ID（字母数字连字符，1-128字符）
var RunIDRegex = regexp.MustCompile(`^[a-zA-Z0-9-]{1,128}$`)

// PayloadSizeLimit Payload 大小限制中间件
func PayloadSizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "请求体过大"})
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		}
		c.Next()
	}
}

// ValidateRunID 验证运行 ID
func ValidateRunID(id string) bool {
	return RunIDRegex.MatchString(id)
}

// SanitizeString 去除首尾空白与控制字符
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)

	var builder strings.Builder
	for _, r := range s {
		if r >= 32 && r != 127 {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// ValidateWorkTypeParam 校验路径参数 work_type 并写入上下文
func ValidateWorkTypeParam() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param("work_type")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "work_type 参数缺失"})
			return
		}
		wt, err := model.ParseWorkType(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "未知的阶段: " + raw})
			return
		}
		c.Set(WorkTypeKey, wt)
		c.Next()
	}
}

// ValidateRunIDParam 校验路径参数 run_id
func ValidateRunIDParam() gin.HandlerFunc {
	return func(c *gin.Context) {
		runID := c.Param("run_id")
		if runID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "run_id 参数缺失"})
			return
		}
		if !ValidateRunID(runID) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "run_id 格式无效，必须是1-128个字母、数字或连字符"})
			return
		}
		c.Next()
	}
}

// CORSMiddleware CORS 中间件（内部系统可选）
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
