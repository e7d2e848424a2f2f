package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SubjectKey gin 上下文中的令牌 subject
const SubjectKey = "auth_subject"

// Middleware 校验 Bearer 令牌；未启用时直接放行
func Middleware(tm *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !tm.Enabled() {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if header == "" || !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "缺少 Bearer 令牌"})
			return
		}

		subject, err := tm.Validate(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "令牌无效"})
			return
		}

		c.Set(SubjectKey, subject)
		c.Next()
	}
}
