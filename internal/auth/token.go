package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken 令牌无效或已过期
var ErrInvalidToken = errors.New("invalid token")

const issuer = "forkhub"

// Claims 调度 API 令牌声明
type Claims struct {
	jwt.RegisteredClaims
}

// TokenManager 签发与校验调度 API 令牌（HS256）
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret), now: time.Now}
}

// Enabled 未配置密钥时不做鉴权
func (m *TokenManager) Enabled() bool {
	return m != nil && len(m.secret) > 0
}

// Generate 为 subject 签发令牌；ttl<=0 表示不过期
func (m *TokenManager) Generate(subject string, ttl time.Duration) (string, error) {
	if !m.Enabled() {
		return "", errors.New("jwt secret not configured")
	}
	now := m.now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:   issuer,
		Subject:  subject,
		IssuedAt: jwt.NewNumericDate(now),
	}}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate 校验令牌并返回 subject
func (m *TokenManager) Validate(tokenString string) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims.Subject, nil
}
