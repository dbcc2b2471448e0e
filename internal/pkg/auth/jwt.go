package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"meridian/internal/pkg/config"
	"meridian/internal/service/order/domain"
)

// Claims 是令牌里携带的身份载荷,由用户服务签发:
// sub 放邮箱,user_id 与 role 是本服务关心的两个字段。
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier 校验 Bearer 令牌并构造类型化的调用方身份。
type TokenVerifier struct {
	secret []byte
	method jwt.SigningMethod
}

func NewTokenVerifier(cfg *config.AuthConfig) (*TokenVerifier, error) {
	method := jwt.GetSigningMethod(cfg.Algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", cfg.Algorithm)
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("token signing secret is not configured")
	}
	return &TokenVerifier{secret: []byte(cfg.Secret), method: method}, nil
}

// Verify 解析并校验令牌。任何解析失败、算法不符或关键声明缺失
// 都归为同一个 unauthorized,不区分细节以免泄露信息。
func (v *TokenVerifier) Verify(tokenString string) (domain.Identity, error) {
	unauthorized := domain.E(domain.KindUnauthorized, "could not validate credentials")

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != v.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Identity{}, unauthorized.WithCause(err)
	}
	if claims.UserID == 0 {
		return domain.Identity{}, unauthorized
	}

	role := domain.Role(claims.Role)
	if role == "" {
		role = domain.RoleUser
	}
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return domain.Identity{}, unauthorized
	}
	return domain.Identity{UserID: claims.UserID, Role: role}, nil
}

// Issue 签发一个令牌,载荷与用户服务的签发格式一致。
// 生产路径上令牌由用户服务签发,这里主要给测试与运维工具用。
func (v *TokenVerifier) Issue(identity domain.Identity, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: identity.UserID,
		Role:   string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(v.method, claims).SignedString(v.secret)
}
