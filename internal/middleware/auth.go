// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stress-guru-go/internal/model"
	"stress-guru-go/internal/service"
	"stress-guru-go/pkg/log"
	"stress-guru-go/pkg/token"
)

// 上下文中的键
const (
	ContextUser   = "user"
	ContextClaims = "claims"
	ContextToken  = "token"
)

var (
	ErrTokenRevoked = errors.New("token has been revoked")
	errNoUser       = errors.New("user not found")
)

// ResolveUser 校验 access token 未被吊销，并加载对应的用户。WebSocket 握手也使用它。
func ResolveUser(ctx context.Context, jwtManager *token.JWTManager, userService service.UserService, tokenString string) (*model.User, *token.CustomClaims, error) {
	claims, err := jwtManager.VerifyToken(tokenString)
	if err != nil {
		return nil, nil, err
	}
	revoked, err := userService.IsTokenRevoked(ctx, tokenString)
	if err != nil {
		log.Errorf("检查 token 黑名单失败: %v", err)
		return nil, nil, err
	}
	if revoked {
		return nil, nil, ErrTokenRevoked
	}
	user, err := userService.GetProfile(claims.UserID)
	if err != nil {
		return nil, nil, errNoUser
	}
	return user, claims, nil
}

// AuthMiddleware 创建一个 Gin 中间件，用于 JWT 认证。
// 它会从请求头中提取 token，验证其有效性，并将完整的 User 对象存入 Gin 的上下文中。
func AuthMiddleware(jwtManager *token.JWTManager, userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从 Authorization 请求头中获取 token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "Token is missing!"})
			return
		}

		// Token 以 "Bearer <token>" 的形式提供
		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "Invalid authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)

		user, claims, err := ResolveUser(c.Request.Context(), jwtManager, userService, tokenString)
		if err != nil {
			log.Warnf("认证失败, path: %s, error: %v", c.Request.URL.Path, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "Token is invalid!"})
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextClaims, claims)
		c.Set(ContextToken, tokenString)

		c.Next()
	}
}
