package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/weiwangfds/notebox/internal/errors"
	"github.com/weiwangfds/notebox/internal/response"
	"github.com/weiwangfds/notebox/internal/service/auth"
)

// Authenticator 将 bearer 令牌解析为当前用户
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*auth.Principal, error)
}

// JWTAuth JWT 认证中间件
// 没有有效 "Authorization: Bearer <access>" 请求头的请求直接返回 401，
// 通过后将用户信息写入 response.UserIDKey 和 response.UsernameKey
func JWTAuth(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Abort(c, apperrors.Newf(apperrors.ErrUnauthorized))
			return
		}

		principal, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			if appErr, ok := apperrors.GetAppError(err); ok && appErr.IsInternal() {
				response.Abort(c, err)
				return
			}
			response.Abort(c, apperrors.Newf(apperrors.ErrUnauthorized))
			return
		}

		c.Set(response.UserIDKey, principal.UserID)
		c.Set(response.UsernameKey, principal.Username)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// UserID 获取当前用户ID，未经过 JWTAuth 时返回 0
func UserID(c *gin.Context) uint {
	return c.GetUint(response.UserIDKey)
}

// Username 获取当前用户名
func Username(c *gin.Context) string {
	return c.GetString(response.UsernameKey)
}
