// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"inkdesk/internal/apperr"
	"inkdesk/internal/model"
	"inkdesk/internal/service"
)

// 上下文中存放当前用户与会话的键。
const (
	ContextUserKey    = "user"
	ContextSessionKey = "session"
)

// CookieConfig 描述会话 cookie 的名称和 Secure 属性。
type CookieConfig struct {
	Name   string
	Secure bool
}

// SetSessionCookie 写入 HttpOnly、SameSite=Lax 的会话 cookie，过期时间与会话一致。
func SetSessionCookie(c *gin.Context, cfg CookieConfig, token string, expiresAt time.Time) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie 让浏览器立即删除会话 cookie。
func ClearSessionCookie(c *gin.Context, cfg CookieConfig) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionToken 读取请求中的会话令牌，没有 cookie 时返回空串。
func SessionToken(c *gin.Context, cfg CookieConfig) string {
	tok, err := c.Cookie(cfg.Name)
	if err != nil {
		return ""
	}
	return tok
}

// AuthMiddleware 创建一个 Gin 中间件，把会话 cookie 解析为当前用户。
// 会话无效或已过期时清除 cookie 并返回 401。
func AuthMiddleware(userService service.UserService, cookie CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := userService.Authenticate(c.Request.Context(), SessionToken(c, cookie))
		if err != nil {
			switch apperr.KindOf(err) {
			case apperr.KindInvalidSession, apperr.KindSessionExpired:
				ClearSessionCookie(c, cookie)
			}
			RespondError(c, err)
			return
		}

		c.Set(ContextUserKey, &session.User)
		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

// CurrentUser 返回 AuthMiddleware 注入的当前用户。
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}
