// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"inkdesk/internal/apperr"
	"inkdesk/internal/middleware"
	"inkdesk/internal/model"
	"inkdesk/internal/service"
	"inkdesk/pkg/log"
)

// AuthHandler 负责注册、登录、登出和当前用户查询。
type AuthHandler struct {
	userService service.UserService
	cookie      middleware.CookieConfig
}

// NewAuthHandler 创建一个新的 AuthHandler 实例。
func NewAuthHandler(userService service.UserService, cookie middleware.CookieConfig) *AuthHandler {
	return &AuthHandler{userService: userService, cookie: cookie}
}

// SignUpRequest 定义了注册 API 的请求体结构。
type SignUpRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
}

// SignInRequest 定义了登录 API 的请求体结构。
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// 字段缺失由 UserService 校验，这里只处理无法解析的请求体。
var errInvalidBody = apperr.BadRequest("Invalid request body")

// SignUp 处理用户注册请求，成功后写入会话 cookie。
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("SignUp: Invalid request payload, error: %v", err)
		middleware.RespondError(c, errInvalidBody)
		return
	}

	user, session, err := h.userService.SignUp(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	log.Infof("User %d registered successfully", user.ID)
	h.writeSession(c, user, session)
}

// SignIn 处理用户登录请求。每次登录都签发新的会话，旧会话保持有效。
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("SignIn: Invalid request payload, error: %v", err)
		middleware.RespondError(c, errInvalidBody)
		return
	}

	user, session, err := h.userService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	log.Infof("User %d signed in successfully", user.ID)
	h.writeSession(c, user, session)
}

func (h *AuthHandler) writeSession(c *gin.Context, user *model.User, session *model.Session) {
	middleware.SetSessionCookie(c, h.cookie, session.Token, session.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}

// SignOut 删除当前会话并清除 cookie，没有会话时同样返回成功。
func (h *AuthHandler) SignOut(c *gin.Context) {
	middleware.ClearSessionCookie(c, h.cookie)
	if err := h.userService.SignOut(c.Request.Context(), middleware.SessionToken(c, h.cookie)); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out successfully"})
}

// Me 返回当前用户，未登录时返回 {"user": null} 而不是错误。
func (h *AuthHandler) Me(c *gin.Context) {
	tok := middleware.SessionToken(c, h.cookie)
	user, err := h.userService.CurrentUser(c.Request.Context(), tok)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	if user == nil {
		if tok != "" {
			middleware.ClearSessionCookie(c, h.cookie)
		}
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}
