package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/weiwangfds/notebox/internal/middleware"
	"github.com/weiwangfds/notebox/internal/response"
	"github.com/weiwangfds/notebox/internal/service/auth"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	authService auth.AuthService
}

// NewAuthHandler 创建认证处理器实例
func NewAuthHandler(authService auth.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register 用户注册
// @Router /api/v1/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, gin.H{"id": user.ID, "username": user.Username})
}

// Login 登录并签发令牌对
// @Router /api/v1/token [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	pair, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, pair)
}

// Refresh 刷新访问令牌
// @Router /api/v1/token/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	access, err := h.authService.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, access)
}

// Me 获取当前用户
// @Router /api/v1/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.GetUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, user)
}
