package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	apperrors "github.com/weiwangfds/notebox/internal/errors"
	"github.com/weiwangfds/notebox/internal/i18n"
	"github.com/weiwangfds/notebox/internal/logger"
)

// 与中间件共享的上下文键
const (
	RequestIDKey = "request_id"
	UserIDKey    = "user_id"
	UsernameKey  = "username"
)

// Response 统一响应结构
type Response struct {
	// 成功为 0，失败为错误码
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	// 字段名 -> 错误信息，仅校验失败时返回
	Errors    map[string][]string `json:"errors,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
	Timestamp int64               `json:"timestamp"`
}

// PageData 分页数据
type PageData struct {
	List       interface{} `json:"list"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, Response{
		Code:    0,
		Message: i18n.GetInstance().Translate("success", Lang(c)),
		Data:    data,
	})
}

// SuccessWithMessage 带自定义消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	write(c, http.StatusOK, Response{
		Code:    0,
		Message: message,
		Data:    data,
	})
}

// Created 创建成功响应 (201)
func Created(c *gin.Context, data interface{}) {
	write(c, http.StatusCreated, Response{
		Code:    0,
		Message: i18n.GetInstance().Translate("success", Lang(c)),
		Data:    data,
	})
}

// NoContent 无内容响应 (204)
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// SuccessWithPage 分页成功响应
func SuccessWithPage(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(total) / pageSize
		if int(total)%pageSize > 0 {
			totalPages++
		}
	}

	Success(c, PageData{
		List:       list,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// Fail 错误响应
// 应用错误保留错误码和字段信息；服务端错误只记录日志，客户端只能看到通用提示
func Fail(c *gin.Context, err error) {
	appErr, ok := apperrors.GetAppError(err)
	if !ok {
		appErr = apperrors.Wrap(apperrors.ErrInternalServer, "", err)
	}

	lang := Lang(c)
	status := appErr.Status()

	if appErr.IsInternal() {
		entry := logger.WithFields(logrus.Fields{
			"request_id": c.GetString(RequestIDKey),
			"code":       appErr.Code,
			"path":       c.Request.URL.Path,
		})
		if appErr.OriginalError != nil {
			entry = entry.WithError(appErr.OriginalError)
		}
		entry.Error(appErr.Details)
		_ = c.Error(err)

		write(c, status, Response{
			Code:    int(appErr.Code),
			Message: apperrors.GetErrorMessageWithLang(apperrors.ErrInternalServer, lang),
		})
		return
	}

	write(c, status, Response{
		Code:    int(appErr.Code),
		Message: apperrors.GetErrorMessageWithLang(appErr.Code, lang),
		Errors:  appErr.Fields,
	})
}

// Abort 输出错误并中止处理链
func Abort(c *gin.Context, err error) {
	Fail(c, err)
	c.Abort()
}

// Lang 根据 Accept-Language 协商响应语言
func Lang(c *gin.Context) string {
	return i18n.ParseAcceptLanguage(c.GetHeader("Accept-Language"))
}

func write(c *gin.Context, status int, body Response) {
	body.RequestID = c.GetString(RequestIDKey)
	body.Timestamp = now().Unix()
	c.JSON(status, body)
}

// now 测试中可替换
var now = time.Now
