package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/weiwangfds/notebox/internal/i18n"
)

// ErrorCode 错误码，与语言无关
type ErrorCode int

const (
	// 通用错误 (1000-1999)
	ErrSuccess        ErrorCode = 0
	ErrInternalServer ErrorCode = 1000
	ErrInvalidParams  ErrorCode = 1001 // 请求体或查询参数格式错误
	ErrUnauthorized   ErrorCode = 1002
	ErrForbidden      ErrorCode = 1003
	ErrNotFound       ErrorCode = 1004
	ErrValidation     ErrorCode = 1008 // 携带字段级错误信息

	// 认证错误 (2000-2999)
	ErrInvalidCredentials ErrorCode = 2000
	ErrTokenInvalid       ErrorCode = 2001

	// 数据库错误 (4000-4999)
	ErrDatabaseQuery       ErrorCode = 4001
	ErrDatabaseInsert      ErrorCode = 4002
	ErrDatabaseUpdate      ErrorCode = 4003
	ErrDatabaseDelete      ErrorCode = 4004
	ErrDatabaseTransaction ErrorCode = 4005
)

// AppError 应用错误，服务层返回给处理器的统一错误类型
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	// Fields 请求字段名到校验错误信息的映射
	Fields map[string][]string `json:"errors,omitempty"`
	// OriginalError 原始错误，只写入日志，不返回给客户端
	OriginalError error `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	if len(e.Fields) > 0 {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Fields)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 返回原始错误，供 errors.Is / errors.As 使用
func (e *AppError) Unwrap() error {
	return e.OriginalError
}

// WithDetails 设置错误详情
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithField 为字段追加一条错误信息
func (e *AppError) WithField(field, message string) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
	return e
}

// Status 返回错误码对应的 HTTP 状态码
func (e *AppError) Status() int {
	return HTTPStatus(e.Code)
}

// IsInternal 判断是否为服务端错误，此类错误的细节不能返回给客户端
func (e *AppError) IsInternal() bool {
	return e.Status() >= http.StatusInternalServerError
}

// New 创建应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf 使用错误码的默认信息创建应用错误
func Newf(code ErrorCode) *AppError {
	return New(code, GetErrorMessage(code))
}

// Wrap 包装原始错误
func Wrap(code ErrorCode, message string, err error) *AppError {
	appErr := &AppError{
		Code:          code,
		Message:       message,
		OriginalError: err,
	}
	if err != nil {
		appErr.Details = err.Error()
	}
	return appErr
}

// Validation 创建单个字段的校验错误
func Validation(field, message string) *AppError {
	return Newf(ErrValidation).WithField(field, message)
}

// ValidationFields 创建携带多个字段信息的校验错误
func ValidationFields(fields map[string][]string) *AppError {
	e := Newf(ErrValidation)
	e.Fields = fields
	return e
}

// NotFound 资源不存在或不属于当前用户时统一返回的错误
func NotFound() *AppError {
	return Newf(ErrNotFound)
}

// Internal 包装存储层等服务端错误
func Internal(code ErrorCode, err error) *AppError {
	return Wrap(code, GetErrorMessage(code), err)
}

// GetAppError 从错误链中提取 *AppError
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is 判断错误是否为指定错误码
func Is(err error, code ErrorCode) bool {
	appErr, ok := GetAppError(err)
	return ok && appErr.Code == code
}

// HTTPStatus 将错误码映射为 HTTP 状态码
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrSuccess:
		return http.StatusOK
	case ErrInvalidParams, ErrValidation:
		return http.StatusBadRequest
	case ErrUnauthorized, ErrInvalidCredentials, ErrTokenInvalid:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

var errorCodeToKeyMap = map[ErrorCode]string{
	ErrSuccess:        "success",
	ErrInternalServer: "internal_server_error",
	ErrInvalidParams:  "invalid_params",
	ErrUnauthorized:   "unauthorized",
	ErrForbidden:      "forbidden",
	ErrNotFound:       "not_found",
	ErrValidation:     "validation_failed",

	ErrInvalidCredentials: "invalid_credentials",
	ErrTokenInvalid:       "token_invalid",

	ErrDatabaseQuery:       "database_query",
	ErrDatabaseInsert:      "database_insert",
	ErrDatabaseUpdate:      "database_update",
	ErrDatabaseDelete:      "database_delete",
	ErrDatabaseTransaction: "database_transaction",
}

// GetErrorMessage 获取默认语言的错误信息
func GetErrorMessage(code ErrorCode) string {
	return GetErrorMessageWithLang(code, i18n.GetInstance().GetDefaultLanguage())
}

// GetErrorMessageWithLang 获取指定语言的错误信息
func GetErrorMessageWithLang(code ErrorCode, lang string) string {
	key, exists := errorCodeToKeyMap[code]
	if !exists {
		key = "unknown_error"
	}
	return i18n.GetInstance().Translate(key, lang)
}
