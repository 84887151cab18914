// Package handler 提供 REST API 的 HTTP 处理器
// 处理器负责绑定和校验请求格式、调用服务并通过 response 包输出结果，业务规则在服务层实现
package handler

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	apperrors "github.com/weiwangfds/notebox/internal/errors"
	"github.com/weiwangfds/notebox/internal/i18n"
	"github.com/weiwangfds/notebox/internal/response"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxPage         = 1_000_000 // 保证 (page-1)*page_size 不会溢出
)

// bindJSON 绑定 JSON 请求体
// 空请求体按 {} 处理，缺少必填字段时仍会进入校验
func bindJSON(c *gin.Context, dst interface{}) error {
	err := c.ShouldBindJSON(dst)
	if stderrors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(dst)
	}
	if err == nil {
		return nil
	}
	return bindError(c, err)
}

// bindError 将解析和校验错误转换为应用错误
func bindError(c *gin.Context, err error) error {
	tr := i18n.GetInstance()
	lang := response.Lang(c)

	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		return apperrors.ValidationFields(tr.TranslateValidation(verrs, lang))
	}

	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) && typeErr.Field != "" {
		return apperrors.Validation(typeErr.Field, tr.Translate("invalid_type", lang))
	}

	return apperrors.Wrap(apperrors.ErrInvalidParams, apperrors.GetErrorMessage(apperrors.ErrInvalidParams), err)
}

// pathID 解析路径参数 :id，非正整数一律按不存在处理
func pathID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NotFound()
	}
	return uint(id), nil
}

// pagination 解析分页参数，page 为 0 表示不分页
func pagination(c *gin.Context) (page, pageSize int, err error) {
	raw, ok := c.GetQuery("page")
	if !ok {
		return 0, 0, nil
	}

	tr := i18n.GetInstance()
	page, convErr := strconv.Atoi(raw)
	if convErr != nil || page < 1 {
		return 0, 0, apperrors.Validation("page", tr.Translate("invalid_integer", response.Lang(c)))
	}
	if page > maxPage {
		return 0, 0, apperrors.Validation("page", tr.Translatef("max_value", response.Lang(c), maxPage))
	}

	pageSize, convErr = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if convErr != nil || pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return page, pageSize, nil
}

// boolQuery 解析可选的布尔过滤参数，未传表示不过滤
func boolQuery(c *gin.Context, name string) (*bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.Validation(name, i18n.GetInstance().Translate("invalid_boolean", response.Lang(c)))
	}
	return &v, nil
}

// renderList 有 page 时按分页输出，否则直接输出数组
func renderList(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	if page > 0 {
		response.SuccessWithPage(c, list, total, page, pageSize)
		return
	}
	response.Success(c, list)
}
