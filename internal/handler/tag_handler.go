package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/weiwangfds/notebox/internal/response"
	"github.com/weiwangfds/notebox/internal/service/tag"
)

// TagHandler 标签处理器
// 所有接口都需要认证，但标签不区分所有者
type TagHandler struct {
	tagService tag.TagService
}

// NewTagHandler 创建标签处理器实例
func NewTagHandler(tagService tag.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

// ListTags 获取标签列表
// @Router /api/v1/tags [get]
func (h *TagHandler) ListTags(c *gin.Context) {
	page, pageSize, err := pagination(c)
	if err != nil {
		response.Fail(c, err)
		return
	}

	tags, total, err := h.tagService.ListTags(c.Request.Context(), tag.ListQuery{
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	renderList(c, tags, total, page, pageSize)
}

// GetTag 获取标签详情
// @Router /api/v1/tags/{id} [get]
func (h *TagHandler) GetTag(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}

	t, err := h.tagService.GetTagByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, t)
}

// CreateTag 创建标签
// @Router /api/v1/tags [post]
func (h *TagHandler) CreateTag(c *gin.Context) {
	var req tag.TagRequest
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	t, err := h.tagService.CreateTag(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, t)
}

// UpdateTag 更新标签
// @Router /api/v1/tags/{id} [put]
func (h *TagHandler) UpdateTag(c *gin.Context) {
	h.update(c, false)
}

// PatchTag 部分更新标签
// @Router /api/v1/tags/{id} [patch]
func (h *TagHandler) PatchTag(c *gin.Context) {
	h.update(c, true)
}

func (h *TagHandler) update(c *gin.Context, partial bool) {
	id, err := pathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	var req tag.TagRequest
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	t, err := h.tagService.UpdateTag(c.Request.Context(), id, &req, partial)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, t)
}

// DeleteTag 删除标签，关联的笔记保留
// @Router /api/v1/tags/{id} [delete]
func (h *TagHandler) DeleteTag(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}

	if err := h.tagService.DeleteTag(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.NoContent(c)
}
