package handler

import (
	"github.com/gin-gonic/gin"
	apperrors "github.com/weiwangfds/notebox/internal/errors"
	"github.com/weiwangfds/notebox/internal/i18n"
	"github.com/weiwangfds/notebox/internal/middleware"
	"github.com/weiwangfds/notebox/internal/response"
	"github.com/weiwangfds/notebox/internal/service/note"
)

// NoteHandler 笔记处理器
// 只处理当前用户自己的笔记，所有者始终取自认证信息，而不是请求内容
type NoteHandler struct {
	noteService note.NoteService
}

// NewNoteHandler 创建笔记处理器实例
// 参数:
//   noteService - 笔记服务接口
// 返回:
//   *NoteHandler - 笔记处理器实例
func NewNoteHandler(noteService note.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

// ListNotes 获取笔记列表
// @Summary 获取笔记列表
// @Description 按 order_index、updated_at 排序返回当前用户的笔记，支持搜索、收藏/回收站过滤和分页
// @Tags 笔记管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param search query string false "标题或内容关键字"
// @Param is_favorite query bool false "是否收藏"
// @Param is_trashed query bool false "是否在回收站"
// @Param page query int false "页码，不传则不分页"
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=[]note.NoteResponse} "获取成功"
// @Failure 400 {object} response.Response "请求参数错误"
// @Failure 401 {object} response.Response "未认证"
// @Router /api/v1/notes [get]
func (h *NoteHandler) ListNotes(c *gin.Context) {
	page, pageSize, err := pagination(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	isFavorite, err := boolQuery(c, "is_favorite")
	if err != nil {
		response.Fail(c, err)
		return
	}
	isTrashed, err := boolQuery(c, "is_trashed")
	if err != nil {
		response.Fail(c, err)
		return
	}

	notes, total, err := h.noteService.ListNotes(c.Request.Context(), middleware.UserID(c), note.ListQuery{
		Search:     c.Query("search"),
		IsFavorite: isFavorite,
		IsTrashed:  isTrashed,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	renderList(c, notes, total, page, pageSize)
}

// GetNote 获取笔记详情
// @Summary 获取笔记详情
// @Description 根据笔记ID获取当前用户的笔记
// @Tags 笔记管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "笔记ID"
// @Success 200 {object} response.Response{data=note.NoteResponse} "获取成功"
// @Failure 401 {object} response.Response "未认证"
// @Failure 404 {object} response.Response "笔记不存在"
// @Router /api/v1/notes/{id} [get]
func (h *NoteHandler) GetNote(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}

	n, err := h.noteService.GetNote(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, n)
}

// CreateNote 创建笔记
// @Summary 创建笔记
// @Description 创建属于当前用户的笔记，可通过 tag_ids 关联标签
// @Tags 笔记管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param note body note.NoteRequest true "创建笔记请求"
// @Success 201 {object} response.Response{data=note.NoteResponse} "创建成功"
// @Failure 400 {object} response.Response "请求参数错误"
// @Failure 401 {object} response.Response "未认证"
// @Router /api/v1/notes [post]
func (h *NoteHandler) CreateNote(c *gin.Context) {
	var req note.NoteRequest
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	n, err := h.noteService.CreateNote(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, n)
}

// UpdateNote 更新笔记
// @Summary 更新笔记
// @Description 全量更新笔记，title 必填；提供 tag_ids 时整体替换标签
// @Tags 笔记管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "笔记ID"
// @Param note body note.NoteRequest true "更新笔记请求"
// @Success 200 {object} response.Response{data=note.NoteResponse} "更新成功"
// @Failure 400 {object} response.Response "请求参数错误"
// @Failure 401 {object} response.Response "未认证"
// @Failure 404 {object} response.Response "笔记不存在"
// @Router /api/v1/notes/{id} [put]
func (h *NoteHandler) UpdateNote(c *gin.Context) {
	h.update(c, false)
}

// PatchNote 部分更新笔记，只修改请求中出现的字段
// @Router /api/v1/notes/{id} [patch]
func (h *NoteHandler) PatchNote(c *gin.Context) {
	h.update(c, true)
}

func (h *NoteHandler) update(c *gin.Context, partial bool) {
	id, err := pathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	var req note.NoteRequest
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	n, err := h.noteService.UpdateNote(c.Request.Context(), middleware.UserID(c), id, &req, partial)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, n)
}

// DeleteNote 删除笔记
// @Summary 删除笔记
// @Description 删除笔记及其标签关联
// @Tags 笔记管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "笔记ID"
// @Success 204 "删除成功"
// @Failure 401 {object} response.Response "未认证"
// @Failure 404 {object} response.Response "笔记不存在"
// @Router /api/v1/notes/{id} [delete]
func (h *NoteHandler) DeleteNote(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}

	if err := h.noteService.DeleteNote(c.Request.Context(), middleware.UserID(c), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.NoContent(c)
}

// ReorderNotes 笔记排序
// @Summary 笔记排序
// @Description 按 note_ids 的顺序设置 order_index，任一ID无效则全部不修改
// @Tags 笔记管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body note.ReorderRequest true "排序请求，note_ids 为新的顺序"
// @Success 200 {object} response.Response "排序成功"
// @Failure 400 {object} response.Response "请求参数错误"
// @Failure 401 {object} response.Response "未认证"
// @Router /api/v1/notes/reorder [post]
func (h *NoteHandler) ReorderNotes(c *gin.Context) {
	var req note.ReorderRequest
	if err := bindJSON(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	tr := i18n.GetInstance()
	lang := response.Lang(c)
	if req.NoteIDs == nil {
		response.Fail(c, apperrors.Validation("note_ids", tr.Translate("field_required", lang)))
		return
	}

	notes, err := h.noteService.ReorderNotes(c.Request.Context(), middleware.UserID(c), req.NoteIDs)
	if err != nil {
		response.Fail(c, err)
		return
	}

	msg := tr.Translate("reordered", lang)
	response.SuccessWithMessage(c, msg, gin.H{"status": msg, "notes": notes})
}
