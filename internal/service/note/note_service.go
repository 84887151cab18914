// Package note 提供笔记管理相关的业务逻辑服务
//
// 本包的所有查询都会先按调用者的用户ID过滤，
// 因此别人的笔记与不存在的笔记表现完全一致
package note

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/weiwangfds/notebox/internal/database"
	apperrors "github.com/weiwangfds/notebox/internal/errors"
	"github.com/weiwangfds/notebox/internal/i18n"
	"github.com/weiwangfds/notebox/internal/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// PlaceholderTitle 创建笔记未提供标题时使用的默认标题
	PlaceholderTitle = "Untitled note"
	maxTitleLength   = 200
)

// NoteService 笔记服务接口
// 定义了笔记管理的所有业务操作方法，所有操作都限定在 ownerID 名下
type NoteService interface {
	// ListNotes 获取笔记列表
	// 排序为 order_index ASC, updated_at DESC, id ASC
	// 参数:
	//   ownerID - 所有者ID
	//   query - 搜索、过滤和分页条件，Page 为 0 时返回全部
	// 返回:
	//   []NoteResponse - 笔记列表
	//   int64 - 总数
	//   error - 错误信息
	ListNotes(ctx context.Context, ownerID uint, query ListQuery) ([]NoteResponse, int64, error)

	// GetNote 根据ID获取笔记，不存在或不属于 ownerID 时返回 ErrNotFound
	GetNote(ctx context.Context, ownerID, noteID uint) (*NoteResponse, error)

	// CreateNote 创建笔记
	// 参数:
	//   ownerID - 所有者ID
	//   req - 创建请求
	// 返回:
	//   *NoteResponse - 创建的笔记
	//   error - 错误信息
	CreateNote(ctx context.Context, ownerID uint, req *NoteRequest) (*NoteResponse, error)

	// UpdateNote 更新笔记
	// 全量更新（partial 为 false）时 title 必填；只有提供 req.TagIDs 时才替换标签
	// 参数:
	//   ownerID - 所有者ID
	//   noteID - 笔记ID
	//   req - 更新请求
	//   partial - 是否为部分更新
	// 返回:
	//   *NoteResponse - 更新后的笔记
	//   error - 错误信息
	UpdateNote(ctx context.Context, ownerID, noteID uint, req *NoteRequest, partial bool) (*NoteResponse, error)

	// DeleteNote 删除笔记及其标签关联
	DeleteNote(ctx context.Context, ownerID, noteID uint) error

	// ReorderNotes 按 noteIDs 的顺序将 order_index 设为 0..N-1
	// 任一ID不存在或不属于 ownerID 时全部不修改
	// 参数:
	//   ownerID - 所有者ID
	//   noteIDs - 新的笔记顺序
	// 返回:
	//   []NoteResponse - 排序后的笔记
	//   error - 错误信息
	ReorderNotes(ctx context.Context, ownerID uint, noteIDs []uint) ([]NoteResponse, error)
}

// ListQuery 笔记列表查询条件
type ListQuery struct {
	// Search 匹配标题或内容的子串
	Search     string
	IsFavorite *bool
	IsTrashed  *bool
	Page       int
	PageSize   int
}

type noteService struct {
	db *gorm.DB
}

// NewNoteService 创建笔记服务实例
func NewNoteService(db *gorm.DB) NoteService {
	return &noteService{db: db}
}

// owned 限定为 ownerID 的笔记查询
func owned(db *gorm.DB, ownerID uint) *gorm.DB {
	return db.Model(&database.Note{}).Where("notes.owner_id = ?", ownerID)
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Owner").Preload("Tags", func(db *gorm.DB) *gorm.DB {
		return db.Order("tags.id ASC")
	})
}

func displayOrder(db *gorm.DB) *gorm.DB {
	return db.Order("notes.order_index ASC").Order("notes.updated_at DESC").Order("notes.id ASC")
}

func (s *noteService) ListNotes(ctx context.Context, ownerID uint, query ListQuery) ([]NoteResponse, int64, error) {
	q := owned(s.db.WithContext(ctx), ownerID)
	if search := strings.TrimSpace(query.Search); search != "" {
		like := database.ContainsPattern(search)
		q = q.Where("notes.title LIKE ? "+database.LikeEscapeClause+" OR notes.content LIKE ? "+database.LikeEscapeClause, like, like)
	}
	if query.IsFavorite != nil {
		q = q.Where("notes.is_favorite = ?", *query.IsFavorite)
	}
	if query.IsTrashed != nil {
		q = q.Where("notes.is_trashed = ?", *query.IsTrashed)
	}
	// 计数和分页查询共用
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal(apperrors.ErrDatabaseQuery, err)
	}

	q = displayOrder(withRelations(q))
	if query.Page > 0 {
		q = q.Offset((query.Page - 1) * query.PageSize).Limit(query.PageSize)
	}

	var notes []database.Note
	if err := q.Find(&notes).Error; err != nil {
		return nil, 0, apperrors.Internal(apperrors.ErrDatabaseQuery, err)
	}
	return toResponses(notes), total, nil
}

// load 加载一条属于 ownerID 的笔记及其关联
func load(db *gorm.DB, ownerID, noteID uint) (*database.Note, error) {
	var note database.Note
	if err := withRelations(owned(db, ownerID)).Where("notes.id = ?", noteID).First(&note).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperrors.NotFound()
		}
		return nil, apperrors.Internal(apperrors.ErrDatabaseQuery, err)
	}
	return &note, nil
}

func (s *noteService) GetNote(ctx context.Context, ownerID, noteID uint) (*NoteResponse, error) {
	note, err := load(s.db.WithContext(ctx), ownerID, noteID)
	if err != nil {
		return nil, err
	}
	resp := ToResponse(note)
	return &resp, nil
}

func (s *noteService) CreateNote(ctx context.Context, ownerID uint, req *NoteRequest) (*NoteResponse, error) {
	title := PlaceholderTitle
	verr := apperrors.Newf(apperrors.ErrValidation)
	if req.Title != nil {
		title = checkTitle(verr, *req.Title)
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	// 未提供 content 时存空串，显式 null 保持 NULL
	empty := ""
	content := &empty
	if req.Content.Set {
		content = req.Content.Value
	}
	note := &database.Note{
		Title:   title,
		Content: content,
		OwnerID: ownerID,
	}
	if req.IsFavorite != nil {
		note.IsFavorite = *req.IsFavorite
	}
	if req.IsTrashed != nil {
		note.IsTrashed = *req.IsTrashed
	}
	if req.OrderIndex != nil {
		note.OrderIndex = *req.OrderIndex
	}

	var created *database.Note
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tagIDs []uint
		if req.TagIDs != nil {
			ids, err := checkTagIDs(tx, *req.TagIDs)
			if err != nil {
				return err
			}
			tagIDs = ids
		}

		if err := tx.Omit(clause.Associations).Create(note).Error; err != nil {
			return apperrors.Internal(apperrors.ErrDatabaseInsert, err)
		}
		if err := setTags(tx, note.ID, tagIDs); err != nil {
			return err
		}

		var err error
		created, err = load(tx, ownerID, note.ID)
		return err
	})
	if err != nil {
		return nil, asAppError(err)
	}

	logger.WithFields(logrus.Fields{"note_id": created.ID, "owner_id": ownerID}).Debug("note created")
	resp := ToResponse(created)
	return &resp, nil
}

func (s *noteService) UpdateNote(ctx context.Context, ownerID, noteID uint, req *NoteRequest, partial bool) (*NoteResponse, error) {
	var updated *database.Note
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		note, err := load(tx, ownerID, noteID)
		if err != nil {
			return err
		}

		verr := apperrors.Newf(apperrors.ErrValidation)
		updates := map[string]interface{}{}
		switch {
		case req.Title != nil:
			updates["title"] = checkTitle(verr, *req.Title)
		case !partial:
			verr.WithField("title", translate("field_required"))
		}
		if len(verr.Fields) > 0 {
			return verr
		}

		if req.Content.Set {
			updates["content"] = req.Content.Value
		}
		if req.IsFavorite != nil {
			updates["is_favorite"] = *req.IsFavorite
		}
		if req.IsTrashed != nil {
			updates["is_trashed"] = *req.IsTrashed
		}
		if req.OrderIndex != nil {
			updates["order_index"] = *req.OrderIndex
		}

		if req.TagIDs != nil {
			ids, err := checkTagIDs(tx, *req.TagIDs)
			if err != nil {
				return err
			}
			if err := setTags(tx, note.ID, ids); err != nil {
				return err
			}
		}

		// 任何修改（包括只改标签）都刷新 updated_at
		updates["updated_at"] = time.Now()
		if err := tx.Model(&database.Note{}).Where("id = ? AND owner_id = ?", note.ID, ownerID).
			Updates(updates).Error; err != nil {
			return apperrors.Internal(apperrors.ErrDatabaseUpdate, err)
		}

		updated, err = load(tx, ownerID, noteID)
		return err
	})
	if err != nil {
		return nil, asAppError(err)
	}

	resp := ToResponse(updated)
	return &resp, nil
}

func (s *noteService) DeleteNote(ctx context.Context, ownerID, noteID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var note database.Note
		if err := owned(tx, ownerID).Where("notes.id = ?", noteID).First(&note).Error; err != nil {
			if database.IsNotFound(err) {
				return apperrors.NotFound()
			}
			return apperrors.Internal(apperrors.ErrDatabaseQuery, err)
		}

		if err := tx.Where("note_id = ?", note.ID).Delete(&database.NoteTag{}).Error; err != nil {
			return apperrors.Internal(apperrors.ErrDatabaseDelete, err)
		}
		if err := tx.Delete(&note).Error; err != nil {
			return apperrors.Internal(apperrors.ErrDatabaseDelete, err)
		}
		return nil
	})
	return asAppError(err)
}

func (s *noteService) ReorderNotes(ctx context.Context, ownerID uint, noteIDs []uint) ([]NoteResponse, error) {
	if len(noteIDs) == 0 {
		return nil, apperrors.Validation("note_ids", translate("list_empty"))
	}
	seen := make(map[uint]bool, len(noteIDs))
	verr := apperrors.Newf(apperrors.ErrValidation)
	for _, id := range noteIDs {
		if seen[id] {
			verr.WithField("note_ids", translatef("duplicate_pk", id))
		}
		seen[id] = true
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	var notes []database.Note
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := owned(tx, ownerID).Where("notes.id IN ?", noteIDs)
		if database.SupportsRowLocks(tx) {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var found []uint
		if err := q.Pluck("notes.id", &found).Error; err != nil {
			return apperrors.Internal(apperrors.ErrDatabaseQuery, err)
		}

		// 别人的笔记ID与不存在的ID报同样的错误
		present := make(map[uint]bool, len(found))
		for _, id := range found {
			present[id] = true
		}
		for _, id := range noteIDs {
			if !present[id] {
				verr.WithField("note_ids", translatef("invalid_pk", id))
			}
		}
		if len(verr.Fields) > 0 {
			return verr
		}

		now := time.Now()
		for position, id := range noteIDs {
			if err := tx.Model(&database.Note{}).Where("id = ? AND owner_id = ?", id, ownerID).
				Updates(map[string]interface{}{"order_index": position, "updated_at": now}).Error; err != nil {
				return apperrors.Internal(apperrors.ErrDatabaseUpdate, err)
			}
		}

		return withRelations(owned(tx, ownerID)).Where("notes.id IN ?", noteIDs).
			Order("notes.order_index ASC").Find(&notes).Error
	})
	if err != nil {
		return nil, asAppError(err)
	}

	logger.WithFields(logrus.Fields{"owner_id": ownerID, "count": len(noteIDs)}).Info("notes reordered")
	return toResponses(notes), nil
}

// checkTitle 去除首尾空白并把校验错误记录到 verr
func checkTitle(verr *apperrors.AppError, title string) string {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		verr.WithField("title", translate("field_blank"))
	case utf8.RuneCountInString(title) > maxTitleLength:
		verr.WithField("title", translatef("field_too_long", maxTitleLength))
	}
	return title
}

// checkTagIDs 去重并校验每个标签都存在
func checkTagIDs(tx *gorm.DB, ids []uint) ([]uint, error) {
	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return unique, nil
	}

	var existing []uint
	if err := tx.Model(&database.Tag{}).Where("id IN ?", unique).Pluck("id", &existing).Error; err != nil {
		return nil, apperrors.Internal(apperrors.ErrDatabaseQuery, err)
	}
	present := make(map[uint]bool, len(existing))
	for _, id := range existing {
		present[id] = true
	}

	verr := apperrors.Newf(apperrors.ErrValidation)
	for _, id := range unique {
		if !present[id] {
			verr.WithField("tag_ids", translatef("invalid_pk", id))
		}
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}
	return unique, nil
}

// setTags 用 tagIDs 替换笔记的标签关联
func setTags(tx *gorm.DB, noteID uint, tagIDs []uint) error {
	if err := tx.Where("note_id = ?", noteID).Delete(&database.NoteTag{}).Error; err != nil {
		return apperrors.Internal(apperrors.ErrDatabaseDelete, err)
	}
	if len(tagIDs) == 0 {
		return nil
	}

	links := make([]database.NoteTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		links = append(links, database.NoteTag{NoteID: noteID, TagID: id})
	}
	if err := tx.Create(&links).Error; err != nil {
		return apperrors.Internal(apperrors.ErrDatabaseInsert, err)
	}
	return nil
}

// asAppError 应用错误原样返回，其他错误包装为事务失败
func asAppError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.GetAppError(err); ok {
		return err
	}
	return apperrors.Internal(apperrors.ErrDatabaseTransaction, err)
}

func translate(key string) string {
	tr := i18n.GetInstance()
	return tr.Translate(key, tr.GetDefaultLanguage())
}

func translatef(key string, args ...interface{}) string {
	tr := i18n.GetInstance()
	return tr.Translatef(key, tr.GetDefaultLanguage(), args...)
}
