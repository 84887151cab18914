// Package tag 提供标签管理相关的业务逻辑服务
// 标签对所有已认证用户可见，名称全局唯一
package tag

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/weiwangfds/notebox/internal/database"
	apperrors "github.com/weiwangfds/notebox/internal/errors"
	"github.com/weiwangfds/notebox/internal/i18n"
	"github.com/weiwangfds/notebox/internal/logger"
	"gorm.io/gorm"
)

const maxNameLength = 50

// TagService 标签服务接口
type TagService interface {
	// CreateTag 创建新标签
	// 参数:
	//   req - 创建标签请求
	// 返回:
	//   *TagResponse - 创建的标签
	//   error - 名称已存在时为 name 字段的校验错误
	CreateTag(ctx context.Context, req *TagRequest) (*TagResponse, error)

	// GetTagByID 根据ID获取标签
	GetTagByID(ctx context.Context, id uint) (*TagResponse, error)

	// ListTags 按名称排序获取标签列表，Page 为 0 时返回全部
	ListTags(ctx context.Context, query ListQuery) ([]TagResponse, int64, error)

	// UpdateTag 更新标签名称，全量更新时 name 必填
	UpdateTag(ctx context.Context, id uint, req *TagRequest, partial bool) (*TagResponse, error)

	// DeleteTag 删除标签及其笔记关联，笔记本身保留
	DeleteTag(ctx context.Context, id uint) error
}

// TagRequest 标签请求，只有 name 可写
type TagRequest struct {
	Name *string `json:"name"`
}

// TagResponse 标签响应
type TagResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// ListQuery 标签列表查询条件
type ListQuery struct {
	Search   string
	Page     int
	PageSize int
}

// ToResponse 将标签模型转换为响应
func ToResponse(t *database.Tag) TagResponse {
	return TagResponse{ID: t.ID, Name: t.Name}
}

type tagService struct {
	db *gorm.DB
}

// NewTagService 创建标签服务实例
func NewTagService(db *gorm.DB) TagService {
	return &tagService{db: db}
}

// validateName 去除首尾空白并校验长度和唯一性，excludeID 为正在改名的标签
func (s *tagService) validateName(ctx context.Context, name *string, excludeID uint) (string, error) {
	tr := i18n.GetInstance()
	lang := tr.GetDefaultLanguage()

	if name == nil {
		return "", apperrors.Validation("name", tr.Translate("field_required", lang))
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return "", apperrors.Validation("name", tr.Translate("field_blank", lang))
	}
	if utf8.RuneCountInString(trimmed) > maxNameLength {
		return "", apperrors.Validation("name", tr.Translatef("field_too_long", lang, maxNameLength))
	}

	var count int64
	q := s.db.WithContext(ctx).Model(&database.Tag{}).Where("name = ?", trimmed)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return "", apperrors.Internal(apperrors.ErrDatabaseQuery, err)
	}
	if count > 0 {
		return "", nameTaken()
	}
	return trimmed, nil
}

func nameTaken() *apperrors.AppError {
	tr := i18n.GetInstance()
	return apperrors.Validation("name", tr.Translate("tag_name_taken", tr.GetDefaultLanguage()))
}

func (s *tagService) CreateTag(ctx context.Context, req *TagRequest) (*TagResponse, error) {
	name, err := s.validateName(ctx, req.Name, 0)
	if err != nil {
		return nil, err
	}

	tag := &database.Tag{Name: name}
	if err := s.db.WithContext(ctx).Create(tag).Error; err != nil {
		// 检查和写入之间名称被并发请求占用
		if database.IsUniqueViolation(err) {
			return nil, nameTaken()
		}
		return nil, apperrors.Internal(apperrors.ErrDatabaseInsert, err)
	}

	logger.WithField("tag_id", tag.ID).Debugf("created tag %q", tag.Name)
	resp := ToResponse(tag)
	return &resp, nil
}

func (s *tagService) find(ctx context.Context, id uint) (*database.Tag, error) {
	var tag database.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperrors.NotFound()
		}
		return nil, apperrors.Internal(apperrors.ErrDatabaseQuery, err)
	}
	return &tag, nil
}

func (s *tagService) GetTagByID(ctx context.Context, id uint) (*TagResponse, error) {
	tag, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToResponse(tag)
	return &resp, nil
}

func (s *tagService) ListTags(ctx context.Context, query ListQuery) ([]TagResponse, int64, error) {
	q := s.db.WithContext(ctx).Model(&database.Tag{})
	if search := strings.TrimSpace(query.Search); search != "" {
		// MySQL 上 name 为二进制排序规则，搜索仍不区分大小写
		q = q.Where("LOWER(name) LIKE LOWER(?) "+database.LikeEscapeClause, database.ContainsPattern(search))
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal(apperrors.ErrDatabaseQuery, err)
	}

	q = q.Order("name ASC").Order("id ASC")
	if query.Page > 0 {
		q = q.Offset((query.Page - 1) * query.PageSize).Limit(query.PageSize)
	}

	var tags []database.Tag
	if err := q.Find(&tags).Error; err != nil {
		return nil, 0, apperrors.Internal(apperrors.ErrDatabaseQuery, err)
	}

	out := make([]TagResponse, 0, len(tags))
	for i := range tags {
		out = append(out, ToResponse(&tags[i]))
	}
	return out, total, nil
}

func (s *tagService) UpdateTag(ctx context.Context, id uint, req *TagRequest, partial bool) (*TagResponse, error) {
	tag, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name == nil && partial {
		resp := ToResponse(tag)
		return &resp, nil
	}

	name, err := s.validateName(ctx, req.Name, tag.ID)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(tag).Update("name", name).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, nameTaken()
		}
		return nil, apperrors.Internal(apperrors.ErrDatabaseUpdate, err)
	}

	resp := ToResponse(tag)
	return &resp, nil
}

func (s *tagService) DeleteTag(ctx context.Context, id uint) error {
	tag, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", tag.ID).Delete(&database.NoteTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(tag).Error
	})
	if err != nil {
		return apperrors.Internal(apperrors.ErrDatabaseTransaction, err)
	}
	return nil
}
