package note

import (
	"encoding/json"
	"time"

	"github.com/weiwangfds/notebox/internal/database"
	"github.com/weiwangfds/notebox/internal/service/tag"
)

// NoteRequest 笔记请求
// 只有这里列出的字段可写，所有者和时间戳始终由服务端设置。
// 字段为 nil 表示客户端未提供（或传了 null）；
// content 是唯一可为空的列，因此单独区分显式 null 和未提供
type NoteRequest struct {
	Title      *string        `json:"title"`
	Content    OptionalString `json:"content"`
	IsFavorite *bool          `json:"is_favorite"`
	IsTrashed  *bool          `json:"is_trashed"`
	OrderIndex *int           `json:"order_index"`
	TagIDs     *[]uint        `json:"tag_ids"`
}

// OptionalString 可能缺失、为 null 或有值的 JSON 字符串字段
type OptionalString struct {
	Set   bool
	Value *string
}

// NewOptionalString 返回已提供的字段，v 为 nil 表示显式 null
func NewOptionalString(v *string) OptionalString {
	return OptionalString{Set: true, Value: v}
}

// UnmarshalJSON 只有键存在时才会调用，因此在这里标记为已提供
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// ReorderRequest 笔记排序请求
type ReorderRequest struct {
	NoteIDs []uint `json:"note_ids"`
}

// NoteResponse 笔记响应
type NoteResponse struct {
	ID            uint              `json:"id"`
	Title         string            `json:"title"`
	Content       *string           `json:"content"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Tags          []tag.TagResponse `json:"tags"`
	IsFavorite    bool              `json:"is_favorite"`
	IsTrashed     bool              `json:"is_trashed"`
	OrderIndex    int               `json:"order_index"`
	OwnerUsername string            `json:"owner_username"`
}

// ToResponse 将笔记模型（需预加载 Owner 和 Tags）转换为响应
func ToResponse(n *database.Note) NoteResponse {
	tags := make([]tag.TagResponse, 0, len(n.Tags))
	for i := range n.Tags {
		tags = append(tags, tag.ToResponse(&n.Tags[i]))
	}
	return NoteResponse{
		ID:            n.ID,
		Title:         n.Title,
		Content:       n.Content,
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
		Tags:          tags,
		IsFavorite:    n.IsFavorite,
		IsTrashed:     n.IsTrashed,
		OrderIndex:    n.OrderIndex,
		OwnerUsername: n.Owner.Username,
	}
}

func toResponses(notes []database.Note) []NoteResponse {
	out := make([]NoteResponse, 0, len(notes))
	for i := range notes {
		out = append(out, ToResponse(&notes[i]))
	}
	return out
}
