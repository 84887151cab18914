package database

import "time"

// Note 笔记模型
// 删除为物理删除；IsTrashed 只是由客户端维护的回收站标记
type Note struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Title      string    `gorm:"not null;size:200" json:"title"`
	Content    *string   `gorm:"type:text" json:"content"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	IsFavorite bool      `gorm:"not null;default:false" json:"is_favorite"`
	IsTrashed  bool      `gorm:"not null;default:false" json:"is_trashed"`
	OrderIndex int       `gorm:"not null;default:0;index" json:"order_index"`
	OwnerID    uint      `gorm:"not null;index" json:"-"`

	Owner User  `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Tags  []Tag `gorm:"many2many:note_tags;constraint:OnDelete:CASCADE" json:"tags"`
}

// TableName 指定表名
func (Note) TableName() string {
	return "notes"
}

// Tag 标签模型，所有用户共享，名称全局唯一
type Tag struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"not null;uniqueIndex;size:50" json:"name"`
}

// TableName 指定表名
func (Tag) TableName() string {
	return "tags"
}

// NoteTag 笔记-标签关联表，通过 SetupJoinTable 注册为 Note.Tags 的中间表
type NoteTag struct {
	NoteID    uint      `gorm:"primaryKey"`
	TagID     uint      `gorm:"primaryKey;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName 指定表名
func (NoteTag) TableName() string {
	return "note_tags"
}
