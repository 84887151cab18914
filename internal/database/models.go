// Package database 提供数据模型和数据库连接
//
// 文件说明:
//   - models.go: 用户模型
//   - note_models.go: 笔记、标签及 note_tags 中间表模型
//   - database.go: 连接与连接池配置
//   - migrations.go: 数据库迁移、索引和初始数据
//   - errors.go: 驱动错误识别
//   - search.go: LIKE 模式转义
package database

import "time"

// User 用户模型，笔记的所有者
// Password 保存 bcrypt 哈希，永不序列化
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Username  string    `gorm:"not null;uniqueIndex;size:150" json:"username"`
	Password  string    `gorm:"not null;size:255" json:"-"`
	CreatedAt time.Time `json:"date_joined"`
	UpdatedAt time.Time `json:"-"`

	Notes []Note `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
