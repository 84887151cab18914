package database

import (
	"fmt"

	"github.com/weiwangfds/notebox/internal/logger"
	"gorm.io/gorm"
)

// Migrate 执行数据库迁移
// 注册自定义中间表，迁移所有模型并创建复合索引，可重复执行
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Note{}, "Tags", &NoteTag{}); err != nil {
		return fmt.Errorf("setup note_tags join table: %w", err)
	}

	if err := db.AutoMigrate(
		&User{},
		&Tag{},
		&Note{},
	); err != nil {
		return err
	}

	for _, stmt := range caseSensitiveColumns(db.Dialector.Name()) {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("set binary collation: %w", err)
		}
	}

	return createIndexes(db)
}

// caseSensitiveColumns 返回让标签名和用户名区分大小写的 DDL
// MySQL 默认的 utf8mb4 排序规则不区分大小写，"Go" 会与 "go" 在唯一索引上冲突。
// SQLite 的 = 本身按二进制比较
func caseSensitiveColumns(dialect string) []string {
	if dialect != "mysql" {
		return nil
	}
	return []string{
		"ALTER TABLE tags MODIFY name VARCHAR(50) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL",
		"ALTER TABLE users MODIFY username VARCHAR(150) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL",
	}
}

// createIndexes 创建支撑默认列表排序的复合索引
func createIndexes(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_notes_owner_order ON notes(owner_id, order_index, updated_at)",
	}
	if db.Dialector.Name() == "mysql" {
		// MySQL 不支持 CREATE INDEX IF NOT EXISTS
		if db.Migrator().HasIndex(&Note{}, "idx_notes_owner_order") {
			return nil
		}
		indexes = []string{
			"CREATE INDEX idx_notes_owner_order ON notes(owner_id, order_index, updated_at)",
		}
	}

	for _, indexSQL := range indexes {
		if err := db.Exec(indexSQL).Error; err != nil {
			logger.Errorf("create index failed: %s: %v", indexSQL, err)
			return err
		}
	}
	return nil
}

// DefaultSeedTags `migrate --seed` 写入的初始标签
var DefaultSeedTags = []string{"work", "personal", "ideas", "reading", "todo"}

// SeedTags 写入初始标签，已存在的名称跳过
// 返回:
//   int - 新建的标签数量
//   error - 错误信息
func SeedTags(db *gorm.DB, names []string) (int, error) {
	created := 0
	for _, name := range names {
		var count int64
		if err := db.Model(&Tag{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return created, fmt.Errorf("seed tag %q: %w", name, err)
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&Tag{Name: name}).Error; err != nil {
			return created, fmt.Errorf("seed tag %q: %w", name, err)
		}
		created++
	}
	logger.Infof("seeded %d tags", created)
	return created, nil
}
