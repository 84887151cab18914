package database

import "strings"

// likeEscape LIKE 模式的转义字符
// 使用 '!' 避开 MySQL 字符串字面量中的反斜杠处理，SQLite 也没有默认转义字符
const likeEscape = "!"

// LikeEscapeClause 紧跟在使用 ContainsPattern 的 `col LIKE ?` 之后
const LikeEscapeClause = "ESCAPE '" + likeEscape + "'"

var likeReplacer = strings.NewReplacer(
	likeEscape, likeEscape+likeEscape,
	"%", likeEscape+"%",
	"_", likeEscape+"_",
)

// ContainsPattern 返回按字面量匹配 term 的包含模式
func ContainsPattern(term string) string {
	return "%" + likeReplacer.Replace(term) + "%"
}
