package models

import (
	"time"
)

// CursorRule 规则类型常量
const (
	RuleTypeGeneral = "general"
	RuleTypeProject = "project"
)

// CursorRule 是编辑器配置规则，和 Prompt 共享投票/浏览/复制逻辑，
// 但只支持点赞（没有 Downvotes 字段）。
type CursorRule struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Slug       string    `gorm:"uniqueIndex;size:120;not null" json:"slug"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	User       User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	CategoryID uint      `gorm:"not null;index;default:1" json:"category_id"`
	Category   Category  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category"`
	Title      string    `gorm:"not null" json:"title"`
	Excerpt    string    `gorm:"size:300" json:"excerpt"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	RuleType   string    `gorm:"size:20;not null;default:'general'" json:"rule_type"`
	Tags       string    `gorm:"size:300" json:"tags"`
	Published  bool      `gorm:"default:false;index" json:"published"`
	Upvotes    int       `gorm:"default:0;not null" json:"upvotes"`
	Views      int       `gorm:"default:0;not null" json:"views"`
	CopyCount  int       `gorm:"default:0;not null" json:"copy_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

var ValidRuleTypes = map[string]bool{
	RuleTypeGeneral: true,
	RuleTypeProject: true,
}
