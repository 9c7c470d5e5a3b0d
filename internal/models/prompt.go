package models

import (
	"time"
)

// Prompt 类型常量，对应不同的 AI 模型
const (
	PromptTypeChatGPT = "chatgpt"
	PromptTypeClaude  = "claude"
	PromptTypeGemini  = "gemini"
	PromptTypeOther   = "other"
)

type Prompt struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Slug       string    `gorm:"uniqueIndex;size:120;not null" json:"slug"` // ^[a-z0-9-]+$, 最少 3 位
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	User       User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	CategoryID uint      `gorm:"not null;index;default:1" json:"category_id"`
	Category   Category  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category"`
	Title      string    `gorm:"not null" json:"title"`
	Excerpt    string    `gorm:"size:300" json:"excerpt"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	PromptType string    `gorm:"size:20;not null;default:'other'" json:"prompt_type"`
	Tags       string    `gorm:"size:300" json:"tags"` // 逗号分隔
	Published  bool      `gorm:"default:false;index" json:"published"`
	Upvotes    int       `gorm:"default:0;not null" json:"upvotes"` // 计数器不会小于 0
	Downvotes  int       `gorm:"default:0;not null" json:"downvotes"`
	Views      int       `gorm:"default:0;not null" json:"views"`
	CopyCount  int       `gorm:"default:0;not null" json:"copy_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// 非数据库字段，用于查询时填充
	NetScore int `gorm:"-" json:"net_score"`
}

// ValidPromptTypes 创建/更新时允许的类型
var ValidPromptTypes = map[string]bool{
	PromptTypeChatGPT: true,
	PromptTypeClaude:  true,
	PromptTypeGemini:  true,
	PromptTypeOther:   true,
}
