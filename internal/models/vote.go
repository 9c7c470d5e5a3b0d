package models

import (
	"time"
)

// 投票方向
const (
	VoteUp   = 1
	VoteDown = -1
)

// PromptVote 是 Prompt 的投票台账，每个 (prompt, user) 最多一行。
// 一行的存在是"该用户是否投过票"的唯一事实来源，
// 唯一索引兜底并发下的重复插入。
type PromptVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PromptID  uint      `gorm:"not null;uniqueIndex:idx_prompt_user_vote" json:"prompt_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_prompt_user_vote;index" json:"user_id"`
	Value     int       `gorm:"not null" json:"value"` // 1 or -1
	CreatedAt time.Time `json:"created_at"`
}

// RuleVote 是 CursorRule 的投票台账，只有点赞方向（Value 恒为 1）。
type RuleVote struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CursorRuleID uint      `gorm:"not null;uniqueIndex:idx_rule_user_vote" json:"cursor_rule_id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_rule_user_vote;index" json:"user_id"`
	Value        int       `gorm:"not null;default:1" json:"value"`
	CreatedAt    time.Time `json:"created_at"`
}

// ContentKind 描述一种内容变体对应的表结构。
// 投票/浏览/复制逻辑只写一份，通过它作用在不同的表上。
type ContentKind struct {
	Table        string // 内容表
	VoteTable    string // 投票台账表
	ContentFK    string // 台账表里指向内容的外键列
	HasDownvotes bool   // 是否支持点踩
}

var (
	PromptKind = ContentKind{
		Table:        "prompts",
		VoteTable:    "prompt_votes",
		ContentFK:    "prompt_id",
		HasDownvotes: true,
	}
	CursorRuleKind = ContentKind{
		Table:        "cursor_rules",
		VoteTable:    "rule_votes",
		ContentFK:    "cursor_rule_id",
		HasDownvotes: false,
	}
)
