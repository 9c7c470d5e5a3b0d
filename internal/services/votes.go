package services

import (
	"errors"
	"time"

	"promptu/internal/models"

	"gorm.io/gorm"
)

// VoteService 负责投票切换：台账行和冗余计数器在同一个事务里变更，
// 两者不允许出现分叉。
type VoteService struct {
	db *gorm.DB
}

func NewVoteService(db *gorm.DB) *VoteService {
	return &VoteService{db: db}
}

// VoteResult 是投票切换后的最新状态
type VoteResult struct {
	Upvoted       bool   `json:"upvoted"`
	Downvoted     bool   `json:"downvoted"`
	UpvoteCount   int    `json:"upvoteCount"`
	DownvoteCount int    `json:"downvoteCount"`
	NetScore      int    `json:"netScore"`
	Message       string `json:"message"`
}

// VoteStatus 是当前用户在某内容上的投票状态（只读）
type VoteStatus struct {
	Upvoted       bool `json:"upvoted"`
	Downvoted     bool `json:"downvoted"`
	UpvoteCount   int  `json:"upvoteCount"`
	DownvoteCount int  `json:"downvoteCount"`
	NetScore      int  `json:"netScore"`
}

// voteRow 台账行的通用扫描结构
type voteRow struct {
	ID    uint
	Value int
}

// counterRow 内容表上的计数器
type counterRow struct {
	Upvotes   int
	Downvotes int
}

// Toggle 切换一个用户在某内容上的投票。
// value 为 models.VoteUp 或 models.VoteDown。
//
// 状态机：
//   - 同方向已有票 -> 删台账行，计数器 -1（到 0 为止），voted=false
//   - 反方向已有票 -> 先删旧行并回退其计数器，再插新行 +1
//   - 没投过       -> 插新行 +1
func (s *VoteService) Toggle(kind models.ContentKind, contentID, userID uint, value int) (*VoteResult, error) {
	if value != models.VoteUp && value != models.VoteDown {
		return nil, ErrInvalidDirection
	}
	if value == models.VoteDown && !kind.HasDownvotes {
		return nil, ErrInvalidDirection
	}

	result := &VoteResult{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing voteRow
		err := tx.Table(kind.VoteTable).
			Select("id, value").
			Where(kind.ContentFK+" = ? AND user_id = ?", contentID, userID).
			Take(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		found := err == nil

		if found && existing.Value == value {
			// 同方向重复操作 = 取消投票
			if err := tx.Table(kind.VoteTable).Where("id = ?", existing.ID).Delete(&voteRow{}).Error; err != nil {
				return err
			}
			if err := decrementCounter(tx, kind, contentID, value); err != nil {
				return err
			}
			result.Message = "Vote removed"
			return nil
		}

		if found {
			// 不能同时持有赞和踩：先撤销反方向
			if err := tx.Table(kind.VoteTable).Where("id = ?", existing.ID).Delete(&voteRow{}).Error; err != nil {
				return err
			}
			if err := decrementCounter(tx, kind, contentID, existing.Value); err != nil {
				return err
			}
		}

		if err := tx.Table(kind.VoteTable).Create(map[string]interface{}{
			kind.ContentFK: contentID,
			"user_id":      userID,
			"value":        value,
			"created_at":   time.Now(),
		}).Error; err != nil {
			return err
		}
		if err := incrementCounter(tx, kind, contentID, value); err != nil {
			return err
		}

		if value == models.VoteUp {
			result.Upvoted = true
			result.Message = "Upvote added"
		} else {
			result.Downvoted = true
			result.Message = "Downvote added"
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	counters, err := s.readCounters(kind, contentID)
	if err != nil {
		return nil, err
	}
	result.UpvoteCount = counters.Upvotes
	result.DownvoteCount = counters.Downvotes
	result.NetScore = counters.Upvotes - counters.Downvotes
	return result, nil
}

// Status 返回当前用户的投票状态和计数，不做任何变更
func (s *VoteService) Status(kind models.ContentKind, contentID, userID uint) (*VoteStatus, error) {
	status := &VoteStatus{}

	if userID != 0 {
		var existing voteRow
		err := s.db.Table(kind.VoteTable).
			Select("id, value").
			Where(kind.ContentFK+" = ? AND user_id = ?", contentID, userID).
			Take(&existing).Error
		if err == nil {
			status.Upvoted = existing.Value == models.VoteUp
			status.Downvoted = existing.Value == models.VoteDown
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	counters, err := s.readCounters(kind, contentID)
	if err != nil {
		return nil, err
	}
	status.UpvoteCount = counters.Upvotes
	status.DownvoteCount = counters.Downvotes
	status.NetScore = counters.Upvotes - counters.Downvotes
	return status, nil
}

func (s *VoteService) readCounters(kind models.ContentKind, contentID uint) (*counterRow, error) {
	cols := "upvotes, 0 as downvotes"
	if kind.HasDownvotes {
		cols = "upvotes, downvotes"
	}
	var row counterRow
	err := s.db.Table(kind.Table).Select(cols).Where("id = ?", contentID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func counterColumn(value int) string {
	if value == models.VoteDown {
		return "downvotes"
	}
	return "upvotes"
}

func incrementCounter(tx *gorm.DB, kind models.ContentKind, contentID uint, value int) error {
	col := counterColumn(value)
	return tx.Table(kind.Table).
		Where("id = ?", contentID).
		UpdateColumn(col, gorm.Expr(col+" + ?", 1)).Error
}

// decrementCounter 带下限保护：计数器为 0 时不再减，避免出现负数
func decrementCounter(tx *gorm.DB, kind models.ContentKind, contentID uint, value int) error {
	col := counterColumn(value)
	return tx.Table(kind.Table).
		Where("id = ? AND "+col+" > 0", contentID).
		UpdateColumn(col, gorm.Expr(col+" - ?", 1)).Error
}
