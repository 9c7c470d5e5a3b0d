package handlers

import (
	"net/http"
	"promptu/internal/models"
	"promptu/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(conn *gorm.DB) *UserHandler {
	return &UserHandler{db: conn}
}

// Profile 返回当前用户资料和内容数量
func (h *UserHandler) Profile(c *gin.Context) {
	user := CurrentUser(c)

	var promptCount, ruleCount int64
	h.db.Model(&models.Prompt{}).Where("user_id = ?", user.ID).Count(&promptCount)
	h.db.Model(&models.CursorRule{}).Where("user_id = ?", user.ID).Count(&ruleCount)

	c.JSON(http.StatusOK, gin.H{
		"user":        user,
		"promptCount": promptCount,
		"ruleCount":   ruleCount,
	})
}

type updateProfileRequest struct {
	Username *string `json:"username"`
	Bio      *string `json:"bio"`
}

// UpdateProfile 更新用户名/简介，用户名要过格式校验且全局唯一
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user := CurrentUser(c)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	updates := map[string]interface{}{}

	if req.Username != nil && *req.Username != user.Username {
		if !utils.ValidUsername(*req.Username) {
			JSONValidationError(c, []string{"username must be at least 3 characters of letters, numbers, underscores or hyphens"})
			return
		}
		var count int64
		h.db.Model(&models.User{}).Where("username = ? AND id <> ?", *req.Username, user.ID).Count(&count)
		if count > 0 {
			JSONError(c, http.StatusConflict, "username already taken")
			return
		}
		updates["username"] = *req.Username
	}

	if req.Bio != nil {
		if len(*req.Bio) > 200 {
			JSONValidationError(c, []string{"bio must be at most 200 characters"})
			return
		}
		updates["bio"] = utils.SanitizeText(*req.Bio)
	}

	if len(updates) > 0 {
		if err := h.db.Model(user).Updates(updates).Error; err != nil {
			JSONError(c, http.StatusInternalServerError, "failed to update profile")
			return
		}
		// 重新读一遍，map 更新不会回填结构体
		if err := h.db.First(user, user.ID).Error; err != nil {
			JSONError(c, http.StatusInternalServerError, "failed to update profile")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteAccount 删除账号：内容、台账、评论一并清掉
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	user := CurrentUser(c)

	err := h.db.Transaction(func(tx *gorm.DB) error {
		// 先删除该用户内容下挂的台账和评论
		var promptIDs []uint
		tx.Model(&models.Prompt{}).Where("user_id = ?", user.ID).Pluck("id", &promptIDs)
		if len(promptIDs) > 0 {
			if err := tx.Where("prompt_id IN ?", promptIDs).Delete(&models.PromptVote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("prompt_id IN ?", promptIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}

		var ruleIDs []uint
		tx.Model(&models.CursorRule{}).Where("user_id = ?", user.ID).Pluck("id", &ruleIDs)
		if len(ruleIDs) > 0 {
			if err := tx.Where("cursor_rule_id IN ?", ruleIDs).Delete(&models.RuleVote{}).Error; err != nil {
				return err
			}
		}

		// 该用户自己投出的票：先回退对应内容上的计数器再删台账
		var promptVotes []models.PromptVote
		tx.Where("user_id = ?", user.ID).Find(&promptVotes)
		for _, v := range promptVotes {
			col := "upvotes"
			if v.Value == models.VoteDown {
				col = "downvotes"
			}
			if err := tx.Model(&models.Prompt{}).
				Where("id = ? AND "+col+" > 0", v.PromptID).
				UpdateColumn(col, gorm.Expr(col+" - ?", 1)).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.PromptVote{}).Error; err != nil {
			return err
		}

		var ruleVotes []models.RuleVote
		tx.Where("user_id = ?", user.ID).Find(&ruleVotes)
		for _, v := range ruleVotes {
			if err := tx.Model(&models.CursorRule{}).
				Where("id = ? AND upvotes > 0", v.CursorRuleID).
				UpdateColumn("upvotes", gorm.Expr("upvotes - ?", 1)).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.RuleVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		// 内容本体
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Prompt{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.CursorRule{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.User{}, user.ID).Error
	})
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to delete account")
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Save()

	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}
