package handlers

import (
	"errors"
	"net/http"

	"promptu/internal/models"
	"promptu/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type VoteHandler struct {
	db    *gorm.DB
	votes *services.VoteService
}

func NewVoteHandler(conn *gorm.DB, votes *services.VoteService) *VoteHandler {
	return &VoteHandler{db: conn, votes: votes}
}

type voteRequest struct {
	Type string `json:"type"` // "upvote" or "downvote"
}

func voteValue(voteType string) (int, bool) {
	switch voteType {
	case "upvote":
		return models.VoteUp, true
	case "downvote":
		return models.VoteDown, true
	default:
		return 0, false
	}
}

// VotePrompt 切换当前用户对某 Prompt 的投票（赞/踩）
func (h *VoteHandler) VotePrompt(c *gin.Context) {
	user := CurrentUser(c)

	prompt, ok := h.resolvePrompt(c)
	if !ok {
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	value, ok := voteValue(req.Type)
	if !ok {
		JSONError(c, http.StatusBadRequest, "type must be upvote or downvote")
		return
	}

	result, err := h.votes.Toggle(models.PromptKind, prompt.ID, user.ID, value)
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to record vote")
		return
	}

	c.JSON(http.StatusOK, result)
}

// PromptVoteStatus 只读查询当前用户的投票状态
func (h *VoteHandler) PromptVoteStatus(c *gin.Context) {
	prompt, ok := h.resolvePrompt(c)
	if !ok {
		return
	}

	userID := uint(0)
	if user := CurrentUser(c); user != nil {
		userID = user.ID
	}

	status, err := h.votes.Status(models.PromptKind, prompt.ID, userID)
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to load vote status")
		return
	}

	c.JSON(http.StatusOK, status)
}

// VoteRule 切换对 CursorRule 的点赞；该变体不支持点踩
func (h *VoteHandler) VoteRule(c *gin.Context) {
	user := CurrentUser(c)

	rule, ok := h.resolveRule(c)
	if !ok {
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	value, ok := voteValue(req.Type)
	if !ok {
		JSONError(c, http.StatusBadRequest, "type must be upvote")
		return
	}

	result, err := h.votes.Toggle(models.CursorRuleKind, rule.ID, user.ID, value)
	if errors.Is(err, services.ErrInvalidDirection) {
		JSONError(c, http.StatusBadRequest, "cursor rules only support upvotes")
		return
	}
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to record vote")
		return
	}

	c.JSON(http.StatusOK, result)
}

// RuleVoteStatus 只读查询当前用户对规则的点赞状态
func (h *VoteHandler) RuleVoteStatus(c *gin.Context) {
	rule, ok := h.resolveRule(c)
	if !ok {
		return
	}

	userID := uint(0)
	if user := CurrentUser(c); user != nil {
		userID = user.ID
	}

	status, err := h.votes.Status(models.CursorRuleKind, rule.ID, userID)
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to load vote status")
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *VoteHandler) resolvePrompt(c *gin.Context) (*models.Prompt, bool) {
	var prompt models.Prompt
	err := h.db.Select("id, user_id, published").Where("slug = ?", c.Param("slug")).First(&prompt).Error
	if err != nil || !prompt.Published {
		JSONError(c, http.StatusNotFound, "prompt not found")
		return nil, false
	}
	return &prompt, true
}

func (h *VoteHandler) resolveRule(c *gin.Context) (*models.CursorRule, bool) {
	var rule models.CursorRule
	err := h.db.Select("id, user_id, published").Where("slug = ?", c.Param("slug")).First(&rule).Error
	if err != nil || !rule.Published {
		JSONError(c, http.StatusNotFound, "cursor rule not found")
		return nil, false
	}
	return &rule, true
}
