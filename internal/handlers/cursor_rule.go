package handlers

import (
	"errors"
	"net/http"
	"strings"

	"promptu/internal/models"
	"promptu/internal/services"
	"promptu/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CursorRuleHandler 和 PromptHandler 是同一套流程作用在另一张表上；
// 区别只有字段集（无 downvotes）和投票契约（仅点赞）。
type CursorRuleHandler struct {
	db      *gorm.DB
	views   *services.ViewService
	discord *services.DiscordService
}

func NewCursorRuleHandler(conn *gorm.DB, views *services.ViewService, discord *services.DiscordService) *CursorRuleHandler {
	return &CursorRuleHandler{
		db:      conn,
		views:   views,
		discord: discord,
	}
}

// List 分页列出已发布的规则
func (h *CursorRuleHandler) List(c *gin.Context) {
	page := utils.QueryInt(c.Query("page"), 1)
	limit := utils.QueryInt(c.Query("limit"), defaultPageSize)
	if limit > maxPageSize {
		limit = maxPageSize
	}

	query := h.db.Model(&models.CursorRule{}).Where("published = ?", true)

	if ruleType := c.Query("type"); ruleType != "" {
		query = query.Where("rule_type = ?", ruleType)
	}
	if category := c.Query("category"); category != "" {
		query = query.Joins("JOIN categories ON categories.id = cursor_rules.category_id").
			Where("categories.slug = ?", category)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("title ILIKE ? OR excerpt ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to list cursor rules")
		return
	}

	switch c.Query("sort") {
	case "popular":
		query = query.Order("views DESC, created_at DESC")
	case "upvotes":
		query = query.Order("upvotes DESC, created_at DESC")
	default:
		query = query.Order("created_at DESC")
	}

	var rules []models.CursorRule
	if err := query.Preload("User").Preload("Category").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&rules).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to list cursor rules")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cursorRules": rules,
		"pagination":  NewPagination(page, limit, total),
	})
}

type ruleRequest struct {
	Title      string   `json:"title"`
	Excerpt    string   `json:"excerpt"`
	Content    string   `json:"content"`
	RuleType   string   `json:"ruleType"`
	CategoryID uint     `json:"categoryId"`
	Slug       string   `json:"slug"`
	Tags       []string `json:"tags"`
	Published  *bool    `json:"published"`
}

func (r *ruleRequest) validate() []string {
	var details []string
	if strings.TrimSpace(r.Title) == "" {
		details = append(details, "title is required")
	}
	if len(r.Title) > 200 {
		details = append(details, "title must be at most 200 characters")
	}
	if strings.TrimSpace(r.Content) == "" {
		details = append(details, "content is required")
	}
	if len(r.Excerpt) > 300 {
		details = append(details, "excerpt must be at most 300 characters")
	}
	if r.RuleType != "" && !models.ValidRuleTypes[r.RuleType] {
		details = append(details, "ruleType must be one of general, project")
	}
	return details
}

func (h *CursorRuleHandler) Create(c *gin.Context) {
	user := CurrentUser(c)

	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	details := req.validate()
	if req.Slug == "" {
		req.Slug = utils.Slugify(req.Title)
	}
	if !utils.ValidSlug(req.Slug) {
		details = append(details, "slug must be at least 3 characters of lowercase letters, numbers and hyphens")
	}
	if len(details) > 0 {
		JSONValidationError(c, details)
		return
	}

	var count int64
	h.db.Model(&models.CursorRule{}).Where("slug = ?", req.Slug).Count(&count)
	if count > 0 {
		JSONError(c, http.StatusConflict, "slug already in use")
		return
	}

	if req.RuleType == "" {
		req.RuleType = models.RuleTypeGeneral
	}
	if req.CategoryID == 0 {
		req.CategoryID = 1
	}
	published := req.Published != nil && *req.Published

	rule := models.CursorRule{
		Slug:       req.Slug,
		UserID:     user.ID,
		CategoryID: req.CategoryID,
		Title:      strings.TrimSpace(req.Title),
		Excerpt:    utils.SanitizeText(req.Excerpt),
		Content:    req.Content,
		RuleType:   req.RuleType,
		Tags:       strings.Join(req.Tags, ","),
		Published:  published,
	}

	if err := h.db.Create(&rule).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to create cursor rule")
		return
	}

	if published {
		h.discord.NotifyNewRule(rule.Title, rule.Excerpt, rule.Slug, user.Username)
	}

	c.JSON(http.StatusCreated, gin.H{"cursorRule": rule})
}

func (h *CursorRuleHandler) Get(c *gin.Context) {
	slug := c.Param("slug")
	user := CurrentUser(c)

	var rule models.CursorRule
	if err := h.db.Preload("User").Preload("Category").Where("slug = ?", slug).First(&rule).Error; err != nil {
		JSONError(c, http.StatusNotFound, "cursor rule not found")
		return
	}

	if !rule.Published && (user == nil || user.ID != rule.UserID) {
		JSONError(c, http.StatusNotFound, "cursor rule not found")
		return
	}

	h.views.RecordView(c.Request.Context(), models.CursorRuleKind, rule.ID, rule.UserID, rule.Slug, ViewerKey(c, user))

	if user == nil || user.ID != rule.UserID {
		rule.Views++
	}

	c.JSON(http.StatusOK, gin.H{
		"cursorRule":   rule,
		"content_html": utils.RenderMarkdown(rule.Content),
	})
}

func (h *CursorRuleHandler) Update(c *gin.Context) {
	user := CurrentUser(c)

	rule, ok := h.ownedRule(c, user)
	if !ok {
		return
	}

	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if details := req.validate(); len(details) > 0 {
		JSONValidationError(c, details)
		return
	}

	wasPublished := rule.Published

	updates := map[string]interface{}{
		"title":   strings.TrimSpace(req.Title),
		"excerpt": utils.SanitizeText(req.Excerpt),
		"content": req.Content,
	}
	if req.RuleType != "" {
		updates["rule_type"] = req.RuleType
	}
	if req.CategoryID != 0 {
		updates["category_id"] = req.CategoryID
	}
	if req.Tags != nil {
		updates["tags"] = strings.Join(req.Tags, ",")
	}
	if req.Published != nil {
		updates["published"] = *req.Published
	}

	if err := h.db.Model(rule).Updates(updates).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to update cursor rule")
		return
	}
	// 重新读一遍，map 更新不会回填结构体
	if err := h.db.First(rule, rule.ID).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to update cursor rule")
		return
	}

	if !wasPublished && rule.Published {
		h.discord.NotifyNewRule(rule.Title, rule.Excerpt, rule.Slug, user.Username)
	}

	c.JSON(http.StatusOK, gin.H{"cursorRule": rule})
}

func (h *CursorRuleHandler) Delete(c *gin.Context) {
	user := CurrentUser(c)

	rule, ok := h.ownedRule(c, user)
	if !ok {
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cursor_rule_id = ?", rule.ID).Delete(&models.RuleVote{}).Error; err != nil {
			return err
		}
		return tx.Delete(rule).Error
	})
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to delete cursor rule")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "cursor rule deleted"})
}

func (h *CursorRuleHandler) Copy(c *gin.Context) {
	slug := c.Param("slug")

	var rule models.CursorRule
	if err := h.db.Select("id, published").Where("slug = ?", slug).First(&rule).Error; err != nil || !rule.Published {
		JSONError(c, http.StatusNotFound, "cursor rule not found")
		return
	}

	count, err := h.views.RecordCopy(models.CursorRuleKind, rule.ID)
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to record copy")
		return
	}

	c.JSON(http.StatusOK, gin.H{"copyCount": count})
}

func (h *CursorRuleHandler) ownedRule(c *gin.Context, user *models.User) (*models.CursorRule, bool) {
	slug := c.Param("slug")

	var rule models.CursorRule
	err := h.db.Where("slug = ?", slug).First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		JSONError(c, http.StatusNotFound, "cursor rule not found")
		return nil, false
	}
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to load cursor rule")
		return nil, false
	}

	if rule.UserID != user.ID {
		JSONError(c, http.StatusForbidden, "permission denied")
		return nil, false
	}
	return &rule, true
}
