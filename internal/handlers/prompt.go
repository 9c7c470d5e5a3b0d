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

type PromptHandler struct {
	db      *gorm.DB
	views   *services.ViewService
	stats   *services.StatsService
	discord *services.DiscordService
}

func NewPromptHandler(conn *gorm.DB, views *services.ViewService, stats *services.StatsService, discord *services.DiscordService) *PromptHandler {
	return &PromptHandler{
		db:      conn,
		views:   views,
		stats:   stats,
		discord: discord,
	}
}

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// List 分页列出已发布的 Prompt，支持类型/分类/搜索/排序过滤
func (h *PromptHandler) List(c *gin.Context) {
	page := utils.QueryInt(c.Query("page"), 1)
	limit := utils.QueryInt(c.Query("limit"), defaultPageSize)
	if limit > maxPageSize {
		limit = maxPageSize
	}

	query := h.db.Model(&models.Prompt{}).Where("published = ?", true)

	if promptType := c.Query("type"); promptType != "" {
		query = query.Where("prompt_type = ?", promptType)
	}
	if category := c.Query("category"); category != "" {
		query = query.Joins("JOIN categories ON categories.id = prompts.category_id").
			Where("categories.slug = ?", category)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("title ILIKE ? OR excerpt ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to list prompts")
		return
	}

	switch c.Query("sort") {
	case "popular":
		query = query.Order("views DESC, created_at DESC")
	case "upvotes":
		query = query.Order("upvotes DESC, created_at DESC")
	default: // recent
		query = query.Order("created_at DESC")
	}

	var prompts []models.Prompt
	if err := query.Preload("User").Preload("Category").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&prompts).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to list prompts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"prompts":    prompts,
		"pagination": NewPagination(page, limit, total),
	})
}

type promptRequest struct {
	Title      string   `json:"title"`
	Excerpt    string   `json:"excerpt"`
	Content    string   `json:"content"`
	PromptType string   `json:"promptType"`
	CategoryID uint     `json:"categoryId"`
	Slug       string   `json:"slug"`
	Tags       []string `json:"tags"`
	Published  *bool    `json:"published"`
}

func (r *promptRequest) validate() []string {
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
	if r.PromptType != "" && !models.ValidPromptTypes[r.PromptType] {
		details = append(details, "promptType must be one of chatgpt, claude, gemini, other")
	}
	return details
}

// Create 创建 Prompt。slug 必须合法且全局唯一；
// 直接发布时异步推送 Discord 通知。
func (h *PromptHandler) Create(c *gin.Context) {
	user := CurrentUser(c)

	var req promptRequest
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

	// slug 全局唯一，冲突返回 409 且不动已有记录
	var count int64
	h.db.Model(&models.Prompt{}).Where("slug = ?", req.Slug).Count(&count)
	if count > 0 {
		JSONError(c, http.StatusConflict, "slug already in use")
		return
	}

	if req.PromptType == "" {
		req.PromptType = models.PromptTypeOther
	}
	if req.CategoryID == 0 {
		req.CategoryID = 1
	}
	published := req.Published != nil && *req.Published

	prompt := models.Prompt{
		Slug:       req.Slug,
		UserID:     user.ID,
		CategoryID: req.CategoryID,
		Title:      strings.TrimSpace(req.Title),
		Excerpt:    utils.SanitizeText(req.Excerpt),
		Content:    req.Content,
		PromptType: req.PromptType,
		Tags:       strings.Join(req.Tags, ","),
		Published:  published,
	}

	if err := h.db.Create(&prompt).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to create prompt")
		return
	}

	if published {
		h.discord.NotifyNewPrompt(prompt.Title, prompt.Excerpt, prompt.Slug, user.Username)
		h.stats.InvalidateCommunityStats()
	}

	c.JSON(http.StatusCreated, gin.H{"prompt": prompt})
}

// Get 按 slug 取详情。未发布的内容只有作者可见，其他人一律 404，
// 不暴露资源是否存在。浏览计数在这里触发。
func (h *PromptHandler) Get(c *gin.Context) {
	slug := c.Param("slug")
	user := CurrentUser(c)

	var prompt models.Prompt
	if err := h.db.Preload("User").Preload("Category").Where("slug = ?", slug).First(&prompt).Error; err != nil {
		JSONError(c, http.StatusNotFound, "prompt not found")
		return
	}

	if !prompt.Published && (user == nil || user.ID != prompt.UserID) {
		JSONError(c, http.StatusNotFound, "prompt not found")
		return
	}

	h.views.RecordView(c.Request.Context(), models.PromptKind, prompt.ID, prompt.UserID, prompt.Slug, ViewerKey(c, user))

	// RecordView 改的是数据库行，响应里同步反映（作者自己浏览不计）
	if user == nil || user.ID != prompt.UserID {
		prompt.Views++
	}
	prompt.NetScore = prompt.Upvotes - prompt.Downvotes

	c.JSON(http.StatusOK, gin.H{
		"prompt":       prompt,
		"content_html": utils.RenderMarkdown(prompt.Content),
	})
}

// Update 仅作者可改；slug 不可变更
func (h *PromptHandler) Update(c *gin.Context) {
	user := CurrentUser(c)

	prompt, ok := h.ownedPrompt(c, user)
	if !ok {
		return
	}

	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if details := req.validate(); len(details) > 0 {
		JSONValidationError(c, details)
		return
	}

	wasPublished := prompt.Published

	updates := map[string]interface{}{
		"title":   strings.TrimSpace(req.Title),
		"excerpt": utils.SanitizeText(req.Excerpt),
		"content": req.Content,
	}
	if req.PromptType != "" {
		updates["prompt_type"] = req.PromptType
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

	if err := h.db.Model(prompt).Updates(updates).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to update prompt")
		return
	}
	// 重新读一遍，map 更新不会回填结构体
	if err := h.db.First(prompt, prompt.ID).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to update prompt")
		return
	}

	// 首次发布才通知，重复保存不刷屏
	if !wasPublished && prompt.Published {
		h.discord.NotifyNewPrompt(prompt.Title, prompt.Excerpt, prompt.Slug, user.Username)
		h.stats.InvalidateCommunityStats()
	}

	c.JSON(http.StatusOK, gin.H{"prompt": prompt})
}

// Delete 仅作者可删，台账和评论级联清掉
func (h *PromptHandler) Delete(c *gin.Context) {
	user := CurrentUser(c)

	prompt, ok := h.ownedPrompt(c, user)
	if !ok {
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("prompt_id = ?", prompt.ID).Delete(&models.PromptVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("prompt_id = ?", prompt.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(prompt).Error
	})
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to delete prompt")
		return
	}

	h.stats.InvalidateCommunityStats()
	c.JSON(http.StatusOK, gin.H{"message": "prompt deleted"})
}

// Copy 复制计数：匿名可用，原子自增
func (h *PromptHandler) Copy(c *gin.Context) {
	slug := c.Param("slug")

	var prompt models.Prompt
	if err := h.db.Select("id, published").Where("slug = ?", slug).First(&prompt).Error; err != nil || !prompt.Published {
		JSONError(c, http.StatusNotFound, "prompt not found")
		return
	}

	count, err := h.views.RecordCopy(models.PromptKind, prompt.ID)
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to record copy")
		return
	}

	c.JSON(http.StatusOK, gin.H{"copyCount": count})
}

// ListComments 某 Prompt 下的评论，按时间正序
func (h *PromptHandler) ListComments(c *gin.Context) {
	slug := c.Param("slug")

	var prompt models.Prompt
	if err := h.db.Select("id, published").Where("slug = ?", slug).First(&prompt).Error; err != nil || !prompt.Published {
		JSONError(c, http.StatusNotFound, "prompt not found")
		return
	}

	var comments []models.Comment
	h.db.Preload("User").Where("prompt_id = ?", prompt.ID).Order("created_at ASC").Find(&comments)

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

type commentRequest struct {
	Body string `json:"body"`
}

// CreateComment 发表评论，需登录
func (h *PromptHandler) CreateComment(c *gin.Context) {
	user := CurrentUser(c)
	slug := c.Param("slug")

	var prompt models.Prompt
	if err := h.db.Select("id, published").Where("slug = ?", slug).First(&prompt).Error; err != nil || !prompt.Published {
		JSONError(c, http.StatusNotFound, "prompt not found")
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Body) == "" {
		JSONValidationError(c, []string{"body is required"})
		return
	}

	comment := models.Comment{
		PromptID: prompt.ID,
		UserID:   user.ID,
		Body:     utils.SanitizeText(req.Body),
	}
	if err := h.db.Create(&comment).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to create comment")
		return
	}
	comment.User = *user

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// ownedPrompt 解析 slug 并做所有权检查，失败时已写好响应
func (h *PromptHandler) ownedPrompt(c *gin.Context, user *models.User) (*models.Prompt, bool) {
	slug := c.Param("slug")

	var prompt models.Prompt
	err := h.db.Where("slug = ?", slug).First(&prompt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		JSONError(c, http.StatusNotFound, "prompt not found")
		return nil, false
	}
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to load prompt")
		return nil, false
	}

	if prompt.UserID != user.ID {
		JSONError(c, http.StatusForbidden, "permission denied")
		return nil, false
	}
	return &prompt, true
}
