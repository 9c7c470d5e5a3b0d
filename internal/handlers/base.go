package handlers

import (
	"fmt"
	"net/http"
	"promptu/internal/middleware"
	"promptu/internal/models"

	"github.com/gin-gonic/gin"
)

// JSONError 统一的错误响应结构 {error: ...}
func JSONError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

// JSONValidationError 校验失败时带上逐字段明细
func JSONValidationError(c *gin.Context, details []string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "validation failed",
		"details": details,
	})
}

// CurrentUser 取出 LoadUser 放进上下文的当前用户，未登录返回 nil
func CurrentUser(c *gin.Context) *models.User {
	if user, exists := c.Get(middleware.CheckUserKey); exists {
		return user.(*models.User)
	}
	return nil
}

// ViewerKey 浏览去重用的访客标识：优先用户 ID，其次客户端 IP
func ViewerKey(c *gin.Context, user *models.User) string {
	if user != nil {
		return fmt.Sprintf("%d", user.ID)
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "anonymous"
}

// Pagination 列表响应里的分页信息
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// NewPagination 由总数和页参数算出分页信息
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	if totalPages == 0 {
		totalPages = 1
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
