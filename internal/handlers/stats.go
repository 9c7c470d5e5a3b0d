package handlers

import (
	"net/http"

	"promptu/internal/services"
	"promptu/internal/utils"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	stats *services.StatsService
}

func NewStatsHandler(stats *services.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Trending 按时间窗的点赞排行
func (h *StatsHandler) Trending(c *gin.Context) {
	limit := utils.QueryInt(c.Query("limit"), 10)
	timeframe := c.DefaultQuery("timeframe", "all")

	prompts, err := h.stats.TrendingPrompts(limit, timeframe)
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to load trending prompts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"prompts":   prompts,
		"timeframe": timeframe,
	})
}

// Hot 最近 24 小时的点赞速率排行
func (h *StatsHandler) Hot(c *gin.Context) {
	limit := utils.QueryInt(c.Query("limit"), 10)

	prompts, err := h.stats.HotPrompts(limit)
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to load hot prompts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"prompts": prompts})
}

// Community 社区统计汇总
func (h *StatsHandler) Community(c *gin.Context) {
	stats, err := h.stats.CommunityStats()
	if err != nil {
		JSONError(c, http.StatusInternalServerError, "failed to load community stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}
