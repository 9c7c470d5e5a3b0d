package router

import (
	"promptu/internal/handlers"
	"promptu/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers 聚合所有处理器，由 main 构造后传入
type Handlers struct {
	Auth       *handlers.AuthHandler
	Prompt     *handlers.PromptHandler
	CursorRule *handlers.CursorRuleHandler
	Vote       *handlers.VoteHandler
	Stats      *handlers.StatsHandler
	User       *handlers.UserHandler
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	api := r.Group("/api")

	// 认证 (Auth)
	api.POST("/auth/register", h.Auth.Register) // 注册
	api.POST("/auth/login", h.Auth.Login)       // 登录
	api.POST("/auth/logout", h.Auth.Logout)     // 退出登录

	// 公共路由 (Public Routes)
	api.GET("/prompts", h.Prompt.List)                        // Prompt 列表
	api.GET("/prompts/trending", h.Stats.Trending)            // 点赞排行
	api.GET("/prompts/hot", h.Stats.Hot)                      // 24 小时热度排行
	api.GET("/prompts/:slug", h.Prompt.Get)                   // Prompt 详情（计浏览量）
	api.POST("/prompts/:slug/copy", h.Prompt.Copy)            // 复制计数（匿名可用）
	api.GET("/prompts/:slug/vote", h.Vote.PromptVoteStatus)   // 投票状态查询
	api.GET("/prompts/:slug/comments", h.Prompt.ListComments) // 评论列表

	api.GET("/cursor-rules", h.CursorRule.List)                 // 规则列表
	api.GET("/cursor-rules/:slug", h.CursorRule.Get)            // 规则详情（计浏览量）
	api.POST("/cursor-rules/:slug/copy", h.CursorRule.Copy)     // 复制计数
	api.GET("/cursor-rules/:slug/vote", h.Vote.RuleVoteStatus)  // 点赞状态查询
	api.GET("/stats/community", h.Stats.Community)              // 社区统计

	// 受保护路由 (Protected Routes)
	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/prompts", h.Prompt.Create)                        // 创建 Prompt
		authorized.PUT("/prompts/:slug", h.Prompt.Update)                   // 更新（仅作者）
		authorized.DELETE("/prompts/:slug", h.Prompt.Delete)                // 删除（仅作者）
		authorized.POST("/prompts/:slug/vote", h.Vote.VotePrompt)           // 投票切换
		authorized.POST("/prompts/:slug/comments", h.Prompt.CreateComment)  // 发表评论

		authorized.POST("/cursor-rules", h.CursorRule.Create)         // 创建规则
		authorized.PUT("/cursor-rules/:slug", h.CursorRule.Update)    // 更新（仅作者）
		authorized.DELETE("/cursor-rules/:slug", h.CursorRule.Delete) // 删除（仅作者）
		authorized.POST("/cursor-rules/:slug/vote", h.Vote.VoteRule)  // 点赞切换

		authorized.GET("/user/profile", h.User.Profile)          // 个人资料
		authorized.PUT("/user/profile", h.User.UpdateProfile)    // 更新资料
		authorized.DELETE("/user/profile", h.User.DeleteAccount) // 注销账号
	}
}
