package services

import (
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"promptu/internal/models"
	"promptu/internal/utils"

	"gorm.io/gorm"
)

const (
	trendingCacheTTL = 180 * time.Second
	statsCacheTTL    = 300 * time.Second
	hotWindow        = 24 * time.Hour
	hotFetchLimit    = 200
)

// StatsService 提供排行和社区统计的只读查询，结果带短 TTL 缓存。
// 缓存失效只会带来一次多余的查询，不构成正确性问题。
type StatsService struct {
	db    *gorm.DB
	cache *utils.Cache
}

func NewStatsService(conn *gorm.DB, cache *utils.Cache) *StatsService {
	return &StatsService{db: conn, cache: cache}
}

// CategoryCount 分类及其下的内容数
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PromptBrief 统计里引用的内容摘要
type PromptBrief struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Upvotes int    `json:"upvotes"`
}

// CommunityStats 社区全量统计
type CommunityStats struct {
	TotalPrompts     int64           `json:"totalPrompts"`
	TotalUsers       int64           `json:"totalUsers"`
	PromptsThisWeek  int64           `json:"promptsThisWeek"`
	PromptsThisMonth int64           `json:"promptsThisMonth"`
	TotalUpvotes     int64           `json:"totalUpvotes"`
	TotalCopies      int64           `json:"totalCopies"`
	AvgUpvotes       float64         `json:"avgUpvotes"`
	TopCategories    []CategoryCount `json:"topCategories"`
	MostUpvoted      *PromptBrief    `json:"mostUpvoted"`
}

// TrendingPrompts 按时间窗筛选已发布内容，按点赞数降序、同分新帖在前。
// 这里的 net_score 等于 upvotes：排行是公开人气榜，点踩不参与排序，
// 和投票接口返回的 netScore（赞减踩）口径刻意不同。
func (s *StatsService) TrendingPrompts(limit int, timeframe string) ([]models.Prompt, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}

	cacheKey := fmt.Sprintf("stats:trending:%d:%s", limit, timeframe)
	if cached := s.cache.Get(cacheKey); cached != nil {
		if prompts, ok := cached.([]models.Prompt); ok {
			return prompts, nil
		}
	}

	query := s.db.Model(&models.Prompt{}).Where("published = ?", true)
	if cutoff, ok := timeframeCutoff(timeframe, time.Now()); ok {
		query = query.Where("created_at >= ?", cutoff)
	}

	var prompts []models.Prompt
	if err := query.
		Order("upvotes DESC, created_at DESC").
		Limit(limit).
		Find(&prompts).Error; err != nil {
		return nil, err
	}

	for i := range prompts {
		prompts[i].NetScore = prompts[i].Upvotes
	}

	s.cache.Set(cacheKey, prompts, trendingCacheTTL)
	return prompts, nil
}

// timeframeCutoff 把时间窗参数换算成创建时间下界，all/未知返回 ok=false
func timeframeCutoff(timeframe string, now time.Time) (time.Time, bool) {
	switch timeframe {
	case "daily":
		return now.Add(-24 * time.Hour), true
	case "weekly":
		return now.AddDate(0, 0, -7), true
	case "monthly":
		return now.AddDate(0, 0, -30), true
	default:
		return time.Time{}, false
	}
}

// HotPrompts 取最近 24 小时的内容，按"每小时赞数"速率排序。
// 数据量小（最多取 200 条），在内存里排序即可。
func (s *StatsService) HotPrompts(limit int) ([]models.Prompt, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}

	cacheKey := fmt.Sprintf("stats:hot:%d", limit)
	if cached := s.cache.Get(cacheKey); cached != nil {
		if prompts, ok := cached.([]models.Prompt); ok {
			return prompts, nil
		}
	}

	var prompts []models.Prompt
	if err := s.db.Model(&models.Prompt{}).
		Where("published = ? AND created_at >= ?", true, time.Now().Add(-hotWindow)).
		Limit(hotFetchLimit).
		Find(&prompts).Error; err != nil {
		return nil, err
	}

	rankByVelocity(prompts, time.Now())
	if len(prompts) > limit {
		prompts = prompts[:limit]
	}
	for i := range prompts {
		prompts[i].NetScore = prompts[i].Upvotes
	}

	s.cache.Set(cacheKey, prompts, trendingCacheTTL)
	return prompts, nil
}

// rankByVelocity 按点赞速率（赞数/已发布小时数）降序排序，同速率比原始赞数。
// 发布不足 1 小时按 1 小时算，避免刚发布的内容速率被无限放大。
func rankByVelocity(prompts []models.Prompt, now time.Time) {
	velocity := func(p models.Prompt) float64 {
		hours := now.Sub(p.CreatedAt).Hours()
		if hours < 1 {
			hours = 1
		}
		return float64(p.Upvotes) / hours
	}
	sort.SliceStable(prompts, func(i, j int) bool {
		vi, vj := velocity(prompts[i]), velocity(prompts[j])
		if vi != vj {
			return vi > vj
		}
		return prompts[i].Upvotes > prompts[j].Upvotes
	})
}

// CommunityStats 汇总社区统计。缓存 300 秒；未命中时六个查询并行执行。
func (s *StatsService) CommunityStats() (*CommunityStats, error) {
	const cacheKey = "stats:community"
	if cached := s.cache.Get(cacheKey); cached != nil {
		if stats, ok := cached.(*CommunityStats); ok {
			return stats, nil
		}
	}

	stats := &CommunityStats{}
	now := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	wg.Add(6)

	go func() {
		defer wg.Done()
		if err := s.db.Model(&models.Prompt{}).Where("published = ?", true).Count(&stats.TotalPrompts).Error; err != nil {
			fail(err)
		}
	}()

	go func() {
		defer wg.Done()
		if err := s.db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
			fail(err)
		}
	}()

	go func() {
		defer wg.Done()
		if err := s.db.Model(&models.Prompt{}).
			Where("published = ? AND created_at >= ?", true, now.AddDate(0, 0, -7)).
			Count(&stats.PromptsThisWeek).Error; err != nil {
			fail(err)
		}
	}()

	go func() {
		defer wg.Done()
		if err := s.db.Model(&models.Prompt{}).
			Where("published = ? AND created_at >= ?", true, now.AddDate(0, 0, -30)).
			Count(&stats.PromptsThisMonth).Error; err != nil {
			fail(err)
		}
	}()

	go func() {
		defer wg.Done()
		var sums struct {
			Upvotes int64
			Copies  int64
		}
		if err := s.db.Model(&models.Prompt{}).
			Select("COALESCE(SUM(upvotes), 0) as upvotes, COALESCE(SUM(copy_count), 0) as copies").
			Where("published = ?", true).
			Scan(&sums).Error; err != nil {
			fail(err)
			return
		}
		mu.Lock()
		stats.TotalUpvotes = sums.Upvotes
		stats.TotalCopies = sums.Copies
		mu.Unlock()

		var top models.Prompt
		err := s.db.Model(&models.Prompt{}).
			Select("slug, title, upvotes").
			Where("published = ?", true).
			Order("upvotes DESC, created_at DESC").
			Take(&top).Error
		if err == nil {
			mu.Lock()
			stats.MostUpvoted = &PromptBrief{Slug: top.Slug, Title: top.Title, Upvotes: top.Upvotes}
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		var top []CategoryCount
		if err := s.db.Table("prompts").
			Select("categories.name as name, COUNT(prompts.id) as count").
			Joins("JOIN categories ON categories.id = prompts.category_id").
			Where("prompts.published = ?", true).
			Group("categories.name").
			Order("count DESC").
			Limit(5).
			Scan(&top).Error; err != nil {
			fail(err)
			return
		}
		mu.Lock()
		stats.TopCategories = top
		mu.Unlock()
	}()

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	if stats.TotalPrompts > 0 {
		stats.AvgUpvotes = round2(float64(stats.TotalUpvotes) / float64(stats.TotalPrompts))
	}

	s.cache.Set(cacheKey, stats, statsCacheTTL)
	return stats, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// InvalidateCommunityStats 供写路径在需要时主动清掉统计缓存
func (s *StatsService) InvalidateCommunityStats() {
	s.cache.Delete("stats:community")
	log.Println("stats: community cache invalidated")
}
