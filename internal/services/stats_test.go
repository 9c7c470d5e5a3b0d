package services

import (
	"sync/atomic"
	"testing"
	"time"

	"promptu/internal/models"
	"promptu/internal/utils"

	"gorm.io/gorm"
)

func setCounters(t *testing.T, conn *gorm.DB, id uint, upvotes int, createdAt time.Time) {
	t.Helper()
	err := conn.Model(&models.Prompt{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{"upvotes": upvotes, "created_at": createdAt}).Error
	if err != nil {
		t.Fatalf("failed to set counters: %v", err)
	}
}

func TestTrendingOrderAndTieBreak(t *testing.T) {
	conn := testDB(t)
	svc := NewStatsService(conn, utils.NewCache(100))
	author := seedUser(t, conn, "author")

	now := time.Now()
	old := seedPrompt(t, conn, author.ID, "old-ten")
	fresh := seedPrompt(t, conn, author.ID, "fresh-ten")
	low := seedPrompt(t, conn, author.ID, "low-five")
	setCounters(t, conn, old.ID, 10, now.Add(-48*time.Hour))
	setCounters(t, conn, fresh.ID, 10, now.Add(-1*time.Hour))
	setCounters(t, conn, low.ID, 5, now.Add(-1*time.Hour))

	prompts, err := svc.TrendingPrompts(10, "all")
	if err != nil {
		t.Fatalf("TrendingPrompts failed: %v", err)
	}
	if len(prompts) != 3 {
		t.Fatalf("expected 3 prompts, got %d", len(prompts))
	}

	// 同分时新内容排在前面
	if prompts[0].Slug != "fresh-ten" || prompts[1].Slug != "old-ten" || prompts[2].Slug != "low-five" {
		t.Errorf("unexpected order: %s, %s, %s", prompts[0].Slug, prompts[1].Slug, prompts[2].Slug)
	}
	if prompts[0].NetScore != 10 {
		t.Errorf("expected netScore to mirror upvotes, got %d", prompts[0].NetScore)
	}
}

func TestTrendingTimeframeFilter(t *testing.T) {
	conn := testDB(t)
	svc := NewStatsService(conn, utils.NewCache(100))
	author := seedUser(t, conn, "author")

	now := time.Now()
	recent := seedPrompt(t, conn, author.ID, "this-week")
	ancient := seedPrompt(t, conn, author.ID, "last-month")
	setCounters(t, conn, recent.ID, 1, now.Add(-2*24*time.Hour))
	setCounters(t, conn, ancient.ID, 100, now.Add(-20*24*time.Hour))

	prompts, err := svc.TrendingPrompts(10, "weekly")
	if err != nil {
		t.Fatalf("TrendingPrompts failed: %v", err)
	}
	if len(prompts) != 1 || prompts[0].Slug != "this-week" {
		t.Errorf("expected only this-week in weekly window, got %d prompts", len(prompts))
	}

	// all 不过滤
	prompts, err = svc.TrendingPrompts(10, "all")
	if err != nil {
		t.Fatalf("TrendingPrompts failed: %v", err)
	}
	if len(prompts) != 2 {
		t.Errorf("expected both prompts for all, got %d", len(prompts))
	}
}

func TestTrendingExcludesUnpublished(t *testing.T) {
	conn := testDB(t)
	svc := NewStatsService(conn, utils.NewCache(100))
	author := seedUser(t, conn, "author")

	seedPrompt(t, conn, author.ID, "published-one")
	draft := seedPrompt(t, conn, author.ID, "draft-one")
	conn.Model(&models.Prompt{}).Where("id = ?", draft.ID).UpdateColumn("published", false)

	prompts, err := svc.TrendingPrompts(10, "all")
	if err != nil {
		t.Fatalf("TrendingPrompts failed: %v", err)
	}
	for _, p := range prompts {
		if p.Slug == "draft-one" {
			t.Error("draft should not appear in trending")
		}
	}
}

func TestRankByVelocity(t *testing.T) {
	now := time.Now()
	prompts := []models.Prompt{
		{Slug: "slow", Upvotes: 24, CreatedAt: now.Add(-24 * time.Hour)},   // 1/h
		{Slug: "fast", Upvotes: 10, CreatedAt: now.Add(-2 * time.Hour)},    // 5/h
		{Slug: "brand-new", Upvotes: 3, CreatedAt: now.Add(-10 * time.Minute)}, // 不足 1 小时按 1 小时算 -> 3/h
	}

	rankByVelocity(prompts, now)

	want := []string{"fast", "brand-new", "slow"}
	for i, slug := range want {
		if prompts[i].Slug != slug {
			t.Errorf("position %d: expected %s, got %s", i, slug, prompts[i].Slug)
		}
	}
}

func TestCommunityStats(t *testing.T) {
	conn := testDB(t)
	svc := NewStatsService(conn, utils.NewCache(100))
	author := seedUser(t, conn, "author")
	seedUser(t, conn, "lurker")

	category := models.Category{Name: "Coding", Slug: "coding"}
	if err := conn.Create(&category).Error; err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}

	now := time.Now()
	a := seedPrompt(t, conn, author.ID, "stats-a")
	b := seedPrompt(t, conn, author.ID, "stats-b")
	conn.Model(&models.Prompt{}).Where("id IN ?", []uint{a.ID, b.ID}).UpdateColumn("category_id", category.ID)
	setCounters(t, conn, a.ID, 7, now.Add(-2*24*time.Hour))
	setCounters(t, conn, b.ID, 3, now.Add(-20*24*time.Hour))
	conn.Model(&models.Prompt{}).Where("id = ?", a.ID).UpdateColumn("copy_count", 4)

	stats, err := svc.CommunityStats()
	if err != nil {
		t.Fatalf("CommunityStats failed: %v", err)
	}

	if stats.TotalPrompts != 2 || stats.TotalUsers != 2 {
		t.Errorf("expected 2 prompts / 2 users, got %d / %d", stats.TotalPrompts, stats.TotalUsers)
	}
	if stats.PromptsThisWeek != 1 || stats.PromptsThisMonth != 2 {
		t.Errorf("expected week 1 / month 2, got %d / %d", stats.PromptsThisWeek, stats.PromptsThisMonth)
	}
	if stats.TotalUpvotes != 10 || stats.TotalCopies != 4 {
		t.Errorf("expected 10 upvotes / 4 copies, got %d / %d", stats.TotalUpvotes, stats.TotalCopies)
	}
	if stats.AvgUpvotes != 5 {
		t.Errorf("expected avg 5, got %v", stats.AvgUpvotes)
	}
	if stats.MostUpvoted == nil || stats.MostUpvoted.Slug != "stats-a" {
		t.Errorf("unexpected most upvoted: %+v", stats.MostUpvoted)
	}
	if len(stats.TopCategories) != 1 || stats.TopCategories[0].Name != "Coding" || stats.TopCategories[0].Count != 2 {
		t.Errorf("unexpected top categories: %+v", stats.TopCategories)
	}
}

func TestCommunityStatsCached(t *testing.T) {
	conn := testDB(t)
	svc := NewStatsService(conn, utils.NewCache(100))
	author := seedUser(t, conn, "author")
	seedPrompt(t, conn, author.ID, "cache-check")

	if _, err := svc.CommunityStats(); err != nil {
		t.Fatalf("first CommunityStats failed: %v", err)
	}

	// 统计查询次数：命中缓存时不应再查库
	var queries int64
	err := conn.Callback().Query().After("gorm:query").Register("count_queries", func(*gorm.DB) {
		atomic.AddInt64(&queries, 1)
	})
	if err != nil {
		t.Fatalf("failed to register callback: %v", err)
	}

	if _, err := svc.CommunityStats(); err != nil {
		t.Fatalf("second CommunityStats failed: %v", err)
	}
	if n := atomic.LoadInt64(&queries); n != 0 {
		t.Errorf("expected cache hit with 0 queries, saw %d", n)
	}

	// 失效后重新查询
	svc.InvalidateCommunityStats()
	if _, err := svc.CommunityStats(); err != nil {
		t.Fatalf("CommunityStats after invalidation failed: %v", err)
	}
	if atomic.LoadInt64(&queries) == 0 {
		t.Error("expected fresh queries after invalidation")
	}
}
