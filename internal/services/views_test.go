package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"promptu/internal/models"
)

func newLocalViewService(t *testing.T) (*ViewService, *models.Prompt, *models.User) {
	t.Helper()
	conn := testDB(t)
	author := seedUser(t, conn, "author")
	prompt := seedPrompt(t, conn, author.ID, "view-target")
	// redisURL 为空 -> 只有本地 map 去重
	return NewViewService(conn, ""), prompt, author
}

func promptViews(t *testing.T, s *ViewService, id uint) int {
	t.Helper()
	var row struct{ Views int }
	if err := s.db.Table("prompts").Select("views").Where("id = ?", id).Take(&row).Error; err != nil {
		t.Fatalf("failed to read views: %v", err)
	}
	return row.Views
}

func TestViewDedupWindow(t *testing.T) {
	svc, prompt, author := newLocalViewService(t)
	ctx := context.Background()

	// 同一访客窗口内刷 N 次只计 1 次
	for i := 0; i < 5; i++ {
		svc.RecordView(ctx, models.PromptKind, prompt.ID, author.ID, prompt.Slug, "10.0.0.1")
	}
	if views := promptViews(t, svc, prompt.ID); views != 1 {
		t.Errorf("expected 1 view after repeated requests, got %d", views)
	}

	// 窗口过期后再访问会计第 2 次
	key := fmt.Sprintf("view:%s:%s", prompt.Slug, "10.0.0.1")
	svc.mu.Lock()
	svc.local[key] = time.Now().Add(-2 * ViewWindow)
	svc.mu.Unlock()

	svc.RecordView(ctx, models.PromptKind, prompt.ID, author.ID, prompt.Slug, "10.0.0.1")
	if views := promptViews(t, svc, prompt.ID); views != 2 {
		t.Errorf("expected 2 views after window expiry, got %d", views)
	}
}

func TestDifferentViewersCountSeparately(t *testing.T) {
	svc, prompt, author := newLocalViewService(t)
	ctx := context.Background()

	svc.RecordView(ctx, models.PromptKind, prompt.ID, author.ID, prompt.Slug, "10.0.0.1")
	svc.RecordView(ctx, models.PromptKind, prompt.ID, author.ID, prompt.Slug, "10.0.0.2")
	svc.RecordView(ctx, models.PromptKind, prompt.ID, author.ID, prompt.Slug, "")

	// 两个 IP 加一个匿名访客 = 3 次
	if views := promptViews(t, svc, prompt.ID); views != 3 {
		t.Errorf("expected 3 views from distinct viewers, got %d", views)
	}
}

func TestAuthorViewNeverCounts(t *testing.T) {
	svc, prompt, author := newLocalViewService(t)
	ctx := context.Background()

	// 作者的访客标识就是自己的用户 ID
	authorKey := fmt.Sprintf("%d", author.ID)
	for i := 0; i < 3; i++ {
		svc.RecordView(ctx, models.PromptKind, prompt.ID, author.ID, prompt.Slug, authorKey)
	}

	if views := promptViews(t, svc, prompt.ID); views != 0 {
		t.Errorf("expected author views to be exempt, got %d", views)
	}
}

func TestLocalMapPruning(t *testing.T) {
	svc, prompt, author := newLocalViewService(t)
	ctx := context.Background()

	// 塞满过期条目，下一次标记应触发清理
	svc.mu.Lock()
	stale := time.Now().Add(-2 * ViewWindow)
	for i := 0; i <= localViewLimit; i++ {
		svc.local[fmt.Sprintf("view:old-%d:1.2.3.4", i)] = stale
	}
	svc.mu.Unlock()

	svc.RecordView(ctx, models.PromptKind, prompt.ID, author.ID, prompt.Slug, "10.0.0.9")

	svc.mu.Lock()
	size := len(svc.local)
	svc.mu.Unlock()
	if size > localViewLimit {
		t.Errorf("expected stale entries pruned, map still holds %d entries", size)
	}
}

func TestRecordCopy(t *testing.T) {
	svc, prompt, _ := newLocalViewService(t)

	// 复制计数没有去重
	for i := 1; i <= 3; i++ {
		count, err := svc.RecordCopy(models.PromptKind, prompt.ID)
		if err != nil {
			t.Fatalf("RecordCopy failed: %v", err)
		}
		if count != i {
			t.Errorf("expected copy count %d, got %d", i, count)
		}
	}
}
