package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"promptu/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	// ViewWindow 同一访客对同一内容的浏览在这个窗口内只计一次
	ViewWindow = time.Hour
	// localViewLimit 本地兜底 map 的大小上限，超过后清理过期条目
	localViewLimit = 1000
)

// ViewService 负责浏览计数和去重。
// 去重先查 Redis，再查进程内的兜底 map；任意一边命中都不再计数。
// Redis 不可用时整个链路退化为单进程去重，绝不影响主请求。
type ViewService struct {
	db  *gorm.DB
	rdb *redis.Client // 可能为 nil（未配置或连接失败）

	mu    sync.Mutex
	local map[string]time.Time
}

// NewViewService 创建浏览计数服务。redisURL 为空或连不上时禁用 Redis，
// 只用本地 map 去重。
func NewViewService(conn *gorm.DB, redisURL string) *ViewService {
	s := &ViewService{
		db:    conn,
		local: make(map[string]time.Time),
	}

	if redisURL == "" {
		log.Println("redis: no URL configured, view dedup falls back to local map")
		return s
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("redis: invalid URL %q, view dedup falls back to local map: %v", redisURL, err)
		return s
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("redis: connection failed, view dedup falls back to local map: %v", err)
		return s
	}

	log.Println("redis: connected, view dedup enabled")
	s.rdb = rdb
	return s
}

// RecordView 给内容 +1 浏览量，规则：
//  1. 作者看自己的内容不计数
//  2. 同一 (slug, 访客) 在 ViewWindow 内只计一次
//  3. 去重缓存任何一边故障都静默跳过，不影响响应
func (s *ViewService) RecordView(ctx context.Context, kind models.ContentKind, contentID, authorID uint, slug, viewer string) {
	if viewer == "" {
		viewer = "anonymous"
	}
	// 作者自己的浏览不计数
	if authorID != 0 && viewer == fmt.Sprintf("%d", authorID) {
		return
	}

	key := fmt.Sprintf("view:%s:%s", slug, viewer)

	// 两边独立检查，任一命中即跳过
	if s.seenInRedis(ctx, key) || s.seenLocally(key) {
		return
	}

	if err := s.db.Table(kind.Table).
		Where("id = ?", contentID).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error; err != nil {
		log.Printf("views: increment failed for %s/%s: %v", kind.Table, slug, err)
		return
	}

	// 写入去重标记，两边都是尽力而为
	s.markInRedis(ctx, key)
	s.markLocally(key)
}

func (s *ViewService) seenInRedis(ctx context.Context, key string) bool {
	if s.rdb == nil {
		return false
	}
	err := s.rdb.Get(ctx, key).Err()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		// Redis 故障按未命中处理，多计一次浏览是可接受的误差
		log.Printf("views: redis get error: %v", err)
		return false
	}
	return true
}

func (s *ViewService) markInRedis(ctx context.Context, key string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Set(ctx, key, "1", ViewWindow).Err(); err != nil {
		log.Printf("views: redis set error: %v", err)
	}
}

func (s *ViewService) seenLocally(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.local[key]
	if !ok {
		return false
	}
	if time.Since(at) > ViewWindow {
		delete(s.local, key)
		return false
	}
	return true
}

func (s *ViewService) markLocally(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local[key] = time.Now()

	// 超过上限时顺手清理过期条目
	if len(s.local) > localViewLimit {
		cutoff := time.Now().Add(-ViewWindow)
		for k, at := range s.local {
			if at.Before(cutoff) {
				delete(s.local, k)
			}
		}
	}
}

// RecordCopy 复制计数：无去重、无登录要求，存储层原子自增
func (s *ViewService) RecordCopy(kind models.ContentKind, contentID uint) (int, error) {
	if err := s.db.Table(kind.Table).
		Where("id = ?", contentID).
		UpdateColumn("copy_count", gorm.Expr("copy_count + ?", 1)).Error; err != nil {
		return 0, err
	}

	var row struct{ CopyCount int }
	if err := s.db.Table(kind.Table).Select("copy_count").Where("id = ?", contentID).Take(&row).Error; err != nil {
		return 0, err
	}
	return row.CopyCount, nil
}
