package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"promptu/internal/db"
	"promptu/internal/middleware"
	"promptu/internal/models"
	"promptu/internal/services"
	"promptu/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testHandler(t *testing.T) (*PromptHandler, *gorm.DB, *models.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	user := &models.User{Username: "author", Email: "author@example.com", Password: "x"}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	h := NewPromptHandler(
		conn,
		services.NewViewService(conn, ""),
		services.NewStatsService(conn, utils.NewCache(10)),
		&services.DiscordService{}, // disabled
	)
	return h, conn, user
}

func createPrompt(t *testing.T, h *PromptHandler, user *models.User, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(body)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/prompts", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.CheckUserKey, user)

	h.Create(c)
	return w
}

func TestCreatePromptSlugConflict(t *testing.T) {
	h, conn, user := testHandler(t)

	first := createPrompt(t, h, user, map[string]interface{}{
		"title":   "Code Reviewer",
		"content": "You are a strict code reviewer.",
		"slug":    "code-reviewer",
	})
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 for first create, got %d: %s", first.Code, first.Body.String())
	}

	second := createPrompt(t, h, user, map[string]interface{}{
		"title":   "Another Reviewer",
		"content": "Different body, same slug.",
		"slug":    "code-reviewer",
	})
	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate slug, got %d: %s", second.Code, second.Body.String())
	}

	// 冲突请求不能动已有记录
	var count int64
	conn.Model(&models.Prompt{}).Where("slug = ?", "code-reviewer").Count(&count)
	if count != 1 {
		t.Errorf("expected exactly 1 prompt for the slug, found %d", count)
	}
	var prompt models.Prompt
	conn.Where("slug = ?", "code-reviewer").First(&prompt)
	if prompt.Title != "Code Reviewer" {
		t.Errorf("original prompt was modified: title %q", prompt.Title)
	}
}

func TestCreatePromptValidation(t *testing.T) {
	h, _, user := testHandler(t)

	w := createPrompt(t, h, user, map[string]interface{}{
		"title":   "",
		"content": "",
		"slug":    "UPPER case!",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error != "validation failed" || len(resp.Details) == 0 {
		t.Errorf("unexpected validation response: %+v", resp)
	}
}

func TestCreatePromptGeneratesSlug(t *testing.T) {
	h, conn, user := testHandler(t)

	w := createPrompt(t, h, user, map[string]interface{}{
		"title":   "My Helpful Assistant",
		"content": "You are a helpful assistant.",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var prompt models.Prompt
	if err := conn.Where("slug = ?", "my-helpful-assistant").First(&prompt).Error; err != nil {
		t.Errorf("expected slug derived from title: %v", err)
	}
}
