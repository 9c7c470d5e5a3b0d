package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

// DiscordService 在内容发布时向 Discord webhook 推送通知。
// 和主流程完全解耦：失败只记日志，不重试，不影响请求结果。
type DiscordService struct {
	WebhookURL string
	SiteURL    string
	Enabled    bool
	client     *http.Client
}

func NewDiscordService() *DiscordService {
	url := os.Getenv("DISCORD_WEBHOOK_URL")
	siteURL := os.Getenv("SITE_URL")
	if siteURL == "" {
		siteURL = "https://promptu.dev"
	}

	enabled := url != ""
	if !enabled {
		log.Println("⚠️ DiscordService disabled: DISCORD_WEBHOOK_URL not set.")
	}

	return &DiscordService{
		WebhookURL: url,
		SiteURL:    siteURL,
		Enabled:    enabled,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	Color       int    `json:"color"`
}

type discordPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds"`
}

// NotifyNewPrompt 异步推送新 Prompt 发布通知
func (s *DiscordService) NotifyNewPrompt(title, excerpt, slug, author string) {
	s.sendAsync(discordPayload{
		Embeds: []discordEmbed{{
			Title:       fmt.Sprintf("📝 New prompt by %s: %s", author, title),
			Description: excerpt,
			URL:         fmt.Sprintf("%s/prompts/%s", s.SiteURL, slug),
			Color:       0x58_65F2,
		}},
	})
}

// NotifyNewRule 异步推送新 CursorRule 发布通知
func (s *DiscordService) NotifyNewRule(title, excerpt, slug, author string) {
	s.sendAsync(discordPayload{
		Embeds: []discordEmbed{{
			Title:       fmt.Sprintf("⚙️ New cursor rule by %s: %s", author, title),
			Description: excerpt,
			URL:         fmt.Sprintf("%s/cursor-rules/%s", s.SiteURL, slug),
			Color:       0x2E_CC71,
		}},
	})
}

func (s *DiscordService) sendAsync(payload discordPayload) {
	if !s.Enabled {
		return
	}

	go func() {
		if err := s.send(payload); err != nil {
			log.Printf("❌ Failed to send Discord notification: %v", err)
		}
	}()
}

func (s *DiscordService) send(payload discordPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := s.client.Post(s.WebhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
