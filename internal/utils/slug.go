package utils

import (
	"regexp"
	"strings"
)

var (
	slugPattern     = regexp.MustCompile(`^[a-z0-9-]+$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	slugCleanup     = regexp.MustCompile(`[^a-z0-9]+`)
)

// ValidSlug 校验内容 slug：小写字母/数字/连字符，至少 3 位
func ValidSlug(slug string) bool {
	return len(slug) >= 3 && slugPattern.MatchString(slug)
}

// ValidUsername 校验用户名：字母/数字/下划线/连字符，至少 3 位
func ValidUsername(name string) bool {
	return len(name) >= 3 && usernamePattern.MatchString(name)
}

// Slugify 从标题生成一个候选 slug，调用方负责保证唯一性
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugCleanup.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
