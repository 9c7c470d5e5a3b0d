package utils

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	policy      = bluemonday.UGCPolicy()
	strictClean = bluemonday.StrictPolicy()
)

func init() {
	// Force links to open in new tab
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)
}

// RenderMarkdown 把内容正文渲染成净化过的 HTML，
// 用于详情接口的 content_html 字段
func RenderMarkdown(source string) string {
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		return SanitizeText(source) // Fallback
	}

	return string(policy.SanitizeBytes(buf.Bytes()))
}

// SanitizeText 去掉所有 HTML 标签，用于摘要等纯文本字段
func SanitizeText(source string) string {
	return strictClean.Sanitize(source)
}
