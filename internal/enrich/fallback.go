package enrich

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	urlRe     = regexp.MustCompile(`https?://[^\s]+`)
	mentionRe = regexp.MustCompile(`@(\w+)`)
	hashtagRe = regexp.MustCompile(`#(\w+)`)
	numberRe  = regexp.MustCompile(`\d+`)
)

// Extract is the deterministic backstop for failed LLM enrichment. It
// pulls structural features out of the post text and never fails.
func Extract(text string) Result {
	urls := urlRe.FindAllString(text, -1)
	mentions := collectGroups(mentionRe, text)
	hashtags := collectGroups(hashtagRe, text)
	numbers := numberRe.FindAllString(text, -1)
	wordCount := len(strings.Fields(text))
	charCount := len([]rune(text))

	translation := text
	if len([]rune(text)) > 200 {
		translation = string([]rune(text)[:200]) + "..."
	}

	var parts []string
	if len(urls) > 0 {
		parts = append(parts, fmt.Sprintf("包含链接: %d 个", len(urls)))
	}
	if len(mentions) > 0 {
		parts = append(parts, "提及用户: "+strings.Join(mentions, ", "))
	}
	if len(hashtags) > 0 {
		parts = append(parts, "话题标签: "+strings.Join(hashtags, ", "))
	}
	if len(numbers) > 0 {
		parts = append(parts, "数字信息: "+strings.Join(numbers, ", "))
	}
	parts = append(parts, fmt.Sprintf("文本长度: %d 词, %d 字符", wordCount, charCount))

	return Result{
		Title:       "推文分析 (备用处理)",
		Translation: "原文内容: " + translation,
		Analysis:    "备用分析结果: " + strings.Join(parts, "; ") + "。由于AI处理失败，无法进行深度分析。",
	}
}

func collectGroups(re *regexp.Regexp, text string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}
