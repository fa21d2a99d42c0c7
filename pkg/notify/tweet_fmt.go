package notify

import (
	"fmt"
	"time"
)

// TweetData is the notification-facing view of one enriched post.
// Producers map their storage model onto this struct; the formatter
// never sees storage types.
type TweetData struct {
	Author        string
	CreatedAt     string // as delivered by the source API
	OriginalText  string
	AITitle       string
	AITranslation string
	AIFailed      bool
}

// twitterTimeLayout is the legacy timestamp format the search API uses,
// e.g. "Wed Oct 10 20:19:24 +0000 2018".
const twitterTimeLayout = "Mon Jan 02 15:04:05 -0700 2006"

// FormatTweet renders a post as a DingTalk-ready markdown message.
// Failed enrichment substitutes the original text so the reader never
// sees raw failure output.
func FormatTweet(d TweetData) Message {
	title := d.AITitle
	content := d.AITranslation

	if d.AIFailed {
		title = "AI处理失败，显示原文"
		content = "**推文原文：**\n" + d.OriginalText
	}
	if content == "" {
		text := d.OriginalText
		if len([]rune(text)) > 200 {
			text = string([]rune(text)[:200]) + "..."
		}
		content = "**推文原文：**\n" + text
	}
	if title == "" {
		title = "AI标题生成失败，显示原文"
	}

	body := fmt.Sprintf(`# 🤖 AI新闻推送

---

## 📝 **作者：** %s
⏰ **发帖时间：** %s

🎯 **AI生成标题：** **%s**

## 🧠 **AI翻译内容：**
%s

---

💡 *由 Twitter(X) AI 监控系统 自动推送*`,
		d.Author, BeijingTime(d.CreatedAt), title, content)

	return Message{
		Title:  "🤖 AI新闻推送 - " + d.Author,
		Body:   body,
		Format: "markdown",
	}
}

// BeijingTime converts a source timestamp to UTC+8 display form. It
// accepts the legacy Twitter layout or RFC3339 and returns "未知时间"
// for anything else.
func BeijingTime(createdAt string) string {
	if createdAt == "" {
		return "未知时间"
	}
	t, err := time.Parse(twitterTimeLayout, createdAt)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return "未知时间"
		}
	}
	return t.UTC().Add(8 * time.Hour).Format("2006-01-02 15:04:05")
}
