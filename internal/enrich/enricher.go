package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/RobinCoderZhao/tweet-sentinel/pkg/llm"
)

// maxPromptChars caps how much post text goes into a prompt.
const maxPromptChars = 1000

// systemPrompt goes with every chat completion request.
const systemPrompt = "You are a helpful assistant."

// Result is the outcome of enriching one post. When Failed is set the
// text fields hold whatever the fallback extractor produced and
// FailureKind records why the LLM pipeline gave up.
type Result struct {
	Title       string
	Translation string
	Analysis    string
	Failed      bool
	FailureKind llm.Kind
}

// Enricher runs the translate / analyze / title pipeline for one post.
type Enricher struct {
	client llm.Client
}

// New creates an Enricher backed by the given LLM client.
func New(client llm.Client) *Enricher {
	return &Enricher{client: client}
}

// Enrich sanitizes and truncates the post text, then asks the LLM for a
// translation, an analysis, and a title. Any step failing marks the
// whole result failed and switches to the deterministic extractor; the
// failure kind of the first failed step is kept on the result.
func (e *Enricher) Enrich(ctx context.Context, text string) Result {
	cleaned := Sanitize(text)
	if len(cleaned) > maxPromptChars {
		slog.Debug("post text truncated for prompting", "original_len", len(cleaned))
		cleaned = truncateForPrompt(cleaned, maxPromptChars)
	}

	if cleaned == "" {
		r := Extract(text)
		r.Failed = true
		r.FailureKind = llm.KindEmpty
		return r
	}

	translation, err := e.generate(ctx, translatePrompt(cleaned))
	if err != nil {
		return e.fallback(text, err)
	}
	analysis, err := e.generate(ctx, analysisPrompt(cleaned))
	if err != nil {
		return e.fallback(text, err)
	}
	title, err := e.generate(ctx, titlePrompt(cleaned))
	if err != nil {
		return e.fallback(text, err)
	}

	return Result{
		Title:       title,
		Translation: translation,
		Analysis:    analysis,
	}
}

func (e *Enricher) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := e.client.Generate(ctx, &llm.Request{
		System:   systemPrompt,
		Messages: []llm.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (e *Enricher) fallback(text string, err error) Result {
	kind := llm.FailureKind(err)
	slog.Warn("LLM enrichment failed, using fallback extraction", "kind", kind, "error", err)
	r := Extract(text)
	r.Failed = true
	r.FailureKind = kind
	return r
}

func translatePrompt(text string) string {
	return fmt.Sprintf(`请将以下英文推文翻译成中文，保持原意和语气：

推文内容：%s

请只返回翻译结果，不要包含其他说明。`, text)
}

func analysisPrompt(text string) string {
	return fmt.Sprintf(`请对以下推文进行深度解读分析，包括其含义、背景、可能的影响等，全文内容在160字左右：

推文内容：%s

请从以下角度进行分析：
1. 推文的主要信息和观点
2. 可能的背景和原因
3. 对相关领域的影响
4. 其他值得关注的要点

请用中文回答，内容要有深度和见解。`, text)
}

func titlePrompt(text string) string {
	return fmt.Sprintf(`请为以下推文生成一个简洁有力的中文标题，要求：
1. 控制在15-25个字以内
2. 能够准确概括推文的核心内容
3. 具有吸引力和新闻性

推文内容：%s

请只返回标题，不要包含其他内容。`, text)
}
