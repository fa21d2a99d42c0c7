package enrich

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/RobinCoderZhao/tweet-sentinel/pkg/llm"
)

type fakeLLM struct {
	prompts []string
	systems []string
	respond func(prompt string) (string, error)
}

func (f *fakeLLM) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	prompt := req.Messages[0].Content
	f.prompts = append(f.prompts, prompt)
	f.systems = append(f.systems, req.System)
	content, err := f.respond(prompt)
	if err != nil {
		return nil, err
	}
	return &llm.Response{Content: content}, nil
}

func (f *fakeLLM) Close() error { return nil }

func TestEnrich_ThreeStepPipeline(t *testing.T) {
	fake := &fakeLLM{respond: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "翻译"):
			return "中文翻译", nil
		case strings.Contains(prompt, "解读分析"):
			return "深度解读", nil
		default:
			return "生成标题", nil
		}
	}}
	r := New(fake).Enrich(context.Background(), "OpenAI ships a new model")

	if r.Failed {
		t.Fatalf("unexpected failure: %+v", r)
	}
	if r.Translation != "中文翻译" || r.Analysis != "深度解读" || r.Title != "生成标题" {
		t.Fatalf("fields not mapped to pipeline steps: %+v", r)
	}
	if len(fake.prompts) != 3 {
		t.Fatalf("expected 3 LLM calls, got %d", len(fake.prompts))
	}
	for _, sys := range fake.systems {
		if sys != "You are a helpful assistant." {
			t.Fatalf("expected fixed system prompt on every call, got %q", sys)
		}
	}
}

func TestEnrich_SanitizedTextInPrompts(t *testing.T) {
	fake := &fakeLLM{respond: func(string) (string, error) { return "ok", nil }}
	New(fake).Enrich(context.Background(), "Trump wins election")

	for _, p := range fake.prompts {
		lower := strings.ToLower(p)
		if strings.Contains(lower, "trump") || strings.Contains(lower, "election") {
			t.Fatalf("unsanitized term reached a prompt: %q", p)
		}
	}
}

func TestEnrich_TruncatesLongInput(t *testing.T) {
	fake := &fakeLLM{respond: func(string) (string, error) { return "ok", nil }}
	New(fake).Enrich(context.Background(), strings.Repeat("a", 2000))

	for _, p := range fake.prompts {
		if strings.Contains(p, strings.Repeat("a", 1001)) {
			t.Fatalf("prompt contains more than 1000 chars of post text")
		}
		if !strings.Contains(p, strings.Repeat("a", 1000)+"...") {
			t.Fatalf("expected truncated text with ellipsis in prompt")
		}
	}
}

func TestEnrich_FailureFallsBack(t *testing.T) {
	fake := &fakeLLM{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "解读分析") {
			return "", errors.New("LLM API error (429): rate limit exceeded")
		}
		return "ok", nil
	}}
	r := New(fake).Enrich(context.Background(), "some news with 42 numbers")

	if !r.Failed {
		t.Fatal("expected failed result")
	}
	if r.FailureKind != llm.KindRateLimited {
		t.Fatalf("expected rate_limited kind, got %s", r.FailureKind)
	}
	if !strings.Contains(r.Analysis, "备用分析结果") {
		t.Fatalf("expected fallback analysis, got %q", r.Analysis)
	}
}

func TestEnrich_EmptyTextFailsWithoutLLMCall(t *testing.T) {
	fake := &fakeLLM{respond: func(string) (string, error) {
		t.Fatal("LLM must not be called for empty text")
		return "", nil
	}}
	r := New(fake).Enrich(context.Background(), "")

	if !r.Failed || r.FailureKind != llm.KindEmpty {
		t.Fatalf("expected empty-kind failure, got %+v", r)
	}
}
