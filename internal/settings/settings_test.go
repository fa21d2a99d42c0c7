package settings

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if s.CheckInterval != 300 || s.InitialHours != 2 {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	if len(s.TargetAccounts) != 1 || s.TargetAccounts[0] != "OpenAI" {
		t.Fatalf("unexpected default accounts: %v", s.TargetAccounts)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	in := Default()
	in.TwitterAPIKey = "tw-key"
	in.TargetAccounts = []string{"sama", "OpenAI"}
	in.DingTalk = DingTalk{Enabled: true, WebhookURL: "https://oapi.dingtalk.com/robot/send?access_token=x", Secret: "SEC"}
	in.Webhook = Webhook{Enabled: true, URL: "https://hooks.example.com/t", Headers: map[string]string{"X-Token": "h"}}

	if err := Save(path, in); err != nil {
		t.Fatal(err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if out.TwitterAPIKey != "tw-key" || len(out.TargetAccounts) != 2 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if !out.DingTalk.Enabled || out.DingTalk.Secret != "SEC" {
		t.Fatalf("dingtalk section lost: %+v", out.DingTalk)
	}
	if !out.Webhook.Enabled || out.Webhook.URL != "https://hooks.example.com/t" || out.Webhook.Headers["X-Token"] != "h" {
		t.Fatalf("webhook section lost: %+v", out.Webhook)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TWITTER_API_KEY", "env-key")
	t.Setenv("CHECK_INTERVAL", "60")
	t.Setenv("TARGET_ACCOUNTS", "a,b")

	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if s.TwitterAPIKey != "env-key" || s.CheckInterval != 60 {
		t.Fatalf("env overrides not applied: %+v", s)
	}
	if len(s.TargetAccounts) != 2 {
		t.Fatalf("account list override not applied: %v", s.TargetAccounts)
	}
}

func TestValidate(t *testing.T) {
	s := Default()
	if err := s.Validate(); err == nil {
		t.Fatal("expected validation failure without API keys")
	}
	s.TwitterAPIKey = "t"
	s.LLMAPIKey = "l"
	if err := s.Validate(); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
}

func TestLLMConfig(t *testing.T) {
	s := Default()
	s.LLMAPIKey = "k"
	cfg := s.LLMConfig()
	if cfg.Timeout != 30*time.Second || cfg.MaxRetries != 3 || cfg.MaxTokens != 1000 {
		t.Fatalf("unexpected llm config: %+v", cfg)
	}
	if cfg.BaseURL != s.LLMURL {
		t.Fatal("base URL not mapped")
	}
}
