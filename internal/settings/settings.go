// Package settings defines the application configuration that both the
// CLI and the HTTP settings endpoint read and write.
package settings

import (
	"fmt"
	"time"

	"github.com/RobinCoderZhao/tweet-sentinel/pkg/config"
	"github.com/RobinCoderZhao/tweet-sentinel/pkg/llm"
)

// DingTalk holds the robot webhook settings.
type DingTalk struct {
	Enabled    bool   `yaml:"enabled" json:"enabled" env:"ENABLE_DINGTALK"`
	WebhookURL string `yaml:"webhook_url" json:"webhook_url" env:"DINGTALK_WEBHOOK"`
	Secret     string `yaml:"secret" json:"secret" env:"DINGTALK_SECRET"`
}

// Webhook holds the generic webhook settings, for receivers that are
// not DingTalk robots.
type Webhook struct {
	Enabled bool              `yaml:"enabled" json:"enabled" env:"ENABLE_WEBHOOK"`
	URL     string            `yaml:"url" json:"url" env:"WEBHOOK_URL"`
	Headers map[string]string `yaml:"headers" json:"headers"`
}

// Settings is the full application configuration.
type Settings struct {
	TwitterAPIKey string `yaml:"twitter_api_key" json:"twitter_api_key" env:"TWITTER_API_KEY"`

	LLMURL    string `yaml:"llm_url" json:"llm_url" env:"LLM_URL"`
	LLMAPIKey string `yaml:"llm_api_key" json:"llm_api_key" env:"LLM_API_KEY"`
	LLMModel  string `yaml:"llm_model" json:"llm_model" env:"LLM_MODEL"`

	TargetAccounts []string `yaml:"target_accounts" json:"target_accounts" env:"TARGET_ACCOUNTS"`
	CheckInterval  int      `yaml:"check_interval" json:"check_interval" env:"CHECK_INTERVAL"` // seconds
	InitialHours   int      `yaml:"initial_hours" json:"initial_hours" env:"INITIAL_HOURS"`
	ExcludeReplies bool     `yaml:"exclude_replies" json:"exclude_replies" env:"EXCLUDE_REPLIES"`

	DingTalk DingTalk `yaml:"dingtalk" json:"dingtalk"`
	Webhook  Webhook  `yaml:"webhook" json:"webhook"`

	AIMaxRetries int `yaml:"ai_max_retries" json:"ai_max_retries" env:"AI_MAX_RETRIES"`
	AITimeout    int `yaml:"ai_timeout" json:"ai_timeout" env:"AI_TIMEOUT"` // seconds
	AIMaxTokens  int `yaml:"ai_max_tokens" json:"ai_max_tokens" env:"AI_MAX_TOKENS"`

	DataDir   string `yaml:"data_dir" json:"data_dir" env:"DATA_DIR"`
	HTTPAddr  string `yaml:"http_addr" json:"http_addr" env:"HTTP_ADDR"`
	JWTSecret string `yaml:"jwt_secret" json:"-" env:"JWT_SECRET"`
	UsersDB   string `yaml:"users_db" json:"users_db" env:"USERS_DB"`
}

// Default returns the settings used when no config file exists yet.
func Default() Settings {
	return Settings{
		LLMURL:         "https://dashscope.aliyuncs.com/compatible-mode/v1",
		LLMModel:       "qwen-plus",
		TargetAccounts: []string{"OpenAI"},
		CheckInterval:  300,
		InitialHours:   2,
		AIMaxRetries:   3,
		AITimeout:      30,
		AIMaxTokens:    1000,
		DataDir:        "tweet_data",
		HTTPAddr:       ":8080",
		UsersDB:        "users.db",
	}
}

// Load reads settings from path, falling back to defaults when the file
// is missing, then applies env overrides.
func Load(path string) (Settings, error) {
	s := Default()
	if err := config.LoadOrDefault(path, &s); err != nil {
		return s, err
	}
	return s, nil
}

// Save persists the settings to path.
func Save(path string, s Settings) error {
	return config.Save(path, &s)
}

// Validate checks the fields the monitor cannot run without.
func (s Settings) Validate() error {
	if s.TwitterAPIKey == "" {
		return fmt.Errorf("twitter_api_key is required")
	}
	if s.LLMAPIKey == "" {
		return fmt.Errorf("llm_api_key is required")
	}
	if len(s.TargetAccounts) == 0 {
		return fmt.Errorf("target_accounts is empty")
	}
	return nil
}

// LLMConfig maps the settings onto an LLM client config.
func (s Settings) LLMConfig() llm.Config {
	return llm.Config{
		Model:      s.LLMModel,
		APIKey:     s.LLMAPIKey,
		BaseURL:    s.LLMURL,
		MaxRetries: s.AIMaxRetries,
		Timeout:    time.Duration(s.AITimeout) * time.Second,
		MaxTokens:  s.AIMaxTokens,
	}
}
