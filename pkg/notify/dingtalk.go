package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DingTalkConfig holds DingTalk robot webhook configuration.
type DingTalkConfig struct {
	WebhookURL string `yaml:"webhook_url" json:"webhook_url"`
	Secret     string `yaml:"secret" json:"secret"`
}

// DingTalkNotifier sends markdown messages to a DingTalk group robot.
// Each request is signed with the robot secret.
type DingTalkNotifier struct {
	config DingTalkConfig
	http   *http.Client
	now    func() time.Time
}

// NewDingTalkNotifier creates a new DingTalk notifier.
func NewDingTalkNotifier(cfg DingTalkConfig) *DingTalkNotifier {
	return &DingTalkNotifier{
		config: cfg,
		http:   &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
}

func (d *DingTalkNotifier) Channel() Channel { return ChannelDingTalk }

type dingtalkPayload struct {
	MsgType  string `json:"msgtype"`
	Markdown struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"markdown"`
	At struct {
		IsAtAll bool `json:"isAtAll"`
	} `json:"at"`
}

type dingtalkResult struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// Send posts a signed markdown message. Success requires both HTTP 200
// and errcode 0 in the response body.
func (d *DingTalkNotifier) Send(ctx context.Context, msg Message) error {
	payload := dingtalkPayload{MsgType: "markdown"}
	payload.Markdown.Title = msg.Title
	payload.Markdown.Text = msg.Body

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.signedURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dingtalk returned status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	var result dingtalkResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("dingtalk error %d: %s", result.ErrCode, result.ErrMsg)
	}
	return nil
}

// signedURL appends the timestamp and HMAC-SHA256 signature that the
// robot's security setting requires.
func (d *DingTalkNotifier) signedURL() string {
	timestamp := strconv.FormatInt(d.now().UnixMilli(), 10)
	stringToSign := timestamp + "\n" + d.config.Secret

	mac := hmac.New(sha256.New, []byte(d.config.Secret))
	mac.Write([]byte(stringToSign))
	sign := url.QueryEscape(base64.StdEncoding.EncodeToString(mac.Sum(nil)))

	return d.config.WebhookURL + "&timestamp=" + timestamp + "&sign=" + sign
}
