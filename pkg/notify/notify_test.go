package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDingTalk_SendSuccess(t *testing.T) {
	var gotPayload dingtalkPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ts := r.URL.Query().Get("timestamp"); ts == "" {
			t.Error("missing timestamp parameter")
		}
		if sign := r.URL.Query().Get("sign"); sign == "" {
			t.Error("missing sign parameter")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Error(err)
		}
		fmt.Fprint(w, `{"errcode":0,"errmsg":"ok"}`)
	}))
	defer srv.Close()

	n := NewDingTalkNotifier(DingTalkConfig{
		WebhookURL: srv.URL + "/robot/send?access_token=tok",
		Secret:     "SECabc",
	})
	err := n.Send(context.Background(), Message{Title: "标题", Body: "# 正文", Format: "markdown"})
	if err != nil {
		t.Fatal(err)
	}
	if gotPayload.MsgType != "markdown" {
		t.Fatalf("expected markdown msgtype, got %q", gotPayload.MsgType)
	}
	if gotPayload.Markdown.Title != "标题" || gotPayload.Markdown.Text != "# 正文" {
		t.Fatalf("payload mismatch: %+v", gotPayload)
	}
	if gotPayload.At.IsAtAll {
		t.Fatal("isAtAll must be false")
	}
}

func TestDingTalk_NonZeroErrcodeIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// HTTP 200 with an application-level error.
		fmt.Fprint(w, `{"errcode":310000,"errmsg":"sign not match"}`)
	}))
	defer srv.Close()

	n := NewDingTalkNotifier(DingTalkConfig{WebhookURL: srv.URL + "/send?access_token=t", Secret: "s"})
	err := n.Send(context.Background(), Message{Title: "t", Body: "b"})
	if err == nil {
		t.Fatal("errcode != 0 must be reported as failure")
	}
	if !strings.Contains(err.Error(), "sign not match") {
		t.Fatalf("expected errmsg in error, got %v", err)
	}
}

func TestDingTalk_HTTPErrorIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewDingTalkNotifier(DingTalkConfig{WebhookURL: srv.URL + "/send?access_token=t", Secret: "s"})
	if err := n.Send(context.Background(), Message{Title: "t"}); err == nil {
		t.Fatal("expected failure for non-200 status")
	}
}

func TestDingTalk_SignedURL(t *testing.T) {
	n := NewDingTalkNotifier(DingTalkConfig{
		WebhookURL: "https://oapi.dingtalk.com/robot/send?access_token=tok",
		Secret:     "SECtest",
	})
	n.now = func() time.Time { return time.UnixMilli(1700000000000) }

	u := n.signedURL()
	if !strings.Contains(u, "&timestamp=1700000000000") {
		t.Fatalf("timestamp missing from %q", u)
	}
	if !strings.Contains(u, "&sign=") {
		t.Fatalf("sign missing from %q", u)
	}
	// Same inputs must sign identically.
	if u != n.signedURL() {
		t.Fatal("signature not deterministic for fixed timestamp")
	}
}

func TestFormatTweet_Success(t *testing.T) {
	msg := FormatTweet(TweetData{
		Author:        "OpenAI",
		CreatedAt:     "Wed Oct 10 20:19:24 +0000 2018",
		OriginalText:  "hello",
		AITitle:       "新模型发布",
		AITranslation: "你好",
	})
	if !strings.Contains(msg.Title, "OpenAI") {
		t.Fatalf("author missing from title: %q", msg.Title)
	}
	if !strings.Contains(msg.Body, "新模型发布") || !strings.Contains(msg.Body, "你好") {
		t.Fatalf("AI fields missing from body: %q", msg.Body)
	}
	// 20:19:24 UTC + 8h = 04:19:24 next day, Beijing time.
	if !strings.Contains(msg.Body, "2018-10-11 04:19:24") {
		t.Fatalf("Beijing time missing from body: %q", msg.Body)
	}
}

func TestFormatTweet_FailureSubstitutesOriginal(t *testing.T) {
	msg := FormatTweet(TweetData{
		Author:        "sama",
		OriginalText:  "the original post",
		AITitle:       "llm: rate_limited after 3 attempt(s)",
		AITranslation: "partial junk",
		AIFailed:      true,
	})
	if !strings.Contains(msg.Body, "AI处理失败，显示原文") {
		t.Fatalf("failure title missing: %q", msg.Body)
	}
	if !strings.Contains(msg.Body, "the original post") {
		t.Fatalf("original text missing: %q", msg.Body)
	}
	if strings.Contains(msg.Body, "rate_limited") {
		t.Fatalf("raw failure text leaked into message: %q", msg.Body)
	}
}

func TestFormatTweet_UnparseableTime(t *testing.T) {
	msg := FormatTweet(TweetData{Author: "a", CreatedAt: "not a time", AITitle: "t", AITranslation: "c"})
	if !strings.Contains(msg.Body, "未知时间") {
		t.Fatalf("expected unknown-time placeholder: %q", msg.Body)
	}
}

func TestWebhook_SendSuccess(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if auth := r.Header.Get("X-Token"); auth != "secret" {
			t.Errorf("custom header not forwarded, got %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Error(err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(WebhookConfig{
		URL:     srv.URL,
		Headers: map[string]string{"X-Token": "secret"},
	})
	if err := n.Send(context.Background(), Message{Title: "标题", Body: "正文", Format: "markdown"}); err != nil {
		t.Fatal(err)
	}
	if got.Title != "标题" || got.Body != "正文" {
		t.Fatalf("payload mismatch: %+v", got)
	}
}

func TestWebhook_Non2xxIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(WebhookConfig{URL: srv.URL})
	err := n.Send(context.Background(), Message{Title: "t"})
	if err == nil {
		t.Fatal("expected failure for non-2xx status")
	}
	if !strings.Contains(err.Error(), "bad payload") {
		t.Fatalf("expected response detail in error, got %v", err)
	}
}

func TestDispatcher_UnregisteredChannelSkipped(t *testing.T) {
	d := NewDispatcher()
	if err := d.Dispatch(context.Background(), []Channel{ChannelDingTalk}, Message{Title: "t"}); err != nil {
		t.Fatalf("unregistered channel must be skipped, got %v", err)
	}
}

type stubNotifier struct {
	ch   Channel
	sent []Message
	err  error
}

func (s *stubNotifier) Send(ctx context.Context, msg Message) error {
	s.sent = append(s.sent, msg)
	return s.err
}
func (s *stubNotifier) Channel() Channel { return s.ch }

func TestDispatcher_ReportsFailures(t *testing.T) {
	d := NewDispatcher()
	good := &stubNotifier{ch: ChannelDingTalk}
	bad := &stubNotifier{ch: ChannelWebhook, err: fmt.Errorf("down")}
	d.Register(good)
	d.Register(bad)

	err := d.SendAll(context.Background(), Message{Title: "t"})
	if err == nil {
		t.Fatal("expected partial failure to be reported")
	}
	if len(good.sent) != 1 {
		t.Fatalf("healthy channel must still deliver, sent=%d", len(good.sent))
	}
}
