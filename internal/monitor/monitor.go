// Package monitor runs the poll / enrich / persist / notify cycle for a
// set of watched accounts.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/RobinCoderZhao/tweet-sentinel/internal/enrich"
	"github.com/RobinCoderZhao/tweet-sentinel/internal/store"
	"github.com/RobinCoderZhao/tweet-sentinel/internal/twitter"
)

// Poller fetches posts for one account inside a time window.
type Poller interface {
	Search(ctx context.Context, account string, since, until time.Time, excludeReplies bool) ([]twitter.Post, error)
}

// Enricher produces the AI fields for one post.
type Enricher interface {
	Enrich(ctx context.Context, text string) enrich.Result
}

// RecordStore persists enriched records.
type RecordStore interface {
	Append(rec store.Record) (bool, error)
}

// Publisher delivers one stored record to the configured channels.
type Publisher interface {
	Publish(ctx context.Context, rec store.Record) error
}

// Config controls the monitor loop.
type Config struct {
	Accounts       []string
	CheckInterval  time.Duration
	InitialBacklog time.Duration // how far the first window reaches back
	ExcludeReplies bool
	NotifyEnabled  bool

	// Pauses between API calls. Zero values take the defaults.
	AccountPause time.Duration
	PostPause    time.Duration
	StopPoll     time.Duration // granularity of the interval countdown
}

func (c *Config) applyDefaults() {
	if c.CheckInterval <= 0 {
		c.CheckInterval = 5 * time.Minute
	}
	if c.InitialBacklog <= 0 {
		c.InitialBacklog = time.Hour
	}
	if c.AccountPause <= 0 {
		c.AccountPause = 5 * time.Second
	}
	if c.PostPause <= 0 {
		c.PostPause = 2 * time.Second
	}
	if c.StopPoll <= 0 {
		c.StopPoll = 10 * time.Second
	}
}

// Monitor owns the single background worker. Start rejects a second
// worker while one is running; Stop flips the shared flag and waits
// briefly for the worker to wind down.
type Monitor struct {
	cfg       Config
	poller    Poller
	enricher  Enricher
	records   RecordStore
	publisher Publisher
	status    *Status

	now   func() time.Time
	sleep func(time.Duration)

	mu   sync.Mutex
	done chan struct{}
}

// New assembles a monitor from its collaborators. publisher may be nil
// when notifications are disabled.
func New(cfg Config, poller Poller, enricher Enricher, records RecordStore, publisher Publisher) *Monitor {
	cfg.applyDefaults()
	return &Monitor{
		cfg:       cfg,
		poller:    poller,
		enricher:  enricher,
		records:   records,
		publisher: publisher,
		status:    NewStatus(),
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// Status returns a snapshot of the worker state.
func (m *Monitor) Status() Snapshot {
	return m.status.Snapshot()
}

// Start launches the background worker. It returns an error if one is
// already running.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status.Running() {
		return fmt.Errorf("monitor already running")
	}
	// The running flag alone is not enough: a Stop whose wait timed out
	// leaves the previous worker alive with the flag already cleared.
	// Launching a second worker then would hand the old one a live flag
	// again and two loops would cycle concurrently.
	if m.done != nil {
		select {
		case <-m.done:
		default:
			return fmt.Errorf("previous monitor worker still shutting down")
		}
	}
	if len(m.cfg.Accounts) == 0 {
		return fmt.Errorf("no accounts configured")
	}

	m.status.resetProcessed()
	m.status.setRunning(true)
	m.status.update(StateIdle, "🚀 监控已启动", fmt.Sprintf("监控 %d 个账号", len(m.cfg.Accounts)))
	m.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		m.run(ctx)
	}(m.done)

	slog.Info("monitor started", "accounts", m.cfg.Accounts, "interval", m.cfg.CheckInterval)
	return nil
}

// Stop signals the worker to exit and waits up to three seconds for it.
// The worker notices the flag at its next check point, so a stop during
// the interval countdown takes effect within one StopPoll step.
func (m *Monitor) Stop() {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()

	if !m.status.Running() {
		return
	}
	m.status.setRunning(false)
	slog.Info("monitor stop requested")

	if done != nil {
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			slog.Warn("monitor worker did not exit in time")
		}
	}
}

func (m *Monitor) run(ctx context.Context) {
	defer m.status.setRunning(false)

	checkpoint := m.now().UTC().Add(-m.cfg.InitialBacklog)

	for m.status.Running() && ctx.Err() == nil {
		cycleStart := m.now().UTC()
		m.cycle(ctx, checkpoint, cycleStart)
		// The checkpoint always advances, even when some accounts
		// failed this cycle. A stuck window would re-enrich the same
		// posts forever; the dedup layer already absorbs overlap.
		checkpoint = cycleStart

		m.countdown(ctx)
	}
	m.status.update(StateStopped, "🛑 监控已停止", "")
}

// countdown waits out the check interval in StopPoll steps so a stop
// request never blocks for the whole interval.
func (m *Monitor) countdown(ctx context.Context) {
	m.status.setNextCheck(m.now().Add(m.cfg.CheckInterval))
	remaining := m.cfg.CheckInterval
	for remaining > 0 && m.status.Running() && ctx.Err() == nil {
		step := m.cfg.StopPoll
		if step > remaining {
			step = remaining
		}
		m.status.update(StateWaiting, fmt.Sprintf("⏱️ 下次扫描倒计时 %ds", int(remaining.Seconds())), "")
		m.sleep(step)
		remaining -= step
	}
}

func (m *Monitor) cycle(ctx context.Context, since, until time.Time) {
	m.status.update(StateScanning, "🔍 扫描中", "")

	var posts []twitter.Post
	for i, account := range m.cfg.Accounts {
		if !m.status.Running() || ctx.Err() != nil {
			return
		}
		m.status.update(StateScanning, fmt.Sprintf("📡 正在抓取 @%s 的推文", account), account)

		got, err := m.poller.Search(ctx, account, since, until, m.cfg.ExcludeReplies)
		if err != nil {
			slog.Warn("account scan aborted", "account", account, "error", err)
			return
		}
		posts = append(posts, got...)
		slog.Info("account scanned", "account", account, "posts", len(got))

		if i < len(m.cfg.Accounts)-1 {
			m.sleep(m.cfg.AccountPause)
		}
	}

	if len(posts) == 0 {
		m.status.update(StateWaiting, "⭐ 智能待机中", "")
		m.status.setResult("未发现新推文，继续监控中...")
		return
	}
	m.status.setResult(fmt.Sprintf("找到 %d 条新推文", len(posts)))

	for idx, post := range posts {
		if !m.status.Running() || ctx.Err() != nil {
			return
		}
		m.status.update(StateEnriching, fmt.Sprintf("🧠 AI处理中 (%d/%d)", idx+1, len(posts)), post.Author)
		m.process(ctx, post)
		m.status.incProcessed()

		if idx < len(posts)-1 {
			m.sleep(m.cfg.PostPause)
		}
	}
	m.status.setResult(fmt.Sprintf("成功处理 %d 条推文", len(posts)))
}

func (m *Monitor) process(ctx context.Context, post twitter.Post) {
	result := m.enricher.Enrich(ctx, post.Text)

	rec := store.Record{
		ID:            post.Key(),
		Author:        post.Author,
		CreatedAt:     post.CreatedAt,
		OriginalText:  post.Text,
		SourceURL:     post.SourceURL(),
		AITitle:       result.Title,
		AITranslation: result.Translation,
		AIAnalysis:    result.Analysis,
		AIFailed:      result.Failed,
		FailureKind:   string(result.FailureKind),
		IngestedAt:    m.now().UTC(),
		ProcessedDate: m.now().Format("2006-01-02"),
	}

	inserted, err := m.records.Append(rec)
	if err != nil {
		slog.Error("record append failed", "id", rec.ID, "error", err)
		return
	}
	if !inserted {
		slog.Debug("duplicate post skipped", "id", rec.ID, "author", rec.Author)
		return
	}
	slog.Info("new post stored", "id", rec.ID, "author", rec.Author, "ai_failed", rec.AIFailed)

	if m.cfg.NotifyEnabled && m.publisher != nil {
		m.status.update(StateNotifying, "📨 推送通知中", post.Author)
		// Delivery is best effort: a failed push is logged, never retried.
		if err := m.publisher.Publish(ctx, rec); err != nil {
			slog.Error("notification failed", "id", rec.ID, "error", err)
		}
	}
}

// RunOnce executes a single scan cycle synchronously, reaching back
// over the configured backlog window. Used by the one-shot CLI command.
func (m *Monitor) RunOnce(ctx context.Context) error {
	if m.status.Running() {
		return fmt.Errorf("monitor already running")
	}
	m.status.setRunning(true)
	defer m.status.setRunning(false)

	until := m.now().UTC()
	m.cycle(ctx, until.Add(-m.cfg.InitialBacklog), until)
	return ctx.Err()
}
