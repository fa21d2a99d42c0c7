package monitor

import (
	"sync"
	"time"
)

// State names the coarse phase of the monitor worker.
type State string

const (
	StateIdle      State = "idle"
	StateScanning  State = "scanning"
	StateEnriching State = "enriching"
	StateNotifying State = "notifying"
	StateWaiting   State = "waiting"
	StateStopped   State = "stopped"
)

// Snapshot is a point-in-time copy of the monitor status, safe to hand
// to HTTP handlers and templates.
type Snapshot struct {
	Running         bool      `json:"running"`
	State           State     `json:"state"`
	CurrentStatus   string    `json:"current_status"`
	CurrentAccount  string    `json:"current_account"`
	ProcessedTweets int       `json:"processed_tweets"`
	LastResult      string    `json:"last_result"`
	LastUpdate      time.Time `json:"last_update"`
	NextCheck       time.Time `json:"next_check_time"`
}

// Status is the mutable status shared between the worker and its
// observers. All access goes through methods; Snapshot returns a copy.
type Status struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewStatus creates an idle status.
func NewStatus() *Status {
	return &Status{
		snap: Snapshot{State: StateIdle, CurrentStatus: "Neural Network Offline"},
		now:  time.Now,
	}
}

// Snapshot returns a copy of the current status.
func (s *Status) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Running reports whether the worker should keep going. The worker
// polls this between accounts, between posts, and during interval
// sleeps, so a stop request takes effect within one sleep step.
func (s *Status) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Running
}

func (s *Status) setRunning(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Running = running
	if !running {
		s.snap.State = StateStopped
		s.snap.CurrentStatus = "Neural Network Offline"
		s.snap.CurrentAccount = ""
		s.snap.NextCheck = time.Time{}
	}
	s.snap.LastUpdate = s.now()
}

func (s *Status) update(state State, status, account string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.State = state
	s.snap.CurrentStatus = status
	s.snap.CurrentAccount = account
	s.snap.LastUpdate = s.now()
}

func (s *Status) setResult(result string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.LastResult = result
	s.snap.LastUpdate = s.now()
}

func (s *Status) setNextCheck(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.NextCheck = t
}

func (s *Status) incProcessed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.ProcessedTweets++
}

func (s *Status) resetProcessed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.ProcessedTweets = 0
}
