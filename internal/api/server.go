// Package api provides the REST API consumed by the web console.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/RobinCoderZhao/tweet-sentinel/internal/monitor"
	"github.com/RobinCoderZhao/tweet-sentinel/internal/settings"
	"github.com/RobinCoderZhao/tweet-sentinel/internal/store"
	"github.com/RobinCoderZhao/tweet-sentinel/internal/user"
)

// MonitorFactory builds a monitor from freshly loaded settings. The
// console rebuilds the worker on every start so edits to accounts or
// keys take effect without a process restart.
type MonitorFactory func(s settings.Settings) (*monitor.Monitor, error)

// Server holds the dependencies for the API.
type Server struct {
	userStore    *user.Store
	records      *store.Store
	settingsPath string
	newMonitor   MonitorFactory
	jwtSecret    []byte
	logger       *slog.Logger

	mu      sync.Mutex
	current *monitor.Monitor
}

// NewServer creates a new API Server instance.
func NewServer(uStore *user.Store, records *store.Store, settingsPath string, factory MonitorFactory, jwtSecret string) *Server {
	return &Server{
		userStore:    uStore,
		records:      records,
		settingsPath: settingsPath,
		newMonitor:   factory,
		jwtSecret:    []byte(jwtSecret),
		logger:       slog.Default(),
	}
}

// Routes returns the configured http.Handler for the API.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Auth routes (Public)
	mux.HandleFunc("POST /api/auth/register", s.handleRegister())
	mux.HandleFunc("POST /api/auth/login", s.handleLogin())

	// Records
	mux.Handle("GET /api/tweets", s.requireAuthHandler(http.HandlerFunc(s.handleListTweets())))
	mux.Handle("GET /api/tweets/{id}", s.requireAuthHandler(http.HandlerFunc(s.handleGetTweet())))

	// Monitor control
	mux.Handle("GET /api/monitoring/status", s.requireAuthHandler(http.HandlerFunc(s.handleMonitorStatus())))
	mux.Handle("POST /api/monitoring/start", s.requireAuthHandler(http.HandlerFunc(s.handleMonitorStart())))
	mux.Handle("POST /api/monitoring/stop", s.requireAuthHandler(http.HandlerFunc(s.handleMonitorStop())))

	// Settings
	mux.Handle("GET /api/settings", s.requireAuthHandler(http.HandlerFunc(s.handleGetSettings())))
	mux.Handle("POST /api/settings", s.requireAuthHandler(http.HandlerFunc(s.handleSaveSettings())))

	// Notification test
	mux.Handle("POST /api/notify/test", s.requireAuthHandler(http.HandlerFunc(s.handleNotifyTest())))

	return mux
}

// --- Helpers ---

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
