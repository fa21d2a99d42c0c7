package api

import (
	"context"
	"net/http"

	"github.com/RobinCoderZhao/tweet-sentinel/internal/monitor"
	"github.com/RobinCoderZhao/tweet-sentinel/internal/settings"
)

func (s *Server) handleMonitorStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		m := s.current
		s.mu.Unlock()

		var snap monitor.Snapshot
		if m != nil {
			snap = m.Status()
		} else {
			snap = monitor.Snapshot{State: monitor.StateIdle, CurrentStatus: "Neural Network Offline"}
		}
		respondJSON(w, http.StatusOK, snap)
	}
}

func (s *Server) handleMonitorStart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.current != nil && s.current.Status().Running {
			respondError(w, http.StatusConflict, "Monitoring is already running")
			return
		}

		cfg, err := settings.Load(s.settingsPath)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to load settings")
			return
		}
		if err := cfg.Validate(); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		// The worker is rebuilt from the settings on every start so a
		// saved settings change takes effect here.
		m, err := s.newMonitor(cfg)
		if err != nil {
			s.logger.Error("failed to build monitor", "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to initialize monitoring")
			return
		}
		if err := m.Start(context.Background()); err != nil {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		s.current = m
		s.logger.Info("monitoring started", "user", currentUsername(r))
		respondJSON(w, http.StatusOK, map[string]string{"message": "Monitoring started"})
	}
}

func (s *Server) handleMonitorStop() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		m := s.current
		s.mu.Unlock()

		if m == nil || !m.Status().Running {
			respondError(w, http.StatusConflict, "Monitoring is not running")
			return
		}
		m.Stop()
		s.logger.Info("monitoring stopped", "user", currentUsername(r))
		respondJSON(w, http.StatusOK, map[string]string{"message": "Monitoring stopped"})
	}
}
