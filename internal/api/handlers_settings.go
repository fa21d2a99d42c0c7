package api

import (
	"encoding/json"
	"net/http"

	"github.com/RobinCoderZhao/tweet-sentinel/internal/settings"
	"github.com/RobinCoderZhao/tweet-sentinel/pkg/notify"
)

func (s *Server) handleGetSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := settings.Load(s.settingsPath)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to load settings")
			return
		}
		respondJSON(w, http.StatusOK, cfg)
	}
}

func (s *Server) handleSaveSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Start from the stored settings so fields the console does not
		// send (like the JWT secret) survive the round trip.
		cfg, err := settings.Load(s.settingsPath)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to load settings")
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := settings.Save(s.settingsPath, cfg); err != nil {
			s.logger.Error("failed to save settings", "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
		s.logger.Info("settings saved", "user", currentUsername(r))
		respondJSON(w, http.StatusOK, map[string]string{"message": "Settings saved"})
	}
}

func (s *Server) handleNotifyTest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := settings.Load(s.settingsPath)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to load settings")
			return
		}
		if cfg.DingTalk.WebhookURL == "" {
			respondError(w, http.StatusBadRequest, "DingTalk webhook is not configured")
			return
		}

		n := notify.NewDingTalkNotifier(notify.DingTalkConfig{
			WebhookURL: cfg.DingTalk.WebhookURL,
			Secret:     cfg.DingTalk.Secret,
		})
		msg := notify.Message{
			Title:  "🔔 测试通知",
			Body:   "# 🔔 测试通知\n\n钉钉推送配置正常。",
			Format: "markdown",
		}
		if err := n.Send(r.Context(), msg); err != nil {
			respondError(w, http.StatusBadGateway, "Test notification failed: "+err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"message": "Test notification sent"})
	}
}
