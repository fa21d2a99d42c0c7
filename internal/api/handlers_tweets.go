package api

import (
	"net/http"

	"github.com/RobinCoderZhao/tweet-sentinel/internal/store"
	"github.com/RobinCoderZhao/tweet-sentinel/pkg/notify"
)

// tweetView is the console-facing shape of a stored record, with the
// source timestamp rendered in Beijing time alongside the raw value.
type tweetView struct {
	store.Record
	FormattedCreatedAt string `json:"formatted_created_at"`
}

// displayRecord prepares a stored record for console consumption.
// Failure-tagged records get the original text substituted in so the
// raw failure output never reaches a reader.
func displayRecord(rec store.Record) tweetView {
	if rec.AIFailed {
		rec.AITitle = "AI处理失败，显示原文"
		rec.AITranslation = rec.OriginalText
	}
	return tweetView{
		Record:             rec,
		FormattedCreatedAt: notify.BeijingTime(rec.CreatedAt),
	}
}

func (s *Server) handleListTweets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		recs, err := s.records.LoadAll(store.FilterOptions{
			Author:    q.Get("author"),
			StartDate: q.Get("start_date"),
			EndDate:   q.Get("end_date"),
		})
		if err != nil {
			s.logger.Error("failed to load records", "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to load tweets")
			return
		}

		out := make([]tweetView, 0, len(recs))
		for _, rec := range recs {
			out = append(out, displayRecord(rec))
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"tweets": out,
			"count":  len(out),
		})
	}
}

func (s *Server) handleGetTweet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, ok := s.records.Get(r.PathValue("id"))
		if !ok {
			respondError(w, http.StatusNotFound, "Tweet not found")
			return
		}
		respondJSON(w, http.StatusOK, displayRecord(rec))
	}
}
