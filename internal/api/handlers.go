// Package api exposes the personalization engine over HTTP.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/iluma/offer-engine/internal/config"
	"github.com/iluma/offer-engine/internal/insights"
	"github.com/iluma/offer-engine/internal/personalization"
	"github.com/iluma/offer-engine/internal/report"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	sessions      *personalization.SessionManager
	insightsStore *insights.Store
	outbox        *insights.Outbox
	reportBuilder *report.Builder
	archiver      *report.Archiver
	config        *config.Config
}

// NewHandlers creates a new Handlers instance
func NewHandlers(sessions *personalization.SessionManager, reportBuilder *report.Builder) *Handlers {
	return &Handlers{
		sessions:      sessions,
		reportBuilder: reportBuilder,
	}
}

// SetConfig sets the application config
func (h *Handlers) SetConfig(cfg *config.Config) {
	h.config = cfg
}

// SetInsightsStore sets the insights store for audit queries
func (h *Handlers) SetInsightsStore(store *insights.Store) {
	h.insightsStore = store
}

// SetOutbox sets the insights outbox for queue diagnostics
func (h *Handlers) SetOutbox(outbox *insights.Outbox) {
	h.outbox = outbox
}

// SetArchiver sets the S3 report archiver
func (h *Handlers) SetArchiver(archiver *report.Archiver) {
	h.archiver = archiver
}

// HandleSystemStatus reports live engine gauges.
func (h *Handlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"active_sessions": h.sessions.Count(),
	}
	if h.outbox != nil {
		status["insights_queue_depth"] = h.outbox.QueueDepth()
	}
	respondJSON(w, http.StatusOK, status)
}

// HandleRecentInsights returns the newest persisted adaptation records.
func (h *Handlers) HandleRecentInsights(w http.ResponseWriter, r *http.Request) {
	if h.insightsStore == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"insights": []interface{}{},
			"total":    0,
		})
		return
	}

	records, err := h.insightsStore.ListRecent(r.Context(), insights.InsightTypeOptimization, 50)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load insights")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"insights": records,
		"total":    len(records),
	})
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
