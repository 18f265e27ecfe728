package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iluma/offer-engine/internal/personalization"
	"github.com/iluma/offer-engine/internal/scoring"
)

// ContextInput carries the ambient signals the browser reports at session
// start. The referrer falls back to the Referer header when absent.
type ContextInput struct {
	ViewportWidth  int    `json:"viewport_width"`
	Referrer       string `json:"referrer,omitempty"`
	PreviousVisits int    `json:"previous_visits"`
}

// CreateSessionRequest is the body for starting a personalization session.
type CreateSessionRequest struct {
	Behavior personalization.BehaviorData `json:"behavior"`
	Context  ContextInput                 `json:"context"`
}

// InteractionResponse reports the outcome of one interaction report.
type InteractionResponse struct {
	Adapted         bool                               `json:"adapted"`
	EngagementScore int                                `json:"engagement_score"`
	CurrentOffer    *personalization.Offer             `json:"current_offer"`
	AdaptationCount int                                `json:"adaptation_count"`
	ConfidenceLevel int                                `json:"confidence_level"`
	Entry           *personalization.OptimizationEntry `json:"entry,omitempty"`
}

// HandleCreateSession classifies the visitor and generates the initial offer
// set.
//
//	POST /api/personalization/sessions
func (h *Handlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	referrer := req.Context.Referrer
	if referrer == "" {
		referrer = r.Referer()
	}
	ctx := personalization.CollectContext(time.Now(), req.Context.ViewportWidth, referrer, req.Context.PreviousVisits)

	sess := h.sessions.Create()
	if err := sess.Initialize(req.Behavior, ctx); err != nil {
		log.Printf("[api] session %s: initialize failed: %v", sess.ID(), err)
		respondError(w, http.StatusInternalServerError, "failed to initialize session")
		return
	}

	respondJSON(w, http.StatusCreated, sess.Snapshot())
}

// HandleGetSession returns the full session snapshot.
//
//	GET /api/personalization/sessions/{sessionID}
func (h *Handlers) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// HandleReportInteraction feeds live telemetry into the adapter.
//
//	POST /api/personalization/sessions/{sessionID}/interactions
func (h *Handlers) HandleReportInteraction(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	var in personalization.InteractionData
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := sess.ReportInteraction(in)
	if err != nil {
		if errors.Is(err, personalization.ErrNotInitialized) {
			respondError(w, http.StatusConflict, "session not initialized")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to process interaction")
		return
	}

	snap := sess.Snapshot()
	resp := InteractionResponse{
		Adapted:         result.Applied,
		EngagementScore: result.EngagementScore,
		CurrentOffer:    snap.CurrentOffer,
		AdaptationCount: snap.AdaptationCount,
		ConfidenceLevel: snap.ConfidenceLevel,
	}
	if result.Applied {
		entry := result.Entry
		resp.Entry = &entry
	}
	respondJSON(w, http.StatusOK, resp)
}

// HandleSwitchAlternative replaces the primary offer with the chosen
// alternative. An out-of-range index leaves the session unchanged.
//
//	POST /api/personalization/sessions/{sessionID}/alternative/{index}
func (h *Handlers) HandleSwitchAlternative(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid alternative index")
		return
	}

	if err := sess.SwitchToAlternative(index); err != nil {
		if errors.Is(err, personalization.ErrNotInitialized) {
			respondError(w, http.StatusConflict, "session not initialized")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to switch offer")
		return
	}

	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// HandleResetSession clears the profile and offer state in one step.
//
//	DELETE /api/personalization/sessions/{sessionID}
func (h *Handlers) HandleResetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	sess.Reset()
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// HandleGetScore computes the lead score from the session's profile and the
// latest engagement reading.
//
//	GET /api/personalization/sessions/{sessionID}/score
func (h *Handlers) HandleGetScore(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	snap := sess.Snapshot()
	if snap.Profile == nil {
		respondError(w, http.StatusConflict, "session not initialized")
		return
	}

	score := scoring.Compute(*snap.Profile, snap.LastEngagementScore)
	respondJSON(w, http.StatusOK, score)
}

// HandleGetReport renders the plain-text session report. With ?archive=true
// and a configured archiver, the report is also uploaded to S3 and the object
// key returned in the X-Report-Key header.
//
//	GET /api/personalization/sessions/{sessionID}/report
func (h *Handlers) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	snap := sess.Snapshot()
	var score scoring.LeadScore
	if snap.Profile != nil {
		score = scoring.Compute(*snap.Profile, snap.LastEngagementScore)
	} else {
		score = scoring.Compute(personalization.UserProfile{}, 0)
	}

	text, err := h.reportBuilder.Render(snap, score)
	if err != nil {
		log.Printf("[api] session %s: report render failed: %v", snap.SessionID, err)
		respondError(w, http.StatusInternalServerError, "failed to render report")
		return
	}

	if r.URL.Query().Get("archive") == "true" && h.archiver != nil {
		key, err := h.archiver.Upload(r.Context(), snap.SessionID, text)
		if err != nil {
			log.Printf("[api] session %s: report archive failed: %v", snap.SessionID, err)
		} else {
			w.Header().Set("X-Report-Key", key)
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(text))
}
