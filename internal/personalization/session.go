package personalization

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotInitialized is returned when a session operation needs a profile
	// and offer that have not been generated yet.
	ErrNotInitialized = errors.New("personalization session not initialized")
	// ErrAlreadyInitialized is returned by a second Initialize without an
	// intervening Reset.
	ErrAlreadyInitialized = errors.New("personalization session already initialized")
)

// OptimizationState is the per-session offer state. Pristine value: nil
// current offer, no alternatives, empty history, zero confidence and count.
type OptimizationState struct {
	CurrentOffer        *Offer              `json:"current_offer"`
	AlternativeOffers   []Offer             `json:"alternative_offers"`
	OptimizationHistory []OptimizationEntry `json:"optimization_history"`
	ConfidenceLevel     int                 `json:"confidence_level"`
	AdaptationCount     int                 `json:"adaptation_count"`
}

// AdaptationRecord is the audit payload persisted (best-effort) for every
// applied adaptation.
type AdaptationRecord struct {
	SessionID       string    `json:"session_id"`
	OriginalOffer   Offer     `json:"original_offer"`
	OptimizedOffer  Offer     `json:"optimized_offer"`
	EngagementScore int       `json:"engagement_score"`
	AdaptationCount int       `json:"adaptation_count"`
	ConfidenceLevel int       `json:"confidence_level"`
	Timestamp       time.Time `json:"timestamp"`
}

// AdaptationSink receives adaptation records. Implementations must not block:
// the session fires and forgets, and a sink failure never rolls back the
// in-memory mutation that produced the record.
type AdaptationSink interface {
	RecordAdaptation(rec AdaptationRecord)
}

// SessionSnapshot is a deep, read-only copy of one session for rendering
// surfaces and the resume cache.
type SessionSnapshot struct {
	SessionID           string              `json:"session_id"`
	CreatedAt           time.Time           `json:"created_at"`
	Initialized         bool                `json:"initialized"`
	Profile             *UserProfile        `json:"profile,omitempty"`
	CurrentOffer        *Offer              `json:"current_offer,omitempty"`
	AlternativeOffers   []Offer             `json:"alternative_offers"`
	OptimizationHistory []OptimizationEntry `json:"optimization_history"`
	ConfidenceLevel     int                 `json:"confidence_level"`
	AdaptationCount     int                 `json:"adaptation_count"`
	LastEngagementScore int                 `json:"last_engagement_score"`
}

// SnapshotCache stores session snapshots so a session survives a process
// restart. All calls are best-effort from the session's point of view.
type SnapshotCache interface {
	Save(ctx context.Context, snap SessionSnapshot) error
	Load(ctx context.Context, sessionID string) (*SessionSnapshot, error)
	Delete(ctx context.Context, sessionID string) error
}

// Session owns the profile and optimization state for one visitor. All entry
// points take the session mutex, which is what upholds the adaptation ceiling
// when interaction reports arrive concurrently.
type Session struct {
	mu sync.Mutex

	id        string
	createdAt time.Time

	profile        *UserProfile
	state          OptimizationState
	lastEngagement int

	generator *Generator
	adapter   *Adapter
	sink      AdaptationSink
	cache     SnapshotCache

	now func() time.Time
}

// newSession wires a session to the shared generator/adapter pair. The sink
// and cache may be nil (disabled).
func newSession(id string, generator *Generator, adapter *Adapter, sink AdaptationSink, cache SnapshotCache) *Session {
	return &Session{
		id:        id,
		createdAt: time.Now(),
		generator: generator,
		adapter:   adapter,
		sink:      sink,
		cache:     cache,
		now:       time.Now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Initialize classifies the visitor and generates the primary offer plus its
// two alternatives. A second call without Reset is rejected.
func (s *Session) Initialize(behavior BehaviorData, ctx ContextSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.profile != nil {
		return ErrAlreadyInitialized
	}

	profile := Classify(behavior, ctx)
	set := s.generator.Generate(profile)

	s.profile = &profile
	s.state = OptimizationState{
		CurrentOffer:        &set.Primary,
		AlternativeOffers:   set.Alternatives[:],
		OptimizationHistory: []OptimizationEntry{},
	}
	s.lastEngagement = 0

	s.persistLocked()
	return nil
}

// ReportInteraction feeds live telemetry to the adapter. When the adaptation
// gate opens, the current offer is replaced by its adapted clone, the history
// and counters advance, and the adaptation record is handed to the sink
// without waiting on it.
func (s *Session) ReportInteraction(in InteractionData) (AdaptationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.profile == nil || s.state.CurrentOffer == nil {
		return AdaptationResult{}, ErrNotInitialized
	}

	result := s.adapter.Adapt(in, *s.state.CurrentOffer, *s.profile, s.state.AdaptationCount, s.now())
	s.lastEngagement = result.EngagementScore
	if !result.Applied {
		return result, nil
	}

	original := *s.state.CurrentOffer
	s.state.CurrentOffer = &result.Offer
	s.state.AdaptationCount++
	s.state.ConfidenceLevel = minInt(95, s.state.ConfidenceLevel+10)
	s.state.OptimizationHistory = append(s.state.OptimizationHistory, result.Entry)

	if s.sink != nil {
		s.sink.RecordAdaptation(AdaptationRecord{
			SessionID:       s.id,
			OriginalOffer:   original,
			OptimizedOffer:  result.Offer,
			EngagementScore: result.EngagementScore,
			AdaptationCount: s.state.AdaptationCount,
			ConfidenceLevel: s.state.ConfidenceLevel,
			Timestamp:       result.Entry.Timestamp,
		})
	}

	s.persistLocked()
	return result, nil
}

// SwitchToAlternative replaces the primary offer with a copy of the chosen
// alternative. An out-of-range index is a silent no-op; the alternatives
// themselves are never modified.
func (s *Session) SwitchToAlternative(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.profile == nil {
		return ErrNotInitialized
	}
	if index < 0 || index >= len(s.state.AlternativeOffers) {
		return nil
	}

	chosen := cloneOffer(s.state.AlternativeOffers[index])
	s.state.CurrentOffer = &chosen

	s.persistLocked()
	return nil
}

// Reset clears the profile and all offer state atomically, returning the
// session to its pristine uninitialized value.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profile = nil
	s.state = OptimizationState{}
	s.lastEngagement = 0

	if s.cache != nil {
		id := s.id
		cache := s.cache
		go func() {
			if err := cache.Delete(context.Background(), id); err != nil {
				log.Printf("[personalization] session %s: cache delete failed: %v", id, err)
			}
		}()
	}
}

// Snapshot returns a deep copy of the session for readers.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() SessionSnapshot {
	snap := SessionSnapshot{
		SessionID:           s.id,
		CreatedAt:           s.createdAt,
		Initialized:         s.profile != nil,
		ConfidenceLevel:     s.state.ConfidenceLevel,
		AdaptationCount:     s.state.AdaptationCount,
		LastEngagementScore: s.lastEngagement,
		AlternativeOffers:   make([]Offer, 0, len(s.state.AlternativeOffers)),
		OptimizationHistory: append([]OptimizationEntry(nil), s.state.OptimizationHistory...),
	}
	if s.profile != nil {
		profile := *s.profile
		snap.Profile = &profile
	}
	if s.state.CurrentOffer != nil {
		offer := cloneOffer(*s.state.CurrentOffer)
		snap.CurrentOffer = &offer
	}
	for _, alt := range s.state.AlternativeOffers {
		snap.AlternativeOffers = append(snap.AlternativeOffers, cloneOffer(alt))
	}
	return snap
}

// persistLocked writes the current snapshot to the resume cache without
// blocking the caller. Failures are logged and swallowed.
func (s *Session) persistLocked() {
	if s.cache == nil {
		return
	}
	snap := s.snapshotLocked()
	cache := s.cache
	go func() {
		if err := cache.Save(context.Background(), snap); err != nil {
			log.Printf("[personalization] session %s: cache save failed: %v", snap.SessionID, err)
		}
	}()
}

// SessionManager tracks live sessions and rehydrates evicted ones from the
// snapshot cache.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	generator *Generator
	adapter   *Adapter
	sink      AdaptationSink
	cache     SnapshotCache
}

// ManagerConfig holds session manager tuning knobs.
type ManagerConfig struct {
	// AdaptationThreshold overrides the engagement gate; zero means default.
	AdaptationThreshold int
}

// NewSessionManager creates a manager. The sink and cache may be nil.
func NewSessionManager(cfg ManagerConfig, sink AdaptationSink, cache SnapshotCache) *SessionManager {
	generator := NewGenerator()
	return &SessionManager{
		sessions:  make(map[string]*Session),
		generator: generator,
		adapter:   NewAdapter(generator.Messages(), cfg.AdaptationThreshold),
		sink:      sink,
		cache:     cache,
	}
}

// Create registers a new uninitialized session and returns it.
func (m *SessionManager) Create() *Session {
	sess := newSession(uuid.NewString(), m.generator, m.adapter, m.sink, m.cache)

	m.mu.Lock()
	m.sessions[sess.id] = sess
	m.mu.Unlock()

	return sess
}

// Get returns the live session for an ID, falling back to the snapshot cache
// when the in-memory map misses (e.g. after a restart).
func (m *SessionManager) Get(ctx context.Context, id string) (*Session, bool) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return sess, true
	}

	if m.cache == nil {
		return nil, false
	}
	snap, err := m.cache.Load(ctx, id)
	if err != nil {
		log.Printf("[personalization] session %s: cache load failed: %v", id, err)
		return nil, false
	}
	if snap == nil {
		return nil, false
	}

	sess = m.rehydrate(*snap)

	m.mu.Lock()
	// Another request may have rehydrated concurrently; keep the first one.
	if existing, ok := m.sessions[id]; ok {
		sess = existing
	} else {
		m.sessions[id] = sess
	}
	m.mu.Unlock()

	return sess, true
}

// Remove drops a session from the manager and clears its cached snapshot.
func (m *SessionManager) Remove(ctx context.Context, id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	if m.cache != nil {
		if err := m.cache.Delete(ctx, id); err != nil {
			log.Printf("[personalization] session %s: cache delete failed: %v", id, err)
		}
	}
}

// Count returns the number of live in-memory sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// rehydrate rebuilds a Session from a cached snapshot.
func (m *SessionManager) rehydrate(snap SessionSnapshot) *Session {
	sess := newSession(snap.SessionID, m.generator, m.adapter, m.sink, m.cache)
	sess.createdAt = snap.CreatedAt
	sess.lastEngagement = snap.LastEngagementScore
	sess.profile = snap.Profile
	sess.state = OptimizationState{
		CurrentOffer:        snap.CurrentOffer,
		AlternativeOffers:   snap.AlternativeOffers,
		OptimizationHistory: snap.OptimizationHistory,
		ConfidenceLevel:     snap.ConfidenceLevel,
		AdaptationCount:     snap.AdaptationCount,
	}
	if sess.state.OptimizationHistory == nil {
		sess.state.OptimizationHistory = []OptimizationEntry{}
	}
	return sess
}
