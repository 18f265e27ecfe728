package personalization

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu      sync.Mutex
	records []AdaptationRecord
}

func (c *captureSink) RecordAdaptation(rec AdaptationRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
}

func (c *captureSink) all() []AdaptationRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]AdaptationRecord(nil), c.records...)
}

func lowEngagement() InteractionData {
	return InteractionData{TimeOnPage: 30, ScrollDepth: 45, ElementsClicked: 1, HoverTime: 1000, HesitationTime: 4000}
}

// openGate builds a manager whose adaptation gate admits the base-only
// engagement score of 50.
func openGateManager(sink AdaptationSink) *SessionManager {
	return NewSessionManager(ManagerConfig{AdaptationThreshold: 60}, sink, nil)
}

func initializedSession(t *testing.T, m *SessionManager) *Session {
	t.Helper()
	sess := m.Create()
	err := sess.Initialize(
		BehaviorData{TimeOnSite: 400, ClickHesitation: 100, ScrollDepth: 90, PreviousVisits: 2},
		ContextSnapshot{TimeOfDay: TimeMorning, Device: DeviceDesktop, TrafficSource: SourceDirect, PreviousVisits: 2},
	)
	require.NoError(t, err)
	return sess
}

func TestSessionLifecycle(t *testing.T) {
	m := NewSessionManager(ManagerConfig{}, nil, nil)
	sess := m.Create()

	// Uninitialized sessions reject interaction reports.
	_, err := sess.ReportInteraction(lowEngagement())
	assert.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, sess.Initialize(BehaviorData{TimeOnSite: 200}, ContextSnapshot{TimeOfDay: TimeAfternoon, Device: DeviceDesktop, TrafficSource: SourceReferral}))
	assert.ErrorIs(t, sess.Initialize(BehaviorData{}, ContextSnapshot{}), ErrAlreadyInitialized)

	snap := sess.Snapshot()
	assert.True(t, snap.Initialized)
	require.NotNil(t, snap.CurrentOffer)
	assert.Len(t, snap.AlternativeOffers, 2)
	assert.Empty(t, snap.OptimizationHistory)
	assert.Equal(t, 0, snap.ConfidenceLevel)
}

func TestSessionAdaptationAdvancesState(t *testing.T) {
	sink := &captureSink{}
	m := openGateManager(sink)
	sess := initializedSession(t, m)

	before := sess.Snapshot()
	result, err := sess.ReportInteraction(lowEngagement())
	require.NoError(t, err)
	require.True(t, result.Applied)

	snap := sess.Snapshot()
	assert.Equal(t, 1, snap.AdaptationCount)
	assert.Equal(t, 10, snap.ConfidenceLevel)
	assert.Len(t, snap.OptimizationHistory, 1)
	assert.NotEqual(t, before.CurrentOffer.ID, snap.CurrentOffer.ID)
	assert.GreaterOrEqual(t, snap.CurrentOffer.Discount, before.CurrentOffer.Discount)

	records := sink.all()
	require.Len(t, records, 1)
	assert.Equal(t, sess.ID(), records[0].SessionID)
	assert.Equal(t, before.CurrentOffer.ID, records[0].OriginalOffer.ID)
	assert.Equal(t, snap.CurrentOffer.ID, records[0].OptimizedOffer.ID)
	assert.Equal(t, 1, records[0].AdaptationCount)
}

func TestSessionAdaptationCeiling(t *testing.T) {
	sink := &captureSink{}
	m := openGateManager(sink)
	sess := initializedSession(t, m)

	for i := 0; i < MaxAdaptations; i++ {
		result, err := sess.ReportInteraction(lowEngagement())
		require.NoError(t, err)
		assert.True(t, result.Applied, "adaptation %d", i+1)
	}

	frozen := sess.Snapshot()
	result, err := sess.ReportInteraction(lowEngagement())
	require.NoError(t, err)
	assert.False(t, result.Applied)

	after := sess.Snapshot()
	assert.Equal(t, frozen.CurrentOffer.ID, after.CurrentOffer.ID)
	assert.Equal(t, frozen.CurrentOffer.Discount, after.CurrentOffer.Discount)
	assert.Len(t, after.OptimizationHistory, MaxAdaptations)
	assert.Equal(t, MaxAdaptations, after.AdaptationCount)
	assert.Len(t, sink.all(), MaxAdaptations)
}

func TestSessionDiscountMonotonicAcrossAdaptations(t *testing.T) {
	m := openGateManager(nil)
	sess := initializedSession(t, m)

	last := sess.Snapshot().CurrentOffer.Discount
	for i := 0; i < MaxAdaptations; i++ {
		_, err := sess.ReportInteraction(lowEngagement())
		require.NoError(t, err)
		current := sess.Snapshot().CurrentOffer.Discount
		assert.GreaterOrEqual(t, current, last)
		last = current
	}
}

func TestSessionAlternativesUnaffectedByAdaptation(t *testing.T) {
	m := openGateManager(nil)
	sess := initializedSession(t, m)

	before := sess.Snapshot().AlternativeOffers
	for i := 0; i < MaxAdaptations; i++ {
		_, err := sess.ReportInteraction(lowEngagement())
		require.NoError(t, err)
	}
	after := sess.Snapshot().AlternativeOffers
	require.Equal(t, before, after)
}

func TestSessionConcurrentReportsKeepCeiling(t *testing.T) {
	m := openGateManager(nil)
	sess := initializedSession(t, m)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess.ReportInteraction(lowEngagement()) //nolint:errcheck
		}()
	}
	wg.Wait()

	snap := sess.Snapshot()
	assert.Equal(t, MaxAdaptations, snap.AdaptationCount)
	assert.Len(t, snap.OptimizationHistory, MaxAdaptations)
}

func TestSessionSwitchToAlternative(t *testing.T) {
	m := openGateManager(nil)
	sess := initializedSession(t, m)

	snap := sess.Snapshot()
	aggressive := snap.AlternativeOffers[1]

	require.NoError(t, sess.SwitchToAlternative(1))
	after := sess.Snapshot()
	assert.Equal(t, aggressive.Discount, after.CurrentOffer.Discount)
	assert.Equal(t, aggressive.ID, after.CurrentOffer.ID)

	// Out-of-range indices are silent no-ops.
	require.NoError(t, sess.SwitchToAlternative(5))
	require.NoError(t, sess.SwitchToAlternative(-1))
	assert.Equal(t, after.CurrentOffer.ID, sess.Snapshot().CurrentOffer.ID)

	// Alternatives list is untouched by switching.
	assert.Equal(t, snap.AlternativeOffers, sess.Snapshot().AlternativeOffers)
}

func TestSessionReset(t *testing.T) {
	m := openGateManager(nil)
	sess := initializedSession(t, m)
	_, err := sess.ReportInteraction(lowEngagement())
	require.NoError(t, err)

	sess.Reset()

	snap := sess.Snapshot()
	assert.False(t, snap.Initialized)
	assert.Nil(t, snap.Profile)
	assert.Nil(t, snap.CurrentOffer)
	assert.Empty(t, snap.AlternativeOffers)
	assert.Empty(t, snap.OptimizationHistory)
	assert.Equal(t, 0, snap.ConfidenceLevel)
	assert.Equal(t, 0, snap.AdaptationCount)

	// A reset session can be initialized again.
	require.NoError(t, sess.Initialize(BehaviorData{TimeOnSite: 200}, ContextSnapshot{TimeOfDay: TimeAfternoon, Device: DeviceTablet, TrafficSource: SourceReferral}))
}

func TestManagerGetAndRemove(t *testing.T) {
	m := NewSessionManager(ManagerConfig{}, nil, nil)
	sess := m.Create()

	got, ok := m.Get(context.Background(), sess.ID())
	require.True(t, ok)
	assert.Same(t, sess, got)

	_, ok = m.Get(context.Background(), "missing")
	assert.False(t, ok)

	m.Remove(context.Background(), sess.ID())
	_, ok = m.Get(context.Background(), sess.ID())
	assert.False(t, ok)
	assert.Equal(t, 0, m.Count())
}
