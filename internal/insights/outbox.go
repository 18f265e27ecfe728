package insights

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/iluma/offer-engine/internal/personalization"
)

// InsightTypeOptimization labels records produced by the real-time adapter.
const InsightTypeOptimization = "quantum_optimization"

const (
	defaultQueueSize = 256
	deliveryTimeout  = 10 * time.Second
)

// optimizationPayload is the insight_data shape for adaptation records.
type optimizationPayload struct {
	SessionID       string                `json:"session_id"`
	OriginalOffer   personalization.Offer `json:"original_offer"`
	OptimizedOffer  personalization.Offer `json:"optimized_offer"`
	EngagementScore int                   `json:"engagement_score"`
	AdaptationCount int                   `json:"adaptation_count"`
	Timestamp       time.Time             `json:"timestamp"`
}

// Outbox buffers adaptation records and delivers them to the store from a
// background dispatcher. Delivery is best-effort by contract: enqueueing
// never blocks the engine, a full queue drops the record with a log line, and
// a failed insert is logged and forgotten. In-memory session state is never
// rolled back on delivery failure.
type Outbox struct {
	store *Store
	queue chan personalization.AdaptationRecord

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewOutbox creates an outbox over the store. A non-positive buffer selects
// the default queue size.
func NewOutbox(store *Store, buffer int) *Outbox {
	if buffer <= 0 {
		buffer = defaultQueueSize
	}
	return &Outbox{
		store: store,
		queue: make(chan personalization.AdaptationRecord, buffer),
	}
}

// Start launches the dispatcher. Cancelling ctx stops it early; Stop drains
// whatever is already queued.
func (o *Outbox) Start(ctx context.Context) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case rec, ok := <-o.queue:
				if !ok {
					return
				}
				o.deliver(rec)
			}
		}
	}()
}

// Stop closes the queue and waits for the dispatcher to drain it.
func (o *Outbox) Stop() {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.queue)
	}
	o.mu.Unlock()
	o.wg.Wait()
}

// RecordAdaptation enqueues one adaptation record. Never blocks: when the
// queue is full or the outbox is stopped the record is dropped with a log
// line, matching the fire-and-forget contract with the session.
func (o *Outbox) RecordAdaptation(rec personalization.AdaptationRecord) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		log.Printf("[insights] outbox stopped, dropping record for session %s", rec.SessionID)
		return
	}
	select {
	case o.queue <- rec:
	default:
		log.Printf("[insights] outbox full, dropping record for session %s", rec.SessionID)
	}
}

// QueueDepth reports how many records are waiting for delivery.
func (o *Outbox) QueueDepth() int {
	return len(o.queue)
}

func (o *Outbox) deliver(rec personalization.AdaptationRecord) {
	payload, err := json.Marshal(optimizationPayload{
		SessionID:       rec.SessionID,
		OriginalOffer:   rec.OriginalOffer,
		OptimizedOffer:  rec.OptimizedOffer,
		EngagementScore: rec.EngagementScore,
		AdaptationCount: rec.AdaptationCount,
		Timestamp:       rec.Timestamp,
	})
	if err != nil {
		log.Printf("[insights] marshal failed for session %s: %v", rec.SessionID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	if _, err := o.store.Insert(ctx, Record{
		InsightType:     InsightTypeOptimization,
		InsightData:     payload,
		ConfidenceScore: rec.ConfidenceLevel,
	}); err != nil {
		log.Printf("[insights] insert failed for session %s: %v", rec.SessionID, err)
	}
}
