package personalization

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxAdaptations is the hard ceiling on in-place adaptations per session.
const MaxAdaptations = 3

// DefaultAdaptationThreshold gates adaptation: only engagement strictly
// below this triggers a rewrite of the active offer.
const DefaultAdaptationThreshold = 40

// Adapter applies the low-engagement adaptation rules to the active offer.
type Adapter struct {
	messages  *MessageBuilder
	threshold int
}

// NewAdapter creates an adapter sharing the generator's message builder.
// A non-positive threshold selects the default.
func NewAdapter(messages *MessageBuilder, threshold int) *Adapter {
	if threshold <= 0 {
		threshold = DefaultAdaptationThreshold
	}
	return &Adapter{messages: messages, threshold: threshold}
}

// AdaptationResult reports one adapter pass. When Applied is false the input
// offer is returned untouched and Entry is zero.
type AdaptationResult struct {
	Applied         bool              `json:"applied"`
	Offer           Offer             `json:"offer"`
	Entry           OptimizationEntry `json:"entry,omitempty"`
	EngagementScore int               `json:"engagement_score"`
}

// EngagementScore computes the 0-100 heuristic from page-interaction
// telemetry: base 50, +15 for over a minute on page, +10 for scrolling past
// half, +15 for more than two clicks, +10 for long hovers.
func EngagementScore(in InteractionData) int {
	score := 50
	if in.TimeOnPage > 60 {
		score += 15
	}
	if in.ScrollDepth > 50 {
		score += 10
	}
	if in.ElementsClicked > 2 {
		score += 15
	}
	if in.HoverTime > 5000 {
		score += 10
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Adapt evaluates one interaction report against the active offer. Adaptation
// applies only when the engagement score falls below the threshold and the
// session has adaptations left; anything else is a no-op, not an error.
//
// The hesitation and shallow-scroll rules fire independently (zero, one or
// both per pass); the mobile reformat always runs last because it rewrites
// whatever message the earlier rules produced.
func (a *Adapter) Adapt(in InteractionData, offer Offer, profile UserProfile, adaptationCount int, now time.Time) AdaptationResult {
	score := EngagementScore(in)

	if score >= a.threshold || adaptationCount >= MaxAdaptations {
		return AdaptationResult{Applied: false, Offer: offer, EngagementScore: score}
	}

	adapted := cloneOffer(offer)

	if in.HesitationTime > 3000 {
		// The discount only ever moves up: the +10 bump is capped at 50, but
		// never below whatever the offer already carries.
		bumped := minInt(adapted.Discount+10, 50)
		adapted.Discount = maxInt(adapted.Discount, bumped)
		adapted.Price = discountedPrice(adapted.OriginalPrice, adapted.Discount)
		adapted.Urgency.Level = UrgencyHigh
		adapted.Urgency.TimeRemaining = minInt(adapted.Urgency.TimeRemaining, 60)
		adapted.Urgency.Reason = "Flash offer - last chance!"
	}

	if in.ScrollDepth < 30 {
		if len(adapted.Benefits) > 3 {
			adapted.Benefits = adapted.Benefits[:3]
		}
		adapted.Personalization.CustomMessage = a.messages.ShortOfferMessage(adapted.Price)
	}

	if profile.Contextual.Device == DeviceMobile {
		adapted.Personalization.CustomMessage = FormatForMobile(adapted.Personalization.CustomMessage)
	}

	adapted.ID = uuid.NewString()

	entry := OptimizationEntry{
		Timestamp: now,
		Change:    "price and urgency adapted",
		Reason:    fmt.Sprintf("low engagement (%d%%)", score),
		Impact:    15,
	}

	return AdaptationResult{Applied: true, Offer: adapted, Entry: entry, EngagementScore: score}
}
