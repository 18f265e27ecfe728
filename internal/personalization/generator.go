package personalization

import (
	"math"

	"github.com/google/uuid"
)

// BasePrice is the undiscounted package price in currency-agnostic units.
const BasePrice = 2500.0

// Generator derives an OfferSet from a classified profile.
type Generator struct {
	messages *MessageBuilder
}

// NewGenerator creates an offer generator with its own message builder.
func NewGenerator() *Generator {
	return &Generator{messages: NewMessageBuilder()}
}

// pricingRow is the per-business-size pricing and benefit table.
type pricingRow struct {
	priceMultiplier float64
	discount        int
	benefits        []string
}

var pricingTable = map[BusinessSize]pricingRow{
	SizeStartup: {
		priceMultiplier: 1.0,
		discount:        40,
		benefits:        []string{"Startup tariff", "6 months priority support"},
	},
	SizeSmall: {
		priceMultiplier: 1.0,
		discount:        20,
		benefits:        []string{"Dedicated support", "Training included"},
	},
	SizeMedium: {
		priceMultiplier: 1.0,
		discount:        0,
		benefits:        []string{"Full implementation", "Premium support"},
	},
	SizeEnterprise: {
		priceMultiplier: 1.5,
		discount:        0,
		benefits:        []string{"Enterprise solution", "24/7 support", "Dedicated account manager"},
	},
}

// featureRow is the per-decision-style feature adaptation table.
type featureRow struct {
	features []string
	benefits []string
}

var featureTable = map[DecisionStyle]featureRow{
	StyleAnalytical: {
		features: []string{"Advanced dashboard", "Detailed reports", "A/B testing"},
		benefits: []string{"Real-time data", "ROI tracking"},
	},
	StyleIntuitive: {
		features: []string{"Simplified interface", "Automatic recommendations"},
		benefits: []string{"1-click setup"},
	},
	StyleCollaborative: {
		features: []string{"Multi-user access", "Offer sharing", "Inline comments"},
		benefits: []string{"Team workflows"},
	},
	StyleDirective: {
		features: []string{"Advanced controls", "Custom automation"},
		benefits: []string{"Full control", "Deep customization"},
	},
}

// Generate builds the primary offer plus the conservative and aggressive
// alternatives for one profile. Alternatives are immutable once generated;
// only the primary is ever adapted in place.
func (g *Generator) Generate(profile UserProfile) OfferSet {
	row, ok := pricingTable[profile.Demographic.BusinessSize]
	if !ok {
		row = pricingTable[SizeSmall]
	}

	offer := Offer{
		ID:            uuid.NewString(),
		OriginalPrice: BasePrice * row.priceMultiplier,
		Discount:      row.discount,
		Benefits:      append([]string(nil), row.benefits...),
	}
	offer.Price = discountedPrice(offer.OriginalPrice, offer.Discount)

	if adapted, ok := featureTable[profile.Behavioral.DecisionStyle]; ok {
		offer.Personalization.AdaptedFeatures = append([]string(nil), adapted.features...)
		offer.Benefits = append(offer.Benefits, adapted.benefits...)
	}

	offer.Urgency = urgencyFor(profile)

	conversion := conversionProbability(profile)
	offer.Probability = OfferProbability{
		Conversion:   roundPercent(conversion),
		Engagement:   minInt(95, int(math.Round(conversion*120))),
		Satisfaction: minInt(98, int(math.Round(conversion*130))),
	}
	offer.Personalization.ProfileMatch = roundPercent(conversion)
	offer.Personalization.CustomMessage = g.messages.OfferMessage(profile, offer.Price, offer.Personalization.AdaptedFeatures)

	return OfferSet{
		Primary:      offer,
		Alternatives: [2]Offer{conservativeVariant(offer), aggressiveVariant(offer)},
	}
}

// Messages exposes the builder so the adapter can rewrite offer copy with the
// same engine and filters.
func (g *Generator) Messages() *MessageBuilder {
	return g.messages
}

// urgencyFor picks the urgency framing by priority: an urgent visitor pace
// wins, then an evening session, then the standard time-limited framing.
func urgencyFor(profile UserProfile) OfferUrgency {
	switch {
	case profile.Behavioral.UrgencyLevel == PaceUrgent:
		return OfferUrgency{Level: UrgencyHigh, TimeRemaining: 120, Reason: "Immediate action required for this rate"}
	case profile.Contextual.TimeOfDay == TimeEvening:
		return OfferUrgency{Level: UrgencyHigh, TimeRemaining: 720, Reason: "Special night offer"}
	default:
		return OfferUrgency{Level: UrgencyMedium, TimeRemaining: 1440, Reason: "Time-limited offer"}
	}
}

// conversionProbability sums the heuristic bonuses onto the 0.25 base and
// clamps to [0,1]. The maximal-boost combination would otherwise reach 0.80,
// but the clamp guards against future bonus additions.
func conversionProbability(profile UserProfile) float64 {
	p := 0.25
	if profile.Behavioral.RiskTolerance == RiskAggressive {
		p += 0.20
	}
	if profile.Demographic.Budget == BudgetHigh || profile.Demographic.Budget == BudgetPremium {
		p += 0.15
	}
	if profile.Contextual.PreviousVisits > 0 {
		p += 0.10
	}
	if profile.Behavioral.UrgencyLevel == PaceUrgent {
		p += 0.10
	}
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}

// conservativeVariant clones the primary with a softer discount and low
// urgency. The clone gets its own ID.
func conservativeVariant(primary Offer) Offer {
	alt := cloneOffer(primary)
	alt.ID = uuid.NewString()
	alt.Discount = maxInt(0, primary.Discount-10)
	alt.Price = discountedPrice(alt.OriginalPrice, alt.Discount)
	alt.Urgency.Level = UrgencyLow
	return alt
}

// aggressiveVariant clones the primary with a deeper discount, critical
// urgency and a 30-minute window.
func aggressiveVariant(primary Offer) Offer {
	alt := cloneOffer(primary)
	alt.ID = uuid.NewString()
	alt.Discount = minInt(60, primary.Discount+15)
	alt.Price = discountedPrice(alt.OriginalPrice, alt.Discount)
	alt.Urgency.Level = UrgencyCritical
	alt.Urgency.TimeRemaining = 30
	return alt
}

// cloneOffer deep-copies an offer so variants and snapshots never share
// backing slices with the primary.
func cloneOffer(o Offer) Offer {
	clone := o
	clone.Benefits = append([]string(nil), o.Benefits...)
	clone.Personalization.AdaptedFeatures = append([]string(nil), o.Personalization.AdaptedFeatures...)
	return clone
}

func discountedPrice(originalPrice float64, discount int) float64 {
	return originalPrice * (1 - float64(discount)/100)
}

func roundPercent(fraction float64) int {
	return int(math.Round(fraction * 100))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
