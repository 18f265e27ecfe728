// Package personalization implements the adaptive offer engine: it classifies
// a visitor from behavioral telemetry and ambient context, generates a priced
// offer with two alternatives, and adapts the active offer in place when live
// engagement drops below threshold.
package personalization

import "time"

// TimeOfDay buckets the local wall-clock hour.
type TimeOfDay string

const (
	TimeMorning   TimeOfDay = "morning"
	TimeAfternoon TimeOfDay = "afternoon"
	TimeEvening   TimeOfDay = "evening"
	TimeNight     TimeOfDay = "night"
)

// DeviceClass buckets the viewport width.
type DeviceClass string

const (
	DeviceMobile  DeviceClass = "mobile"
	DeviceTablet  DeviceClass = "tablet"
	DeviceDesktop DeviceClass = "desktop"
)

// TrafficSource classifies the session referrer.
type TrafficSource string

const (
	SourceOrganic  TrafficSource = "organic"
	SourcePaid     TrafficSource = "paid"
	SourceSocial   TrafficSource = "social"
	SourceDirect   TrafficSource = "direct"
	SourceReferral TrafficSource = "referral"
)

// ContextSnapshot holds the ambient, non-behavioral signals captured once per
// session. Immutable after creation; never persisted on its own.
type ContextSnapshot struct {
	TimeOfDay      TimeOfDay     `json:"time_of_day"`
	Device         DeviceClass   `json:"device"`
	TrafficSource  TrafficSource `json:"traffic_source"`
	PreviousVisits int           `json:"previous_visits"`
}

// BusinessSize is the inferred size of the visitor's business.
type BusinessSize string

const (
	SizeStartup    BusinessSize = "startup"
	SizeSmall      BusinessSize = "small"
	SizeMedium     BusinessSize = "medium"
	SizeEnterprise BusinessSize = "enterprise"
)

// ExperienceLevel is the inferred familiarity with marketing tooling.
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceExpert       ExperienceLevel = "expert"
)

// BudgetTier is the inferred spending capacity.
type BudgetTier string

const (
	BudgetLow     BudgetTier = "low"
	BudgetMedium  BudgetTier = "medium"
	BudgetHigh    BudgetTier = "high"
	BudgetPremium BudgetTier = "premium"
)

// DecisionStyle describes how the visitor appears to make decisions.
type DecisionStyle string

const (
	StyleAnalytical    DecisionStyle = "analytical"
	StyleIntuitive     DecisionStyle = "intuitive"
	StyleCollaborative DecisionStyle = "collaborative"
	StyleDirective     DecisionStyle = "directive"
)

// RiskTolerance describes the visitor's appetite for risk.
type RiskTolerance string

const (
	RiskConservative RiskTolerance = "conservative"
	RiskModerate     RiskTolerance = "moderate"
	RiskAggressive   RiskTolerance = "aggressive"
)

// CommunicationPreference describes which framing the visitor responds to.
type CommunicationPreference string

const (
	CommDataDriven  CommunicationPreference = "data-driven"
	CommStoryDriven CommunicationPreference = "story-driven"
	CommVisual      CommunicationPreference = "visual"
)

// UrgencyPreference describes the visitor's pace.
type UrgencyPreference string

const (
	PaceRelaxed  UrgencyPreference = "relaxed"
	PaceStandard UrgencyPreference = "standard"
	PaceUrgent   UrgencyPreference = "urgent"
)

// DemographicProfile holds the inferred demographic axes. Every field always
// resolves to exactly one value; the rule chain has fixed fallback defaults.
type DemographicProfile struct {
	BusinessSize BusinessSize    `json:"business_size"`
	Industry     string          `json:"industry"`
	Experience   ExperienceLevel `json:"experience"`
	Budget       BudgetTier      `json:"budget"`
}

// BehavioralProfile holds the inferred behavioral axes.
type BehavioralProfile struct {
	DecisionStyle           DecisionStyle           `json:"decision_style"`
	RiskTolerance           RiskTolerance           `json:"risk_tolerance"`
	CommunicationPreference CommunicationPreference `json:"communication_preference"`
	UrgencyLevel            UrgencyPreference       `json:"urgency_level"`
}

// PsychographicProfile holds additive tag lists accumulated per matching
// rule. Duplicates are permitted; all four lists may be empty.
type PsychographicProfile struct {
	Values      []string `json:"values"`
	Motivations []string `json:"motivations"`
	PainPoints  []string `json:"pain_points"`
	Goals       []string `json:"goals"`
}

// UserProfile is the full classification of one visitor. Immutable once
// produced; a reset builds a brand-new profile rather than mutating this one.
type UserProfile struct {
	Demographic   DemographicProfile   `json:"demographic"`
	Behavioral    BehavioralProfile    `json:"behavioral"`
	Psychographic PsychographicProfile `json:"psychographic"`
	Contextual    ContextSnapshot      `json:"contextual"`
}

// BehaviorData is the raw telemetry fed into classification. Zero values are
// the documented defaults for absent signals; nothing is rejected.
type BehaviorData struct {
	TimeOnSite      float64 `json:"time_on_site"`      // seconds
	ClickHesitation float64 `json:"click_hesitation"`  // milliseconds
	ScrollDepth     float64 `json:"scroll_depth"`      // percent 0-100
	PreviousVisits  int     `json:"previous_visits"`
}

// UrgencyLevel grades the urgency framing attached to an offer.
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// OfferUrgency is the urgency framing shown with an offer.
type OfferUrgency struct {
	Level         UrgencyLevel `json:"level"`
	TimeRemaining int          `json:"time_remaining"` // minutes
	Reason        string       `json:"reason"`
}

// OfferPersonalization carries the per-visitor annotations on an offer.
type OfferPersonalization struct {
	ProfileMatch    int      `json:"profile_match"` // 0-100
	CustomMessage   string   `json:"custom_message"`
	AdaptedFeatures []string `json:"adapted_features"`
}

// OfferProbability holds display metrics, each an integer percent.
// Engagement is capped at 95 and satisfaction at 98.
type OfferProbability struct {
	Conversion   int `json:"conversion"`
	Engagement   int `json:"engagement"`
	Satisfaction int `json:"satisfaction"`
}

// Offer is a priced, annotated proposal. The ID is regenerated on every
// creation or mutation and acts as a version stamp. The identity
// price == originalPrice * (1 - discount/100) holds after every mutation, and
// the discount never decreases across in-place adaptations.
type Offer struct {
	ID              string               `json:"id"`
	Price           float64              `json:"price"`
	OriginalPrice   float64              `json:"original_price"`
	Discount        int                  `json:"discount"` // percent 0-100
	Benefits        []string             `json:"benefits"`
	Urgency         OfferUrgency         `json:"urgency"`
	Personalization OfferPersonalization `json:"personalization"`
	Probability     OfferProbability     `json:"probability"`
}

// OfferSet is the generator output: the primary offer plus the conservative
// and aggressive alternatives, created together.
type OfferSet struct {
	Primary      Offer    `json:"primary"`
	Alternatives [2]Offer `json:"alternatives"`
}

// OptimizationEntry is one append-only log line describing an applied
// adaptation. The history is never truncated or reordered.
type OptimizationEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Change    string    `json:"change"`
	Reason    string    `json:"reason"`
	Impact    int       `json:"impact"`
}

// InteractionData is the live telemetry reported against the current offer.
type InteractionData struct {
	TimeOnPage      float64 `json:"time_on_page"`     // seconds
	ScrollDepth     float64 `json:"scroll_depth"`     // percent 0-100
	ElementsClicked int     `json:"elements_clicked"`
	HoverTime       float64 `json:"hover_time"`       // milliseconds
	HesitationTime  float64 `json:"hesitation_time"`  // milliseconds
}
