package personalization

// classifierInput bundles the two classification inputs so rule predicates
// share one signature.
type classifierInput struct {
	behavior BehaviorData
	context  ContextSnapshot
}

// demographicRule is one (predicate, effect) pair in the demographic chain.
// Rules run in declaration order; later rules may override fields set by
// earlier ones, which is how the chain expresses its precedence.
type demographicRule struct {
	name  string
	when  func(in classifierInput) bool
	apply func(d *DemographicProfile)
}

var demographicRules = []demographicRule{
	{
		name: "long_session_expert",
		when: func(in classifierInput) bool { return in.behavior.TimeOnSite > 300 },
		apply: func(d *DemographicProfile) {
			d.Experience = ExperienceExpert
			d.BusinessSize = SizeMedium
		},
	},
	{
		name: "mid_session_intermediate",
		when: func(in classifierInput) bool {
			return in.behavior.TimeOnSite > 120 && in.behavior.TimeOnSite <= 300
		},
		apply: func(d *DemographicProfile) {
			d.Experience = ExperienceIntermediate
		},
	},
	{
		name: "short_session_beginner",
		when: func(in classifierInput) bool { return in.behavior.TimeOnSite <= 120 },
		apply: func(d *DemographicProfile) {
			d.Experience = ExperienceBeginner
			d.Budget = BudgetLow
		},
	},
	{
		name: "desktop_morning_escalation",
		when: func(in classifierInput) bool {
			return in.context.Device == DeviceDesktop && in.context.TimeOfDay == TimeMorning
		},
		apply: func(d *DemographicProfile) {
			if d.BusinessSize == SizeSmall {
				d.BusinessSize = SizeMedium
			}
			if d.Budget == BudgetLow {
				d.Budget = BudgetMedium
			}
		},
	},
	{
		name: "organic_intermediate",
		when: func(in classifierInput) bool { return in.context.TrafficSource == SourceOrganic },
		apply: func(d *DemographicProfile) {
			d.Experience = ExperienceIntermediate
		},
	},
	{
		name: "direct_expert",
		when: func(in classifierInput) bool { return in.context.TrafficSource == SourceDirect },
		apply: func(d *DemographicProfile) {
			d.Experience = ExperienceExpert
			if d.Budget == BudgetLow {
				d.Budget = BudgetMedium
			} else {
				d.Budget = BudgetHigh
			}
		},
	},
}

// behavioralRule is one (predicate, effect) pair in the behavioral chain.
type behavioralRule struct {
	name  string
	when  func(in classifierInput) bool
	apply func(b *BehavioralProfile)
}

var behavioralRules = []behavioralRule{
	{
		name: "high_hesitation_analytical",
		when: func(in classifierInput) bool { return in.behavior.ClickHesitation > 2000 },
		apply: func(b *BehavioralProfile) {
			b.DecisionStyle = StyleAnalytical
			b.RiskTolerance = RiskConservative
			b.UrgencyLevel = PaceRelaxed
		},
	},
	{
		name: "low_hesitation_directive",
		when: func(in classifierInput) bool { return in.behavior.ClickHesitation < 500 },
		apply: func(b *BehavioralProfile) {
			b.DecisionStyle = StyleDirective
			b.RiskTolerance = RiskAggressive
			b.UrgencyLevel = PaceUrgent
		},
	},
	{
		name: "deep_scroll_story",
		when: func(in classifierInput) bool { return in.behavior.ScrollDepth > 80 },
		apply: func(b *BehavioralProfile) {
			b.CommunicationPreference = CommStoryDriven
		},
	},
	{
		// Deep readers who also stay a while decide with their team, which
		// outranks the hesitation-derived style.
		name: "deep_scroll_long_session_collaborative",
		when: func(in classifierInput) bool {
			return in.behavior.ScrollDepth > 80 && in.behavior.TimeOnSite > 180
		},
		apply: func(b *BehavioralProfile) {
			b.DecisionStyle = StyleCollaborative
		},
	},
	{
		name: "shallow_scroll_visual",
		when: func(in classifierInput) bool { return in.behavior.ScrollDepth < 30 },
		apply: func(b *BehavioralProfile) {
			b.CommunicationPreference = CommVisual
			b.UrgencyLevel = PaceUrgent
		},
	},
}

// psychographicRule appends tags when its predicate matches the already
// classified demographic/behavioral result. Rules are additive, not mutually
// exclusive, and intentionally do not dedupe.
type psychographicRule struct {
	name  string
	when  func(d DemographicProfile, b BehavioralProfile) bool
	apply func(p *PsychographicProfile)
}

var psychographicRules = []psychographicRule{
	{
		name: "analytical_tags",
		when: func(d DemographicProfile, b BehavioralProfile) bool {
			return b.DecisionStyle == StyleAnalytical
		},
		apply: func(p *PsychographicProfile) {
			p.Values = append(p.Values, "Precision", "Reliability", "Transparency")
			p.Motivations = append(p.Motivations, "Optimization", "Control", "Measurement")
			p.PainPoints = append(p.PainPoints, "Lack of data", "Uncertainty")
			p.Goals = append(p.Goals, "Maximum efficiency", "Measurable ROI")
		},
	},
	{
		name: "conservative_tags",
		when: func(d DemographicProfile, b BehavioralProfile) bool {
			return b.RiskTolerance == RiskConservative
		},
		apply: func(p *PsychographicProfile) {
			p.Values = append(p.Values, "Security", "Stability")
			p.PainPoints = append(p.PainPoints, "Fear of failure", "Complexity")
			p.Goals = append(p.Goals, "Stable growth", "Risk reduction")
		},
	},
	{
		name: "startup_tags",
		when: func(d DemographicProfile, b BehavioralProfile) bool {
			return d.BusinessSize == SizeStartup
		},
		apply: func(p *PsychographicProfile) {
			p.Motivations = append(p.Motivations, "Innovation", "Rapid growth")
			p.PainPoints = append(p.PainPoints, "Limited budget", "Lack of time")
			p.Goals = append(p.Goals, "Scaling", "Differentiation")
		},
	},
}

// Classify maps raw behavioral telemetry plus an ambient context snapshot to
// a UserProfile. It is a pure function: identical inputs always produce an
// identical profile. Every enum field falls back to a documented default when
// no rule overrides it.
func Classify(behavior BehaviorData, ctx ContextSnapshot) UserProfile {
	in := classifierInput{behavior: behavior, context: ctx}

	demographic := DemographicProfile{
		BusinessSize: SizeSmall,
		Industry:     "service",
		Experience:   ExperienceIntermediate,
		Budget:       BudgetMedium,
	}
	for _, rule := range demographicRules {
		if rule.when(in) {
			rule.apply(&demographic)
		}
	}

	behavioral := BehavioralProfile{
		DecisionStyle:           StyleAnalytical,
		RiskTolerance:           RiskModerate,
		CommunicationPreference: CommDataDriven,
		UrgencyLevel:            PaceStandard,
	}
	for _, rule := range behavioralRules {
		if rule.when(in) {
			rule.apply(&behavioral)
		}
	}

	var psychographic PsychographicProfile
	for _, rule := range psychographicRules {
		if rule.when(demographic, behavioral) {
			rule.apply(&psychographic)
		}
	}

	return UserProfile{
		Demographic:   demographic,
		Behavioral:    behavioral,
		Psychographic: psychographic,
		Contextual:    ctx,
	}
}
