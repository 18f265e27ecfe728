// Package report renders plain-text summaries of personalization sessions
// for export, and optionally archives them to S3.
package report

import (
	"encoding/json"
	"fmt"

	"github.com/osteele/liquid"

	"github.com/iluma/offer-engine/internal/personalization"
	"github.com/iluma/offer-engine/internal/scoring"
)

const sessionTemplate = `ILUMA SESSION REPORT
====================
Session:     {{ session_id }}
Created:     {{ created_at }}
Lead score:  {{ score.total }}/100 (grade {{ score.grade }})
{% if profile %}
PROFILE
-------
Business size:  {{ profile.demographic.business_size }}
Experience:     {{ profile.demographic.experience }}
Budget:         {{ profile.demographic.budget }}
Decision style: {{ profile.behavioral.decision_style }}
Risk tolerance: {{ profile.behavioral.risk_tolerance }}
Device:         {{ profile.contextual.device }}
Traffic source: {{ profile.contextual.traffic_source }}
{% endif %}{% if current_offer %}
CURRENT OFFER
-------------
Price:    {{ current_offer.price | currency }} (was {{ current_offer.original_price | currency }}, -{{ current_offer.discount }}%)
Urgency:  {{ current_offer.urgency.level }} ({{ current_offer.urgency.reason }})
Benefits:
{% for benefit in current_offer.benefits %}  - {{ benefit }}
{% endfor %}{% endif %}
OPTIMIZATION HISTORY ({{ optimization_history | size }} entries, confidence {{ confidence_level }}%)
--------------------
{% for entry in optimization_history %}  {{ entry.timestamp }}  {{ entry.change }} — {{ entry.reason }}
{% endfor %}`

// Builder renders session reports through the Liquid engine.
type Builder struct {
	engine *liquid.Engine
	tpl    *liquid.Template
}

// NewBuilder creates a report builder. Template parse failures surface on
// first Render rather than at construction.
func NewBuilder() *Builder {
	engine := liquid.NewEngine()
	engine.RegisterFilter("currency", func(value interface{}) string {
		switch v := value.(type) {
		case float64:
			return personalization.FormatAmount(v)
		case int:
			return personalization.FormatAmount(float64(v))
		default:
			return fmt.Sprintf("%v", value)
		}
	})
	return &Builder{engine: engine}
}

// Render produces the text report for one session snapshot and its computed
// lead score.
func (b *Builder) Render(snap personalization.SessionSnapshot, score scoring.LeadScore) (string, error) {
	if b.tpl == nil {
		tpl, err := b.engine.ParseString(sessionTemplate)
		if err != nil {
			return "", fmt.Errorf("parsing report template: %w", err)
		}
		b.tpl = tpl
	}

	bindings, err := toBindings(snap)
	if err != nil {
		return "", err
	}
	scoreBindings, err := toMap(score)
	if err != nil {
		return "", err
	}
	bindings["score"] = scoreBindings

	out, err := b.tpl.RenderString(bindings)
	if err != nil {
		return "", fmt.Errorf("rendering report for session %s: %w", snap.SessionID, err)
	}
	return out, nil
}

// toBindings flattens the snapshot into the generic map shape Liquid
// traverses, using the struct's JSON tags as field names.
func toBindings(snap personalization.SessionSnapshot) (map[string]interface{}, error) {
	return toMap(snap)
}

func toMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling report bindings: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding report bindings: %w", err)
	}
	return m, nil
}
