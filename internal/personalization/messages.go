package personalization

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/osteele/liquid"
)

// MessageBuilder renders the personalized offer copy through the Liquid
// template engine, with parsed templates cached per source string.
type MessageBuilder struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewMessageBuilder creates a message builder with the custom filters the
// offer templates rely on.
func NewMessageBuilder() *MessageBuilder {
	mb := &MessageBuilder{engine: liquid.NewEngine()}

	// Currency formatting: {{ price | currency }}
	mb.engine.RegisterFilter("currency", func(value interface{}) string {
		switch v := value.(type) {
		case float64:
			return FormatAmount(v)
		case int:
			return FormatAmount(float64(v))
		default:
			return fmt.Sprintf("%v", value)
		}
	})

	return mb
}

// Opening lines keyed by inferred business size. The price placeholder is
// interpolated at render time.
var sizeTemplates = map[BusinessSize]string{
	SizeStartup:    "Built for startups like yours: get our full growth stack for {{ price | currency }}, priced so every dollar keeps working for you.",
	SizeSmall:      "Your business deserves big-agency firepower. For {{ price | currency }} you get the complete package with hands-on support.",
	SizeMedium:     "Scale with confidence: our complete implementation at {{ price | currency }} is sized for teams ready to grow.",
	SizeEnterprise: "An enterprise-grade engagement at {{ price | currency }}, with dedicated resources across your whole organization.",
}

// Closing sentences keyed by decision style.
var styleSuffixes = map[DecisionStyle]string{
	StyleAnalytical:    "Every metric is tracked so you can verify the return yourself.",
	StyleIntuitive:     "It just works, right out of the box.",
	StyleCollaborative: "Bring your whole team along; everyone gets a seat.",
	StyleDirective:     "You stay in full control of every lever.",
}

// OfferMessage builds the custom message for an offer: size-keyed opener +
// style-keyed suffix + an optional clause naming the first two adapted
// features.
func (mb *MessageBuilder) OfferMessage(profile UserProfile, price float64, features []string) string {
	opener, ok := sizeTemplates[profile.Demographic.BusinessSize]
	if !ok {
		opener = sizeTemplates[SizeSmall]
	}
	msg := mb.render(opener, map[string]interface{}{"price": price})

	if suffix, ok := styleSuffixes[profile.Behavioral.DecisionStyle]; ok {
		msg += " " + suffix
	}

	if len(features) > 0 {
		head := features
		if len(head) > 2 {
			head = head[:2]
		}
		msg += " Included: " + strings.Join(head, ", ") + "."
	}

	return msg
}

// ShortOfferMessage is the compact replacement used when a visitor barely
// scrolls: one sentence, price up front.
func (mb *MessageBuilder) ShortOfferMessage(price float64) string {
	return mb.render("Special rate: {{ price | currency }}. Everything you need to grow, one package.",
		map[string]interface{}{"price": price})
}

// render parses (with caching) and renders a template, falling back to the
// raw source when the engine fails so a template bug never blanks the offer.
func (mb *MessageBuilder) render(src string, bindings map[string]interface{}) string {
	var tpl *liquid.Template
	if cached, ok := mb.cache.Load(src); ok {
		tpl = cached.(*liquid.Template)
	} else {
		parsed, err := mb.engine.ParseString(src)
		if err != nil {
			log.Printf("[personalization] template parse error: %v", err)
			return src
		}
		mb.cache.Store(src, parsed)
		tpl = parsed
	}

	out, err := tpl.RenderString(bindings)
	if err != nil {
		log.Printf("[personalization] template render error: %v", err)
		return src
	}
	return out
}

// FormatForMobile inserts a line break after each sentence and hard-truncates
// to 120 characters with an ellipsis. Applied after all other message
// rewrites since it operates on their output.
func FormatForMobile(msg string) string {
	formatted := strings.ReplaceAll(msg, ". ", ".\n")
	if len(formatted) > 120 {
		formatted = formatted[:120] + "..."
	}
	return formatted
}

// FormatAmount renders a currency-agnostic amount with thousands separators,
// e.g. 2500 -> "2,500".
func FormatAmount(v float64) string {
	whole := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(whole, "-")
	if neg {
		whole = whole[1:]
	}
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
