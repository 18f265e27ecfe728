package personalization

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "2,500", FormatAmount(2500))
	assert.Equal(t, "1,500", FormatAmount(1500))
	assert.Equal(t, "375", FormatAmount(375))
	assert.Equal(t, "1,250,000", FormatAmount(1250000))
	assert.Equal(t, "-2,500", FormatAmount(-2500))
	assert.Equal(t, "0", FormatAmount(0))
}

func TestOfferMessageComposition(t *testing.T) {
	mb := NewMessageBuilder()
	profile := startupAnalyticalProfile()

	msg := mb.OfferMessage(profile, 1500, []string{"Advanced dashboard", "Detailed reports", "A/B testing"})

	assert.True(t, strings.HasPrefix(msg, "Built for startups"))
	assert.Contains(t, msg, "1,500")
	assert.Contains(t, msg, "verify the return")
	// Only the first two features make the clause.
	assert.Contains(t, msg, "Included: Advanced dashboard, Detailed reports.")
	assert.NotContains(t, msg, "A/B testing")
}

func TestOfferMessageWithoutFeatures(t *testing.T) {
	mb := NewMessageBuilder()
	profile := startupAnalyticalProfile()
	profile.Behavioral.DecisionStyle = StyleIntuitive

	msg := mb.OfferMessage(profile, 1500, nil)

	assert.Contains(t, msg, "It just works")
	assert.NotContains(t, msg, "Included:")
}

func TestShortOfferMessage(t *testing.T) {
	mb := NewMessageBuilder()
	msg := mb.ShortOfferMessage(1250)
	assert.Contains(t, msg, "1,250")
}

func TestFormatForMobile(t *testing.T) {
	short := "One sentence. Another sentence."
	got := FormatForMobile(short)
	assert.Equal(t, "One sentence.\nAnother sentence.", got)

	long := strings.Repeat("Growth matters. ", 20)
	truncated := FormatForMobile(long)
	assert.Len(t, truncated, 123)
	assert.True(t, strings.HasSuffix(truncated, "..."))
}
