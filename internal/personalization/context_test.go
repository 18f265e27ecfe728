package personalization

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBucketTimeOfDay(t *testing.T) {
	tests := []struct {
		hour int
		want TimeOfDay
	}{
		{0, TimeNight},
		{5, TimeNight},
		{6, TimeMorning},
		{11, TimeMorning},
		{12, TimeAfternoon},
		{17, TimeAfternoon},
		{18, TimeEvening},
		{21, TimeEvening},
		{22, TimeNight},
		{23, TimeNight},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bucketTimeOfDay(tt.hour), "hour %d", tt.hour)
	}
}

func TestBucketDevice(t *testing.T) {
	assert.Equal(t, DeviceMobile, bucketDevice(320))
	assert.Equal(t, DeviceMobile, bucketDevice(767))
	assert.Equal(t, DeviceTablet, bucketDevice(768))
	assert.Equal(t, DeviceTablet, bucketDevice(1023))
	assert.Equal(t, DeviceDesktop, bucketDevice(1024))
	assert.Equal(t, DeviceDesktop, bucketDevice(2560))
}

func TestClassifyReferrer(t *testing.T) {
	tests := []struct {
		referrer string
		want     TrafficSource
	}{
		{"", SourceDirect},
		{"https://www.google.com/search?q=agency", SourceOrganic},
		{"https://bing.com/results", SourceOrganic},
		{"https://facebook.com/some-page", SourceSocial},
		{"https://twitter.com/iluma", SourceSocial},
		{"https://linkedin.com/company/iluma", SourceSocial},
		{"https://partner.example/ads/123", SourcePaid},
		{"https://news.example/campaign-launch", SourcePaid},
		{"https://blog.example/post", SourceReferral},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyReferrer(tt.referrer), "referrer %q", tt.referrer)
	}
}

// Rule order matters for ambiguous referrers: the social rules run before the
// paid rules, so an ads URL on a social domain classifies as social.
func TestClassifyReferrerOrder(t *testing.T) {
	assert.Equal(t, SourceSocial, classifyReferrer("https://facebook-ads.example/click"))
	assert.Equal(t, SourceOrganic, classifyReferrer("https://google.com/ads"))
}

func TestCollectContext(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	ctx := CollectContext(at, 1440, "https://www.google.com", 2)

	assert.Equal(t, TimeMorning, ctx.TimeOfDay)
	assert.Equal(t, DeviceDesktop, ctx.Device)
	assert.Equal(t, SourceOrganic, ctx.TrafficSource)
	assert.Equal(t, 2, ctx.PreviousVisits)
}
