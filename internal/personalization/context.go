package personalization

import (
	"strings"
	"time"
)

// Viewport width thresholds for device bucketing.
const (
	tabletMinWidth  = 768
	desktopMinWidth = 1024
)

// CollectContext derives a ContextSnapshot from the ambient session signals:
// the request time, the viewport width reported by the client, the raw
// referrer string and the visitor's prior visit count. It always returns a
// fully populated snapshot; there are no error cases.
func CollectContext(at time.Time, viewportWidth int, referrer string, previousVisits int) ContextSnapshot {
	return ContextSnapshot{
		TimeOfDay:      bucketTimeOfDay(at.Hour()),
		Device:         bucketDevice(viewportWidth),
		TrafficSource:  classifyReferrer(referrer),
		PreviousVisits: previousVisits,
	}
}

func bucketTimeOfDay(hour int) TimeOfDay {
	switch {
	case hour < 6:
		return TimeNight
	case hour < 12:
		return TimeMorning
	case hour < 18:
		return TimeAfternoon
	case hour < 22:
		return TimeEvening
	default:
		return TimeNight
	}
}

func bucketDevice(width int) DeviceClass {
	switch {
	case width < tabletMinWidth:
		return DeviceMobile
	case width < desktopMinWidth:
		return DeviceTablet
	default:
		return DeviceDesktop
	}
}

// classifyReferrer maps a raw referrer string to a traffic source. Matching
// is case-sensitive substring and the order matters: "facebook-ads" hits the
// social rule before the paid rule ever runs.
func classifyReferrer(referrer string) TrafficSource {
	if referrer == "" {
		return SourceDirect
	}
	if strings.Contains(referrer, "google") || strings.Contains(referrer, "bing") {
		return SourceOrganic
	}
	if strings.Contains(referrer, "facebook") || strings.Contains(referrer, "twitter") || strings.Contains(referrer, "linkedin") {
		return SourceSocial
	}
	if strings.Contains(referrer, "ads") || strings.Contains(referrer, "campaign") {
		return SourcePaid
	}
	return SourceReferral
}
