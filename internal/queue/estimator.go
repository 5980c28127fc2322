package queue

import (
	"fmt"
	"math"
)

// DefaultAverageDuration is the fallback service duration in minutes,
// used whenever a service has no recorded average.
const DefaultAverageDuration = 15

// Band is the severity band of an estimated wait, fixed contract values
// for the UI: below 25 minutes green, 25 to 45 inclusive orange, above 45
// red.
type Band string

const (
	BandGreen  Band = "green"
	BandOrange Band = "orange"
	BandRed    Band = "red"
)

// WaitBand classifies an estimated wait in minutes.
func WaitBand(minutes float64) Band {
	switch {
	case minutes < 25:
		return BandGreen
	case minutes <= 45:
		return BandOrange
	default:
		return BandRed
	}
}

// EffectiveDuration returns the service duration to use in estimates,
// substituting the default for services with no recorded average.
func EffectiveDuration(avgDuration float64) float64 {
	if avgDuration <= 0 {
		return DefaultAverageDuration
	}
	return avgDuration
}

// RoomWait is the canonical wait estimate for a room in minutes:
//
//	queueLength × averageServiceDuration / capacity
//
// The second return is false when capacity is not positive, in which case
// the estimate is unavailable (treated as infinite by callers that rank
// rooms).
func RoomWait(queueLength int, avgDuration float64, capacity int) (float64, bool) {
	if capacity <= 0 {
		return math.Inf(1), false
	}
	return float64(queueLength) * EffectiveDuration(avgDuration) / float64(capacity), true
}

// TokenWait is the wait estimate for an individual token, derived from the
// same formula as RoomWait but using the count of waiting tokens ahead of
// it (strictly lower position, same room) instead of the full queue
// length. RoomWait stays canonical; this is the per-patient display view.
func TokenWait(countAhead int, avgDuration float64, capacity int) (float64, bool) {
	return RoomWait(countAhead, avgDuration, capacity)
}

// LoadRatio ranks a room for the load balancer: waiting count divided by
// capacity, infinite for rooms with no usable capacity so they are never
// picked over a finite alternative.
func LoadRatio(waitingCount int64, capacity int) float64 {
	if capacity <= 0 {
		return math.Inf(1)
	}
	return float64(waitingCount) / float64(capacity)
}

// HumanizeWait renders minutes as "2 hours 5 minutes" / "12 minutes".
func HumanizeWait(minutes float64) string {
	total := int(minutes)
	hours := total / 60
	mins := total % 60
	if hours == 1 {
		return fmt.Sprintf("1 hour %d minutes", mins)
	}
	if hours > 1 {
		return fmt.Sprintf("%d hours %d minutes", hours, mins)
	}
	return fmt.Sprintf("%d minutes", mins)
}
