// Package schedule computes scheduling slots in local civil time and decides
// whether a run may send its notification.
package schedule

import (
	"time"

	"news_bot/internal/config"
)

// Clock returns the current instant.
type Clock func() time.Time

// Zone returns the fixed civil time zone for an offset in hours.
func Zone(offsetHours int) *time.Location {
	return time.FixedZone("", offsetHours*3600)
}

// Slot returns the scheduling slot for now: the local hour, rounded up to the
// next even hour when odd. 23:xx belongs to 00:00 of the next day.
func Slot(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	hour := local.Hour()
	if hour%2 == 1 {
		hour++
	}
	return time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
}

// SlotID is the persisted identifier of a slot.
func SlotID(slot time.Time) string {
	return slot.UTC().Format(time.RFC3339)
}

// LocalHour returns the civil hour of now in loc.
func LocalHour(now time.Time, loc *time.Location) int {
	return now.In(loc).Hour()
}

// ShouldSend applies the send gate: at a force hour any candidate suffices,
// otherwise the count must reach the minimum threshold. Zero candidates never
// send.
func ShouldSend(count, hour int, s config.Settings) bool {
	if count < 1 {
		return false
	}
	if s.IsForceHour(hour) {
		return true
	}
	return count >= s.MinSendThreshold
}
