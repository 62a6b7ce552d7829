// Package shift holds the pure time arithmetic behind stop analytics:
// wall-clock durations with midnight rollover, the three fixed 8-hour
// équipes, and the micro-stop predicate.
package shift

const (
	// SecondsPerDay is the length of one calendar day.
	SecondsPerDay = 86400
	// Length is the length of one équipe in seconds (8 hours).
	Length = 28800

	shift1Start = 6 * 3600  // 06:00:00
	shift2Start = 14 * 3600 // 14:00:00
	shift3Start = 22 * 3600 // 22:00:00
)

// Duration computes the duration of a stop in seconds from clock times
// expressed as seconds from midnight. Returns nil when the stop is
// still open. A stop clock earlier than the start clock means the
// interval crossed midnight, so the difference is taken mod 24h.
func Duration(startSec int, stopSec *int) *int {
	if stopSec == nil {
		return nil
	}
	d := *stopSec - startSec
	if d < 0 {
		d += SecondsPerDay
	}
	return &d
}

// Of derives the équipe from a start clock (seconds from midnight):
// 1 for [06:00, 14:00), 2 for [14:00, 22:00), 3 otherwise.
func Of(startSec int) int {
	switch {
	case startSec >= shift1Start && startSec < shift2Start:
		return 1
	case startSec >= shift2Start && startSec < shift3Start:
		return 2
	default:
		return 3
	}
}

// IsMicro reports whether a stop of the given duration is a micro-stop:
// duration known and strictly below the threshold. An open stop
// (nil duration) is never a micro-stop.
func IsMicro(durationSec *int, thresholdSec int) bool {
	return durationSec != nil && *durationSec < thresholdSec
}

// StartClock returns the clock (seconds from midnight) at which the
// given équipe begins. Équipe 3 begins at 22:00 and wraps past
// midnight.
func StartClock(equipe int) int {
	switch equipe {
	case 1:
		return shift1Start
	case 2:
		return shift2Start
	default:
		return shift3Start
	}
}

// Elapsed returns how many seconds of the given équipe have elapsed at
// the given clock, clamped to [0, Length]. For équipe 3 clocks before
// 06:00 are counted as carried past midnight.
func Elapsed(equipe int, nowSec int) int {
	start := StartClock(equipe)

	var elapsed int
	if equipe == 3 {
		elapsed = ((nowSec - start) + SecondsPerDay) % SecondsPerDay
	} else {
		elapsed = nowSec - start
	}

	if elapsed < 0 {
		return 0
	}
	if elapsed > Length {
		return Length
	}
	return elapsed
}

// Valid reports whether the value names one of the three équipes.
func Valid(equipe int) bool {
	return equipe >= 1 && equipe <= 3
}
