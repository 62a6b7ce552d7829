package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	clockRe = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)(?::([0-5]\d))?$`)
	dayRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Clock parses a clock string ("HH:mm" or "HH:mm:ss") into seconds
// from midnight.
func Clock(raw string) (int, error) {
	m := clockRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return 0, fmt.Errorf("invalid clock time: %q", raw)
	}

	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	sec := 0
	if m[3] != "" {
		sec, _ = strconv.Atoi(m[3])
	}
	return h*3600 + min*60 + sec, nil
}

// NormalizeClock parses a clock string and re-renders it as "HH:mm:ss".
func NormalizeClock(raw string) (string, error) {
	secs, err := Clock(raw)
	if err != nil {
		return "", err
	}
	return FormatClock(secs), nil
}

// FormatClock renders seconds-from-midnight as "HH:mm:ss". The value is
// normalized into [0, 86400).
func FormatClock(secs int) string {
	secs = ((secs % 86400) + 86400) % 86400
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}

// Day validates a calendar day string ("YYYY-MM-DD") and returns its
// canonical form.
func Day(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if !dayRe.MatchString(s) {
		return "", fmt.Errorf("invalid day: %q (want YYYY-MM-DD)", raw)
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", fmt.Errorf("invalid day: %q", raw)
	}
	return s, nil
}
