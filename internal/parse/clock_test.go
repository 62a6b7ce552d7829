package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  int
		expectErr bool
	}{
		{
			name:     "Full clock time",
			raw:      "06:00:00",
			expected: 21600,
		},
		{
			name:     "Short form gets zero seconds",
			raw:      "14:30",
			expected: 52200,
		},
		{
			name:     "Last second of the day",
			raw:      "23:59:59",
			expected: 86399,
		},
		{
			name:     "Midnight",
			raw:      "00:00:00",
			expected: 0,
		},
		{
			name:     "Surrounding whitespace",
			raw:      "  10:15:30 ",
			expected: 36930,
		},
		{
			name:      "Hour out of range",
			raw:       "24:00:00",
			expectErr: true,
		},
		{
			name:      "Minute out of range",
			raw:       "10:60:00",
			expectErr: true,
		},
		{
			name:      "Missing minutes",
			raw:       "10",
			expectErr: true,
		},
		{
			name:      "Empty string",
			raw:       "",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			secs, err := Clock(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, secs)
			}
		})
	}
}

func TestNormalizeClock(t *testing.T) {
	normalized, err := NormalizeClock("08:05")
	assert.NoError(t, err)
	assert.Equal(t, "08:05:00", normalized)

	normalized, err = NormalizeClock("08:05:09")
	assert.NoError(t, err)
	assert.Equal(t, "08:05:09", normalized)

	_, err = NormalizeClock("8:05")
	assert.Error(t, err)
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00:20", FormatClock(20))
	assert.Equal(t, "23:59:59", FormatClock(86399))
	assert.Equal(t, "00:00:00", FormatClock(86400))
	assert.Equal(t, "23:59:30", FormatClock(-30))
}

func TestDay(t *testing.T) {
	day, err := Day("2026-01-23")
	assert.NoError(t, err)
	assert.Equal(t, "2026-01-23", day)

	_, err = Day("2026-13-01")
	assert.Error(t, err)

	_, err = Day("23/01/2026")
	assert.Error(t, err)

	_, err = Day("2026-02-30")
	assert.Error(t, err)
}
