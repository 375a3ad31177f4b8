package printer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	tests := map[string]struct {
		bytes int64
		exp   string
	}{
		"No output should be zero bytes.": {
			bytes: 0,
			exp:   "0 B",
		},

		"Negative sizes should be zero.": {
			bytes: -100,
			exp:   "0 B",
		},

		"Small outputs should be bytes.": {
			bytes: 512,
			exp:   "512 B",
		},

		"One kilobyte.": {
			bytes: 1024,
			exp:   "1.0 KB",
		},

		"Kilobytes should have decimals.": {
			bytes: 1536,
			exp:   "1.5 KB",
		},

		"Hundreds of megabytes.": {
			bytes: 700 * 1024 * 1024,
			exp:   "700.0 MB",
		},

		"Ten gigabytes.": {
			bytes: 10 * 1024 * 1024 * 1024,
			exp:   "10.0 GB",
		},

		"Terabytes should be the max.": {
			bytes: 2048 * 1024 * 1024 * 1024 * 1024,
			exp:   "2048.0 TB",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, FormatBytes(test.bytes))
		})
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		time time.Time
		exp  string
	}{
		"Now should be zero seconds.": {
			time: now,
			exp:  "0 seconds ago (UTC)",
		},

		"One second.": {
			time: now.Add(-1 * time.Second),
			exp:  "1 second ago (UTC)",
		},

		"Seconds.": {
			time: now.Add(-30 * time.Second),
			exp:  "30 seconds ago (UTC)",
		},

		"One minute.": {
			time: now.Add(-1 * time.Minute),
			exp:  "1 minute ago (UTC)",
		},

		"Minutes should be truncated.": {
			time: now.Add(-45*time.Minute - 50*time.Second),
			exp:  "45 minutes ago (UTC)",
		},

		"Hours.": {
			time: now.Add(-5 * time.Hour),
			exp:  "5 hours ago (UTC)",
		},

		"One day.": {
			time: now.Add(-24 * time.Hour),
			exp:  "1 day ago (UTC)",
		},

		"Days.": {
			time: now.Add(-7 * 24 * time.Hour),
			exp:  "7 days ago (UTC)",
		},

		"Other timezones should work.": {
			time: now.Add(-2 * time.Hour).In(time.FixedZone("EST", -5*3600)),
			exp:  "2 hours ago (UTC)",
		},

		"Future times should be noted.": {
			time: now.Add(5 * time.Minute),
			exp:  "in the future (UTC)",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, timeAgo(now, test.time))
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "2026-01-30 10:15:30 UTC", FormatTimestamp(time.Date(2026, 1, 30, 10, 15, 30, 0, time.UTC)))
	assert.Equal(t, "2026-01-30 15:15:30 UTC", FormatTimestamp(time.Date(2026, 1, 30, 10, 15, 30, 0, time.FixedZone("EST", -5*3600))))
}

func TestFormatDuration(t *testing.T) {
	tests := map[string]struct {
		duration time.Duration
		exp      string
	}{
		"Zero should be zero seconds.": {
			duration: 0,
			exp:      "0s",
		},

		"Sub millisecond should be zero seconds.": {
			duration: 300 * time.Microsecond,
			exp:      "0s",
		},

		"Milliseconds.": {
			duration: 350 * time.Millisecond,
			exp:      "350ms",
		},

		"Seconds should be rounded to milliseconds.": {
			duration: 1250*time.Millisecond + 400*time.Microsecond,
			exp:      "1.25s",
		},

		"Minutes.": {
			duration: 2*time.Minute + 3500*time.Millisecond,
			exp:      "2m3.5s",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, FormatDuration(test.duration))
		})
	}
}
