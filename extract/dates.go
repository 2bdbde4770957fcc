package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// relativePattern matches "3 days ago", "1 hour ago", "2 weeks ago" etc.
// "Reposted 3 days ago" works too because the prefix is ignored.
var relativePattern = regexp.MustCompile(`(\d+)\s+([a-zA-Z]+?)s?\s+ago`)

// unitDurations maps the singular unit to its length. Months and years are
// approximations; the source strings are themselves approximate.
var unitDurations = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
	"week":   7 * 24 * time.Hour,
	"month":  30 * 24 * time.Hour,
	"year":   365 * 24 * time.Hour,
}

// RelativeTime converts a relative posted-date string to an absolute
// timestamp anchored at now. Unrecognized unit strings convert to absent
// (ok == false), never to an error.
func RelativeTime(s string, now time.Time) (time.Time, bool) {
	m := relativePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	unit, ok := unitDurations[strings.ToLower(m[2])]
	if !ok {
		return time.Time{}, false
	}
	return now.Add(-time.Duration(n) * unit), true
}
