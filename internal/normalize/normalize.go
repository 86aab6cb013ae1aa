// Package normalize converts the heterogeneous time and date encodings that
// arrive from the spreadsheet boundary into the canonical representations
// ("HH:MM" and "DD/MM/YYYY") used everywhere else in the system.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultSheetTimeOffset is the correction applied to spreadsheet-epoch
// timestamps before extracting the time of day. The value was determined
// empirically against the upstream form exports; override it through
// configuration rather than editing it here.
const DefaultSheetTimeOffset = 8 * time.Hour

var (
	plainTimePattern = regexp.MustCompile(`^(\d{1,2}):(\d{1,2})(?::(\d{2}))?$`)
	datePattern      = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

// Time normalizes a raw time value to "HH:MM". Three encodings are accepted:
// a plain clock time ("9:0", "21:00", "21:00:30"), an absolute timestamp
// whose date component is the spreadsheet epoch sentinel (only hour and
// minute are kept, after adding offset), and a fractional-day decimal in
// [0, 1]. Anything else is returned unchanged; callers must treat an
// unparsed value as suspect rather than as midnight.
func Time(raw string, offset time.Duration) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}

	if strings.Contains(value, ":") && !strings.Contains(value, "T") {
		if m := plainTimePattern.FindStringSubmatch(value); m != nil {
			hours, _ := strconv.Atoi(m[1])
			minutes, _ := strconv.Atoi(m[2])
			if hours <= 23 && minutes <= 59 {
				return fmt.Sprintf("%02d:%02d", hours, minutes)
			}
		}
		return raw
	}

	if strings.Contains(value, "T") {
		if ts, ok := parseSheetTimestamp(value); ok {
			shifted := ts.Add(offset)
			return fmt.Sprintf("%02d:%02d", shifted.Hour(), shifted.Minute())
		}
		return raw
	}

	if fraction, err := strconv.ParseFloat(value, 64); err == nil {
		if fraction >= 0 && fraction <= 1 {
			// Round to whole minutes; fractions like 0.35 do not land
			// exactly on a minute in binary floating point.
			total := int(math.Round(fraction*24*60)) % (24 * 60)
			return fmt.Sprintf("%02d:%02d", total/60, total%60)
		}
	}

	return raw
}

// parseSheetTimestamp parses the timestamp shapes the spreadsheet emits for
// time-only cells, e.g. "1899-12-30T21:00:00.000Z". The date component is a
// sentinel and is discarded by the caller.
func parseSheetTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSuffix(value, "Z")
	layouts := []string{
		"2006-01-02T15:04:05.000",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Date normalizes a "d/m/yyyy" or "dd/mm/yyyy" date to zero-padded
// "DD/MM/YYYY". Unrecognized input is returned unchanged.
func Date(raw string) string {
	value := strings.TrimSpace(raw)
	m := datePattern.FindStringSubmatch(value)
	if m == nil {
		return raw
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	return fmt.Sprintf("%02d/%02d/%s", day, month, m[3])
}

// MinutesOfDay converts a canonical "HH:MM" (or "HH:MM:SS") value to minutes
// since midnight. The second return value reports whether the input parsed;
// callers exclude unparsed values from interval comparisons instead of
// letting them match everything.
func MinutesOfDay(value string) (int, bool) {
	m := plainTimePattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return 0, false
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	if hours > 23 || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}
