package domain

import (
	"fmt"
	"strings"
	"time"
)

// mjdEpoch is the Modified Julian Day reference instant used by the model's
// numeric time convention.
var mjdEpoch = time.Date(1858, time.November, 17, 0, 0, 0, 0, time.UTC)

// CalendarStringLen is the fixed width of the human-readable timestamp
// strings stored in the Times variable.
const CalendarStringLen = 26

const calendarLayout = "2006-01-02T15:04:05.000000"

// ModifiedJulianDay encodes t as fractional days since 1858-11-17 00:00:00 UTC.
func ModifiedJulianDay(t time.Time) float64 {
	return t.Sub(mjdEpoch).Seconds() / 86400.0
}

// FromModifiedJulianDay is the inverse of ModifiedJulianDay, rounded to the
// nearest microsecond.
func FromModifiedJulianDay(days float64) time.Time {
	d := time.Duration(days * 86400.0 * float64(time.Second))
	return mjdEpoch.Add(d).Round(time.Microsecond)
}

// FormatCalendarString renders t as a fixed-width calendar string,
// e.g. "2006-03-15T12:00:00.000000".
func FormatCalendarString(t time.Time) string {
	return t.UTC().Format(calendarLayout)
}

// ParseCalendarString parses a string produced by FormatCalendarString.
func ParseCalendarString(s string) (time.Time, error) {
	t, err := time.Parse(calendarLayout, strings.TrimRight(s, "\x00 "))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid calendar string %q: %w", s, err)
	}
	return t, nil
}

// cfUnitSeconds maps CF time unit names to their length in seconds.
var cfUnitSeconds = map[string]float64{
	"second":  1,
	"seconds": 1,
	"sec":     1,
	"secs":    1,
	"minute":  60,
	"minutes": 60,
	"min":     60,
	"mins":    60,
	"hour":    3600,
	"hours":   3600,
	"hr":      3600,
	"hrs":     3600,
	"day":     86400,
	"days":    86400,
}

var cfEpochLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseCFTime decodes numeric time values against a CF-style units attribute
// of the form "<unit> since <epoch>", e.g. "seconds since 1981-01-01 00:00:00".
// Returned timestamps are UTC.
func ParseCFTime(values []float64, units string) ([]time.Time, error) {
	unit, epoch, err := parseCFUnits(units)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(values))
	for i, v := range values {
		d := time.Duration(v * unit * float64(time.Second))
		out[i] = epoch.Add(d)
	}
	return out, nil
}

func parseCFUnits(units string) (secondsPerUnit float64, epoch time.Time, err error) {
	parts := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(parts) != 2 {
		return 0, time.Time{}, fmt.Errorf("time units %q: want \"<unit> since <epoch>\"", units)
	}

	unit, ok := cfUnitSeconds[strings.ToLower(strings.TrimSpace(parts[0]))]
	if !ok {
		return 0, time.Time{}, fmt.Errorf("time units %q: unsupported unit %q", units, parts[0])
	}

	// Strip a trailing timezone marker; all supported products use UTC.
	stamp := strings.TrimSpace(parts[1])
	stamp = strings.TrimSuffix(stamp, "Z")
	stamp = strings.TrimSuffix(stamp, " UTC")
	stamp = strings.TrimSuffix(stamp, " +00:00")
	stamp = strings.TrimSpace(stamp)

	for _, layout := range cfEpochLayouts {
		if t, perr := time.Parse(layout, stamp); perr == nil {
			return unit, t.UTC(), nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("time units %q: unparseable epoch %q", units, parts[1])
}
