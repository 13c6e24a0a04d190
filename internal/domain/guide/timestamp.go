package guide

import (
	"fmt"
	"strings"
	"time"
)

// Sentinels returned by the timestamp converter instead of errors.
const (
	TimeNotAvailable = "N/A"
	TimeFormatError  = "Error Fmt"
)

const (
	UTCLayout         = "2006-01-02 15:04:05"
	DisplayDateLayout = "02/01/2006"
	DisplayTimeLayout = "15:04:05"
	dateOnlyLayout    = "2006-01-02"
)

const DefaultDisplayTimezone = "America/Bogota"

// LoadDisplayLocation resolves the display timezone, falling back to a fixed UTC-5 zone
// when the tz database is not available on the host.
func LoadDisplayLocation(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultDisplayTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("COT", -5*60*60)
	}
	return loc
}

// Converter turns persisted naive-UTC strings into display-local date/time pairs.
type Converter struct {
	loc *time.Location
}

func NewConverter(loc *time.Location) Converter {
	return Converter{loc: loc}
}

func (c Converter) Location() *time.Location {
	if c.loc == nil {
		return LoadDisplayLocation("")
	}
	return c.loc
}

// ToLocal never fails: empty input yields ("N/A","N/A") and unparseable input ("Error Fmt","Error Fmt").
// Date-only input keeps its calendar date and reports the time as "N/A".
func (c Converter) ToLocal(utc string) (string, string) {
	if IsPlaceholder(utc) {
		return TimeNotAvailable, TimeNotAvailable
	}

	parsed, dateOnly, err := ParseUTC(utc)
	if err != nil {
		return TimeFormatError, TimeFormatError
	}
	if dateOnly {
		return parsed.Format(DisplayDateLayout), TimeNotAvailable
	}

	local := parsed.In(c.Location())
	return local.Format(DisplayDateLayout), local.Format(DisplayTimeLayout)
}

var utcLayouts = []string{
	UTCLayout,
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
}

// ParseUTC reads the persisted shapes: "YYYY-MM-DD HH:MM:SS", ISO-8601 (with or without Z) and date-only.
func ParseUTC(raw string) (time.Time, bool, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range utcLayouts {
		if parsed, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return parsed.UTC(), false, nil
		}
	}
	if parsed, err := time.ParseInLocation(dateOnlyLayout, value, time.UTC); err == nil {
		return parsed, true, nil
	}
	return time.Time{}, false, fmt.Errorf("%w: %q", ErrMalformedTimestamp, raw)
}

// FormatUTC renders the persisted representation.
func FormatUTC(t time.Time) string {
	return t.UTC().Format(UTCLayout)
}

// LocalToUTC converts a display-local "DD/MM/YYYY" + "HH:MM:SS" pair into the persisted UTC string.
func (c Converter) LocalToUTC(date string, clock string) (string, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if IsPlaceholder(clock) {
		clock = "00:00:00"
	}

	for _, layout := range []string{DisplayDateLayout, dateOnlyLayout} {
		parsed, err := time.ParseInLocation(layout+" "+DisplayTimeLayout, date+" "+clock, c.Location())
		if err == nil {
			return FormatUTC(parsed), nil
		}
	}
	return "", fmt.Errorf("%w: %q %q", ErrMalformedTimestamp, date, clock)
}

// LocalDayBoundsUTC returns the UTC strings covering one display-local calendar day ("YYYY-MM-DD").
func (c Converter) LocalDayBoundsUTC(day string) (string, string, error) {
	parsed, err := time.ParseInLocation(dateOnlyLayout, strings.TrimSpace(day), c.Location())
	if err != nil {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedTimestamp, day)
	}
	end := parsed.AddDate(0, 0, 1).Add(-time.Second)
	return FormatUTC(parsed), FormatUTC(end), nil
}
