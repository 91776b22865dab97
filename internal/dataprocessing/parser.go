package dataprocessing

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"flightops/pkg/contracts/domain"
)

// Output layouts used when a parsed value is written back out.
const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
)

var errUnparseable = errors.New("unrecognized format")

// timestampLayouts are tried in order for full date-time values.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
}

// clockLayouts carry no date; the record's Date anchors them.
var clockLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
	"3:04:05PM",
	"3:04PM",
}

var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"2006/01/02",
	"1-2-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02-Jan-2006",
}

// ParseTimestamp parses a takeoff or landing value. Empty input is missing
// without error. Clock-only values are placed on anchor's calendar day, or on
// the zero date when anchor is nil so that durations still line up.
func ParseTimestamp(value string, anchor *time.Time) (*time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil, nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}

	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, v)
		if err != nil {
			continue
		}
		if anchor != nil {
			t = time.Date(anchor.Year(), anchor.Month(), anchor.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
		}
		return &t, nil
	}

	return nil, fmt.Errorf("timestamp %q: %w", v, errUnparseable)
}

// ParseDate parses a calendar date. Full timestamps are accepted and
// truncated to midnight UTC.
func ParseDate(value string) (*time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil, nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d, nil
		}
	}

	return nil, fmt.Errorf("date %q: %w", v, errUnparseable)
}

// FormatDuration renders minutes as "{H} hr {M} min" using floor division.
// A nil duration renders as domain.DurationPlaceholder.
func FormatDuration(minutes *float64) string {
	if minutes == nil || math.IsNaN(*minutes) {
		return domain.DurationPlaceholder
	}
	return FormatMinutes(*minutes)
}

// FormatMinutes renders a known minute count
func FormatMinutes(minutes float64) string {
	hours := int(math.Floor(minutes / 60))
	rest := int(math.Floor(minutes - float64(hours)*60))
	return fmt.Sprintf("%d hr %d min", hours, rest)
}

// ClassifyStatus maps an incident flag to a flight status. The flag is
// trimmed and lowercased, then compared to exactly "yes" and "no".
func ClassifyStatus(flag string) domain.FlightStatus {
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "yes":
		return domain.FlightStatusFail
	case "no":
		return domain.FlightStatusPass
	default:
		return domain.FlightStatusUnknown
	}
}
