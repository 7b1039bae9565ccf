package datekeys

import (
	"fmt"
	"time"
)

// Format identifies how a date is turned into a reading-table key.
type Format string

const (
	// FormatMonthDay keys drop the year ("01-02") so a slot recurs every year.
	FormatMonthDay Format = "month-day"
	// FormatISO keys carry the full calendar date ("2006-01-02").
	FormatISO Format = "iso"
)

const (
	monthDayLayout = "01-02"
	isoLayout      = "2006-01-02"

	// ReferenceYear is a non-leap year used for month-day arithmetic.
	ReferenceYear = 2023
)

// ParseFormat validates a configured key format name.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatMonthDay, FormatISO:
		return Format(name), nil
	case "":
		return FormatMonthDay, nil
	default:
		return "", fmt.Errorf("unknown date key format %q (want %q or %q)", name, FormatMonthDay, FormatISO)
	}
}

func (f Format) layout() string {
	if f == FormatISO {
		return isoLayout
	}
	return monthDayLayout
}

// Key formats t as a date key. The caller is responsible for putting t in the
// desired civil timezone first.
func (f Format) Key(t time.Time) string {
	return t.Format(f.layout())
}

// Today returns the key for the current civil date in loc.
func (f Format) Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return f.Key(now.In(loc))
}

// Parse turns a key back into a date at midnight UTC. Month-day keys have no
// year of their own and are placed in year.
func (f Format) Parse(key string, year int) (time.Time, error) {
	t, err := time.Parse(f.layout(), key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date key %q: %w", f, key, err)
	}
	if f == FormatISO {
		return t, nil
	}
	return time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// Offset returns the key days away from key.
func (f Format) Offset(key string, days int) (string, error) {
	if f == FormatISO {
		t, err := f.Parse(key, 0)
		if err != nil {
			return "", err
		}
		return f.Key(t.AddDate(0, 0, days)), nil
	}
	return OffsetDate(key, days)
}

// OffsetDate moves an MM-DD key by days, wrapping across months and the year
// boundary as ReferenceYear would. "02-29" is accepted but rolls into March.
func OffsetDate(mmdd string, days int) (string, error) {
	t, err := FormatMonthDay.Parse(mmdd, ReferenceYear)
	if err != nil {
		return "", err
	}
	shifted := t.AddDate(0, 0, days)
	return fmt.Sprintf("%02d-%02d", int(shifted.Month()), shifted.Day()), nil
}

// PreviousDate is OffsetDate(mmdd, -1).
func PreviousDate(mmdd string) (string, error) {
	return OffsetDate(mmdd, -1)
}

// NextDate is OffsetDate(mmdd, 1).
func NextDate(mmdd string) (string, error) {
	return OffsetDate(mmdd, 1)
}
