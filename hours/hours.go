package hours

import (
	"fmt"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

var displayLocation *time.Location = time.UTC

func SetDisplayTimezone(timezone string) error {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %s: %v", timezone, err)
	}
	displayLocation = loc
	return nil
}

// Truncate returns the start of the UTC clock hour containing t.
func Truncate(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC().Truncate(time.Hour)
}

func FromNow() time.Time {
	return Truncate(time.Now())
}

// StartOfDay returns UTC midnight of the day containing t.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Add moves an hour start n hours, n may be negative.
func Add(hour time.Time, n int) time.Time {
	return hour.Add(time.Duration(n) * time.Hour)
}

// Between returns the number of whole hours from a to b.
func Between(a, b time.Time) int {
	return int(b.Sub(a) / time.Hour)
}

func IsoString(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func FromIso(str string) time.Time {
	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func DateString(t time.Time) string {
	return t.In(displayLocation).Format(dateLayout)
}

// Clock formats t as HH:MM in the display timezone.
func Clock(t time.Time) string {
	return t.In(displayLocation).Format(clockLayout)
}

func FormatTimeInDisplayTimezone(t time.Time) string {
	return t.In(displayLocation).Format("2006-01-02 15:04:05")
}
