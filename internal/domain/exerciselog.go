package domain

import (
	"slices"
	"strings"
	"time"
)

// DisplayDateLayout renders a calendar date the way the log endpoint reports it, e.g. "Fri Jul 24 2020".
const DisplayDateLayout = "Mon Jan 02 2006"

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-1-2",
	DisplayDateLayout,
}

// ParseDate accepts ISO calendar dates, RFC 3339 timestamps and the display layout.
// Dates without a zone are interpreted as UTC.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FormatDate renders t as a calendar date in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DisplayDateLayout)
}

// InsertExercise places rec before the first record dated strictly later,
// so records sharing a date keep their insertion order.
func InsertExercise(records []ExerciseRecord, rec ExerciseRecord) []ExerciseRecord {
	for i, existing := range records {
		if rec.Date.Before(existing.Date) {
			return slices.Insert(records, i, rec)
		}
	}
	return append(records, rec)
}

// LogQuery bounds a log read. Nil bounds are open; Limit <= 0 means unlimited.
type LogQuery struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

// LogView is the filtered projection of a person's exercise log.
type LogView struct {
	ID       string
	Username string
	Count    int
	Log      []ExerciseRecord
}

// FilterLog applies the date bounds and the limit to an ascending record list.
// A To bound at midnight covers that whole calendar day.
func FilterLog(records []ExerciseRecord, q LogQuery) []ExerciseRecord {
	out := make([]ExerciseRecord, 0, len(records))
	var upper time.Time
	if q.To != nil {
		upper = endOfDay(*q.To)
	}
	for _, rec := range records {
		if q.From != nil && rec.Date.Before(*q.From) {
			continue
		}
		if q.To != nil && rec.Date.After(upper) {
			continue
		}
		out = append(out, rec)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func endOfDay(t time.Time) time.Time {
	if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
		return t
	}
	return t.Add(24*time.Hour - time.Nanosecond)
}
