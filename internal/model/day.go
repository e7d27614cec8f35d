package model

import (
	"fmt"
	"strings"
	"time"
)

// DayLayout is the document key format for a calendar day.
const DayLayout = "2006-01-02"

// StartOfDay normalizes t to midnight of its calendar day in the local calendar.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(time.Local).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func DayKey(t time.Time) string {
	return StartOfDay(t).Format(DayLayout)
}

func SameDay(a, b time.Time) bool {
	return DayKey(a) == DayKey(b)
}

func ParseDay(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}
