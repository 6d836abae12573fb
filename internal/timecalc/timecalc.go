// Package timecalc formats durations and dates for progress lines, run
// summaries and log file names.
package timecalc

import (
	"fmt"
	"time"
)

// FormatDuration formats seconds as a human-readable string like "1h 40m" or "45m" or "30s".
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatDurationHHMMSS formats seconds as HH:MM:SS.
func FormatDurationHHMMSS(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatElapsed renders a run time. Sub-second runs keep millisecond
// precision; longer ones are shown as HH:MM:SS.
func FormatElapsed(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return FormatDurationHHMMSS(int64(d.Round(time.Second) / time.Second))
}

// DayStamp returns t as YYYYMMDD, as used in daily log file names.
func DayStamp(t time.Time) string {
	return t.Format("20060102")
}
