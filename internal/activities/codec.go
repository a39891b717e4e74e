package activities

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDurationSeconds converts a tracker duration string to seconds.
// "HH:MM:SS" and "MM:SS" forms are supported; a single part is parsed
// as float seconds. Empty or malformed input yields 0, it never fails:
// a bad duration in one row must not take the whole import down.
func ParseDurationSeconds(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	parts := strings.Split(text, ":")
	switch len(parts) {
	case 3:
		h, errH := strconv.Atoi(strings.TrimSpace(parts[0]))
		m, errM := strconv.Atoi(strings.TrimSpace(parts[1]))
		s, errS := strconv.Atoi(strings.TrimSpace(parts[2]))
		if errH != nil || errM != nil || errS != nil {
			return 0
		}
		return h*3600 + m*60 + s
	case 2:
		m, errM := strconv.Atoi(strings.TrimSpace(parts[0]))
		s, errS := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errM != nil || errS != nil {
			return 0
		}
		return m*60 + s
	case 1:
		secs, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0
		}
		return int(secs)
	default:
		return 0
	}
}

// ParsePaceSecondsPerUnit converts a "MM:SS" pace string to seconds per
// unit (km). Same fallback rules as ParseDurationSeconds.
func ParsePaceSecondsPerUnit(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	parts := strings.Split(text, ":")
	if len(parts) == 2 {
		m, errM := strconv.Atoi(strings.TrimSpace(parts[0]))
		s, errS := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errM != nil || errS != nil {
			return 0
		}
		return m*60 + s
	}
	if len(parts) == 1 {
		secs, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0
		}
		return int(secs)
	}
	return 0
}

// FormatDuration renders seconds as a zero-padded "HH:MM:SS" string.
// Hours are not wrapped at 24. For all non-negative inputs this is the
// left inverse of ParseDurationSeconds.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "00:00:00"
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}
