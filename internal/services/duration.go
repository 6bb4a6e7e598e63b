package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultBlockDuration applies when a rule's duration text cannot be read.
const DefaultBlockDuration = time.Hour

var blockDurationPattern = regexp.MustCompile(`(?i)(\d+)\s*(minute|hour|day)`)

// ParseBlockDuration reads the first "<n> minute|hour|day" occurrence in text.
// Plural and trailing characters are accepted ("30 minutes", "2hours").
// Unreadable input yields DefaultBlockDuration rather than an error.
func ParseBlockDuration(text string) time.Duration {
	m := blockDurationPattern.FindStringSubmatch(text)
	if m == nil {
		return DefaultBlockDuration
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return DefaultBlockDuration
	}

	var unit time.Duration
	switch strings.ToLower(m[2]) {
	case "minute":
		unit = time.Minute
	case "hour":
		unit = time.Hour
	default:
		unit = 24 * time.Hour
	}
	if n > int64(maxDuration/unit) {
		return DefaultBlockDuration
	}
	return time.Duration(n) * unit
}

const maxDuration = time.Duration(1<<63 - 1)
