package util

import (
	"regexp"
	"strings"
)

var controlChars = regexp.MustCompile(`[\x00-\x1F\x7F]+`)

// maxLogValue bounds caller supplied values (usernames, addresses) written to logs.
const maxLogValue = 256

// SanitizeForLog strips newlines and control characters from user supplied
// content and truncates it before it reaches a log line.
func SanitizeForLog(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = controlChars.ReplaceAllString(s, " ")
	if len(s) > maxLogValue {
		s = s[:maxLogValue]
	}
	return s
}

// SanitizeOptional is SanitizeForLog for nullable values; nil becomes "".
func SanitizeOptional(s *string) string {
	if s == nil {
		return ""
	}
	return SanitizeForLog(*s)
}
