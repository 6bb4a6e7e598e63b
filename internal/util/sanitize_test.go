package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeForLog(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "admin", "admin"},
		{"crlf", "admin\r\nINFO fake entry", "admin INFO fake entry"},
		{"newline", "a\nb", "a b"},
		{"control run", "a\x00\x01\x02b", "a b"},
		{"delete char", "a\x7fb", "a b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeForLog(tc.in))
		})
	}
}

func TestSanitizeForLog_Truncates(t *testing.T) {
	long := strings.Repeat("x", 1000)
	assert.Len(t, SanitizeForLog(long), maxLogValue)
}

func TestSanitizeOptional(t *testing.T) {
	assert.Equal(t, "", SanitizeOptional(nil))
	name := "bob\nsmith"
	assert.Equal(t, "bob smith", SanitizeOptional(&name))
}
