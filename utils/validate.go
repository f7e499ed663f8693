package utils

import (
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRe = regexp.MustCompile(`^0\d{8,9}$`)
	// Thai plates: optional leading digit, 1-3 Thai letters, 1-4 digits,
	// e.g. "1กข 1234", "ฮจ 70". Trailer plates like "70-1234" also pass.
	plateThaiRe  = regexp.MustCompile(`^\d?[ก-ฮ]{1,3}[ \-]?\d{1,4}$`)
	plateCodeRe  = regexp.MustCompile(`^\d{2}-\d{4}$`)
	phoneStripRe = regexp.MustCompile(`[ \-()]`)
	digitsRe     = regexp.MustCompile(`^\d+$`)
)

// ValidateEmail reports whether s is a plausible email address.
func ValidateEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// ValidatePhone accepts Thai mobile and landline numbers, ignoring
// spaces, dashes and parentheses.
func ValidatePhone(s string) bool {
	return phoneRe.MatchString(phoneStripRe.ReplaceAllString(s, ""))
}

// ValidatePlate accepts a Thai license plate, with or without the
// province suffix ("1กข 1234 กรุงเทพมหานคร").
func ValidatePlate(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if i := strings.LastIndexByte(s, ' '); i > 0 {
		// anything after the last space that is not digits is a province
		if !digitsRe.MatchString(s[i+1:]) {
			s = strings.TrimSpace(s[:i])
		}
	}
	return plateThaiRe.MatchString(s) || plateCodeRe.MatchString(s)
}
