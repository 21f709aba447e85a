package validate

import (
	"regexp"
	"strings"
)

var (
	reCode = regexp.MustCompile(`^[A-Za-z0-9_-]{1,16}$`)
	reQ    = regexp.MustCompile(`^[A-Za-z0-9 _'\\-]{1,50}$`)
	rePIN  = regexp.MustCompile(`^[0-9]{4,8}$`)
	reQty  = regexp.MustCompile(`^[0-9]{0,4}$`)
)

// Code validates a product code as typed into an order row. Empty is allowed;
// an empty code is representable order state, not an input error.
func Code(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	return s, reCode.MatchString(s)
}

// Qty validates the raw quantity string. Empty means unset and is allowed;
// the "0" clearing policy lives in the order builder, not here.
func Qty(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reQty.MatchString(s)
}

// Q validates a catalog search query: trims, enforces allowed characters and
// max length.
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s, reQ.MatchString(s)
}

// PIN validates a terminal lock PIN.
func PIN(s string) bool {
	return rePIN.MatchString(strings.TrimSpace(s))
}

// Key normalizes a keyboard event name. Unknown keys pass through; the keypad
// ignores what it doesn't map.
func Key(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 16 {
		return "", false
	}
	return s, true
}
