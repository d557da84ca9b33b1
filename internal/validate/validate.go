package validate

import (
	"regexp"
	"strings"
)

var (
	reEmail  = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reID     = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reMethod = regexp.MustCompile(`^(PICKUP|DELIVERY)$`)
	reIdem   = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 60 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// ID validates a simple resource identifier (item/category/entry ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Method validates the allowed handoff methods.
func Method(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, reMethod.MatchString(s)
}

// Name validates a displayable contact name.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 40 {
		return "", false
	}
	return s, true
}

// IdempotencyKey validates a client-supplied retry key. Empty is allowed (the
// header is optional); malformed keys are rejected.
func IdempotencyKey(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	return s, reIdem.MatchString(s)
}

// Notes trims and caps free-form notes.
func Notes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 500 {
		s = s[:500]
	}
	return s
}
