package auth

import (
	"regexp"
	"unicode/utf16"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	lowerPattern    = regexp.MustCompile(`[a-z]`)
	upperPattern    = regexp.MustCompile(`[A-Z]`)
	digitPattern    = regexp.MustCompile(`[0-9]`)
	specialPattern  = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

const minPasswordLength = 8

// ValidateUsername returns the first username rule violated, or FailureNone.
func ValidateUsername(username string) Failure {
	if username == "" {
		return FailureUsernameRequired
	}
	if !usernamePattern.MatchString(username) {
		return FailureUsernameFormat
	}
	return FailureNone
}

// ValidatePassword returns the first password rule violated, or FailureNone.
// Length is counted in UTF-16 code units, so a character outside the BMP
// counts twice.
func ValidatePassword(password string) Failure {
	switch {
	case password == "":
		return FailurePasswordRequired
	case utf16Len(password) < minPasswordLength:
		return FailurePasswordTooShort
	case !lowerPattern.MatchString(password):
		return FailurePasswordNoLower
	case !upperPattern.MatchString(password):
		return FailurePasswordNoUpper
	case !digitPattern.MatchString(password):
		return FailurePasswordNoDigit
	case !specialPattern.MatchString(password):
		return FailurePasswordNoSpecial
	}
	return FailureNone
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
