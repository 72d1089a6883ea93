package auth

import (
	"regexp"
	"strings"
	"unicode"
)

// emailRegex accepts a `[A-Za-z0-9._%+-]` local part and dot-separated domain
// labels with a final label of at least two letters.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// passwordSymbols is the punctuation set at least one of which must appear in
// a password.
const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

const minPasswordLength = 8

// IsValidEmail reports whether the address has an acceptable syntax
func IsValidEmail(email string) bool {
	if len(email) > 254 {
		return false
	}
	return emailRegex.MatchString(email)
}

// IsStrongPassword enforces the password strength policy: at least 8
// characters with one uppercase letter, one lowercase letter, one digit and
// one symbol. Callers report failures only as "not strong enough"; the policy
// deliberately does not disclose which rule was missed.
func IsStrongPassword(password string) bool {
	if len(password) < minPasswordLength {
		return false
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}

	return hasUpper && hasLower && hasDigit && hasSymbol
}
