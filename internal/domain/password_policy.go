package domain

import "unicode/utf16"

const (
	passwordLongLength  = 15
	passwordShortLength = 8

	ReasonNeedsDigitAndLower = "must contain at least one number and one lowercase letter"
	ReasonTooShort           = "must be at least 15 characters OR at least 8 characters with a number and lowercase letter"
)

// PasswordVerdict is the outcome of EvaluatePassword. Reason is empty when Acceptable.
type PasswordVerdict struct {
	Acceptable bool
	Reason     string
}

// EvaluatePassword applies the site password rule:
// 15+ characters, or 8+ characters with an ASCII digit and an ASCII lowercase letter.
// Length counts UTF-16 code units so the browser form and the API agree on every input.
func EvaluatePassword(secret string) PasswordVerdict {
	n := passwordLength(secret)

	if n >= passwordLongLength {
		return PasswordVerdict{Acceptable: true}
	}
	if n >= passwordShortLength {
		if hasDigit(secret) && hasLower(secret) {
			return PasswordVerdict{Acceptable: true}
		}
		return PasswordVerdict{Reason: ReasonNeedsDigitAndLower}
	}
	return PasswordVerdict{Reason: ReasonTooShort}
}

func passwordLength(s string) int {
	return len(utf16.Encode([]rune(s)))
}

func hasDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			return true
		}
	}
	return false
}

func hasLower(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 'a' && s[i] <= 'z' {
			return true
		}
	}
	return false
}
