package service

import (
	"strings"
	"unicode"

	"github.com/Freeeeeet/delivery_slots/internal/apperr"
)

const passwordMinLength = 8

const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

// ValidatePassword applies the registration password policy: minimum
// length, at least one uppercase letter, one digit, one symbol from the
// fixed set, and no case-insensitive occurrence of the username or email.
func ValidatePassword(password, username, email string) error {
	if len(password) < passwordMinLength {
		return apperr.InvalidInput("password must be at least 8 characters long")
	}

	var hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}

	if !hasUpper {
		return apperr.InvalidInput("password must contain at least one uppercase letter")
	}
	if !hasDigit {
		return apperr.InvalidInput("password must contain at least one number")
	}
	if !hasSymbol {
		return apperr.InvalidInput("password must contain at least one special character")
	}

	lowered := strings.ToLower(password)
	if username != "" && strings.Contains(lowered, strings.ToLower(username)) {
		return apperr.InvalidInput("password cannot contain your username")
	}
	if email != "" && strings.Contains(lowered, strings.ToLower(email)) {
		return apperr.InvalidInput("password cannot contain your email")
	}

	return nil
}
