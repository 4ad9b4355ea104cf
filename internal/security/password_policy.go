package security

import (
	"strings"
	"unicode"

	"datingapp/internal/apperr"
)

const (
	minPasswordLength    = 6
	allowedUserNameChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-._@+"
)

// ValidateUserName reports InvalidUserName when the name is empty or uses
// characters outside the allowed set.
func ValidateUserName(userName string) []apperr.Detail {
	if userName == "" || strings.IndexFunc(userName, func(r rune) bool {
		return !strings.ContainsRune(allowedUserNameChars, r)
	}) >= 0 {
		return []apperr.Detail{{
			Code:        "InvalidUserName",
			Description: "Username '" + userName + "' is invalid, can only contain letters or digits.",
		}}
	}
	return nil
}

// ValidatePassword applies the default password rules and returns every
// rule the password breaks.
func ValidatePassword(password string) []apperr.Detail {
	var details []apperr.Detail

	if len(password) < minPasswordLength {
		details = append(details, apperr.Detail{
			Code:        "PasswordTooShort",
			Description: "Passwords must be at least 6 characters.",
		})
	}

	var hasDigit, hasLower, hasUpper, hasOther bool
	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			hasOther = true
		}
	}

	if !hasOther {
		details = append(details, apperr.Detail{
			Code:        "PasswordRequiresNonAlphanumeric",
			Description: "Passwords must have at least one non alphanumeric character.",
		})
	}
	if !hasDigit {
		details = append(details, apperr.Detail{
			Code:        "PasswordRequiresDigit",
			Description: "Passwords must have at least one digit ('0'-'9').",
		})
	}
	if !hasLower {
		details = append(details, apperr.Detail{
			Code:        "PasswordRequiresLower",
			Description: "Passwords must have at least one lowercase ('a'-'z').",
		})
	}
	if !hasUpper {
		details = append(details, apperr.Detail{
			Code:        "PasswordRequiresUpper",
			Description: "Passwords must have at least one uppercase ('A'-'Z').",
		})
	}

	return details
}

func DuplicateUserName(userName string) apperr.Detail {
	return apperr.Detail{
		Code:        "DuplicateUserName",
		Description: "Username '" + userName + "' is already taken.",
	}
}
