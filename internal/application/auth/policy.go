package auth

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expertguide/expertguide-api/internal/domain"
)

const (
	minPasswordLength = 6
	minUsernameLength = 6
	maxUsernameLength = 20
)

var (
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`[0-9]`)
	specialRe = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>/?]`)
	emailRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// validatePassword enforces the password policy: minimum length plus at least
// one uppercase letter, one lowercase letter, one digit and one special
// character from the fixed punctuation set.
func validatePassword(pass string) error {
	switch {
	case len(pass) < minPasswordLength:
		return fmt.Errorf("password must be at least %d characters: %w", minPasswordLength, domain.ErrWeakPassword)
	case !upperRe.MatchString(pass):
		return fmt.Errorf("password must contain an uppercase letter: %w", domain.ErrWeakPassword)
	case !lowerRe.MatchString(pass):
		return fmt.Errorf("password must contain a lowercase letter: %w", domain.ErrWeakPassword)
	case !digitRe.MatchString(pass):
		return fmt.Errorf("password must contain a digit: %w", domain.ErrWeakPassword)
	case !specialRe.MatchString(pass):
		return fmt.Errorf("password must contain a special character: %w", domain.ErrWeakPassword)
	}
	return nil
}

func validateUsername(username string) error {
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return fmt.Errorf("username must be between %d and %d characters: %w",
			minUsernameLength, maxUsernameLength, domain.ErrInvalidUsername)
	}
	if strings.ContainsAny(username, " \t\n") {
		return fmt.Errorf("username must not contain whitespace: %w", domain.ErrInvalidUsername)
	}
	return nil
}

func isEmail(s string) bool {
	return emailRe.MatchString(s)
}

func validateEmail(email string) error {
	if !isEmail(email) {
		return fmt.Errorf("malformed email address: %w", domain.ErrInvalidEmail)
	}
	return nil
}
