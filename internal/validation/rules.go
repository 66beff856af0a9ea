package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Username and display name bounds.
const (
	UsernameMinLen = 3
	UsernameMaxLen = 20
	NameMaxLen     = 31
	PasswordMinLen = 8
	// PasswordMaxBytes is bcrypt's input limit.
	PasswordMaxBytes = 72
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

var (
	ErrUsernameCharset = errors.New("Username can only contain letters and numbers")
	ErrUsernameLength  = errors.New("Username must be 3-20 characters")
)

// NormalizeUsername trims and lowercases a username.
func NormalizeUsername(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValidateUsername checks an already normalized username. The charset rule
// is checked before the length rule.
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrUsernameCharset
	}
	if n := len(username); n < UsernameMinLen || n > UsernameMaxLen {
		return ErrUsernameLength
	}
	return nil
}

// ValidateName checks a trimmed display name.
func ValidateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n == 0 {
		return errors.New("name is required")
	}
	if n > NameMaxLen {
		return errors.New("name must be at most 31 characters")
	}
	return nil
}

// ValidateEmail checks the address with the shared validator's email rule.
func ValidateEmail(email string) error {
	if err := GetValidator().Var(email, "required,email"); err != nil {
		return errors.New("email must be a valid email address")
	}
	return nil
}

// ValidatePassword enforces length bounds and at least one letter and one
// digit. The upper bound is in bytes.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < PasswordMinLen {
		return errors.New("password must be at least 8 characters long")
	}
	if len(password) > PasswordMaxBytes {
		return errors.New("password must not exceed 72 bytes")
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return errors.New("password must contain at least one letter and one digit")
	}
	return nil
}

// DeriveUsernameBase turns an email into a username stem: the local part,
// lowercased, with everything outside [a-z0-9] removed.
func DeriveUsernameBase(email string) string {
	local, _, _ := strings.Cut(email, "@")
	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
