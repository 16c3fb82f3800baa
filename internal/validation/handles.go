// Package validation checks user supplied handles and text.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var usernameRegex = regexp.MustCompile(`^[a-z0-9_.]{3,30}$`)

var reservedUsernames = map[string]struct{}{
	"admin":       {},
	"api":         {},
	"activity":    {},
	"communities": {},
	"create":      {},
	"edit":        {},
	"me":          {},
	"metrics":     {},
	"onboarding":  {},
	"profile":     {},
	"search":      {},
	"swagger":     {},
	"thread":      {},
	"threads":     {},
	"users":       {},
}

// NormalizeUsername trims and lower-cases a handle.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidateUsername checks an already normalized user or community handle.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 3-30 characters of lowercase letters, numbers, underscores and dots")
	}
	if strings.HasPrefix(username, ".") || strings.HasSuffix(username, ".") {
		return fmt.Errorf("username cannot start or end with a dot")
	}
	if strings.Contains(username, "..") {
		return fmt.Errorf("username cannot contain consecutive dots")
	}
	if _, exists := reservedUsernames[username]; exists {
		return fmt.Errorf("username is reserved")
	}
	return nil
}

// ValidateText checks a thread or comment body.
func ValidateText(text string, maxRunes int) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text is required")
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("text must be valid UTF-8")
	}
	if n := utf8.RuneCountInString(text); n > maxRunes {
		return fmt.Errorf("text too long (%d characters, max %d)", n, maxRunes)
	}
	return nil
}

// ValidateName checks a display name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(name) > 120 {
		return fmt.Errorf("name too long (max 120 characters)")
	}
	return nil
}
