package utils

import (
	"errors"
	"html"
	"regexp"
	"strings"
	"unicode"
)

// Validation errors.
var (
	ErrEmptyID         = errors.New("ID is empty")
	ErrInvalidIDFormat = errors.New("ID contains invalid characters")
	ErrIDTooLong       = errors.New("ID is too long")
	ErrEmptyTitle      = errors.New("title is empty")
	ErrTitleTooLong    = errors.New("title is too long")
)

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// SanitizeString escapes HTML and strips control characters.
func SanitizeString(input string) string {
	sanitized := html.EscapeString(input)

	var result strings.Builder
	for _, r := range sanitized {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		result.WriteRune(r)
	}

	return result.String()
}

// ValidateID validates a resource ID (letters, digits, hyphen, underscore).
func ValidateID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if !idPattern.MatchString(id) {
		return ErrInvalidIDFormat
	}
	if len(id) > 64 {
		return ErrIDTooLong
	}
	return nil
}

// ValidateTitle validates a work order title.
func ValidateTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return ErrEmptyTitle
	}
	if len(trimmed) > 255 {
		return ErrTitleTooLong
	}
	return nil
}
