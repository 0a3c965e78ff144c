// utils/validator.go - Input validation
package utils

import (
	"regexp"
	"strings"
)

var allowedDocumentMimes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// IsAllowedDocumentMime checks an upload's content type against the
// document formats accepted for thesis drafts and feedback attachments.
func IsAllowedDocumentMime(mimeType string) bool {
	return allowedDocumentMimes[strings.ToLower(strings.TrimSpace(mimeType))]
}

// ValidateEmail checks if email is valid
func ValidateEmail(email string) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}

// SanitizeInput removes potentially harmful characters
func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")
	return input
}
