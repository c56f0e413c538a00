package utils

import "strings"

// NormalizeEmail lowercases and trims an email address so lookups and
// throttle keys treat address variants as the same contact.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
