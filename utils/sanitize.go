package utils

import "github.com/microcosm-cc/bluemonday"

var (
	// ugcPolicy keeps the safe user-generated-content subset for rendered markdown.
	ugcPolicy = bluemonday.UGCPolicy()
	// strictPolicy strips all markup; used for plain-text fields.
	strictPolicy = bluemonday.StrictPolicy()
)

// Sanitize cleans HTML content to prevent XSS attacks.
func Sanitize(input string) string {
	return ugcPolicy.Sanitize(input)
}

// SanitizeStrict removes every tag, leaving plain text only.
func SanitizeStrict(input string) string {
	return strictPolicy.Sanitize(input)
}
