package validation

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy strips every tag. Policies are safe for concurrent use.
var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText removes markup from user text and trims surrounding space.
// Entities escaped by the policy are decoded again, since the result is
// stored as plain text and escaped by clients on render.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}
