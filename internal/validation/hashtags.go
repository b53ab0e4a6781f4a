package validation

import (
	"regexp"
	"strings"
)

// MaxHashtagLength bounds a single tag, in bytes.
const MaxHashtagLength = 100

var hashtagRegex = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// ExtractHashtags returns the distinct lower-cased tags in text, without
// the leading '#', in order of first appearance.
func ExtractHashtags(text string) []string {
	matches := hashtagRegex.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if len(tag) > MaxHashtagLength {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// NormalizeHashtag lower-cases name and drops a leading '#'.
func NormalizeHashtag(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "#"))
}
