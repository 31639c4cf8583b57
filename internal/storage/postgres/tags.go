package postgres

import "strings"

// Tags live in a single text column as a comma-joined list. The encoding is
// a persistence detail; everything above this package sees []string.

func encodeTags(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return strings.Join(cleaned, ",")
}

func decodeTags(encoded string) []string {
	if encoded == "" {
		return []string{}
	}

	parts := strings.Split(encoded, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}
