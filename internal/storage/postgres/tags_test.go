package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeTags(t *testing.T) {
	assert.Equal(t, "", encodeTags(nil))
	assert.Equal(t, "", encodeTags([]string{}))
	assert.Equal(t, "funny", encodeTags([]string{"funny"}))
	assert.Equal(t, "funny,spoilers", encodeTags([]string{"funny", "spoilers"}))

	// Whitespace and empty entries are dropped
	assert.Equal(t, "funny,spoilers", encodeTags([]string{" funny ", "", "  ", "spoilers"}))
}

func TestDecodeTags(t *testing.T) {
	// An empty column decodes to an empty, non-nil slice
	assert.Equal(t, []string{}, decodeTags(""))

	assert.Equal(t, []string{"funny"}, decodeTags("funny"))
	assert.Equal(t, []string{"funny", "spoilers"}, decodeTags("funny,spoilers"))
	assert.Equal(t, []string{"funny", "spoilers"}, decodeTags(" funny , spoilers ,"))
}

func TestTagsRoundTrip(t *testing.T) {
	tags := []string{"funny", "spoilers", "must-listen"}
	assert.Equal(t, tags, decodeTags(encodeTags(tags)))
}
