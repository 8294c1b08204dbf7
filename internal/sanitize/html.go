package sanitize

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes all HTML tags and attributes.
var StrictPolicy = bluemonday.StrictPolicy()

// Text strips markup from user-supplied plain text such as place names and
// addresses. Entities are decoded afterwards so "Tom & Jerry" survives
// unchanged; a second pass catches markup that was hidden behind entities.
func Text(input string) string {
	out := html.UnescapeString(StrictPolicy.Sanitize(input))
	return html.UnescapeString(StrictPolicy.Sanitize(out))
}
