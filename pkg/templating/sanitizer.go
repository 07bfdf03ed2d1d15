package templating

import (
	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText strips all HTML from externally sourced text, such as
// repository descriptions, before it reaches a template.
func SanitizeText(input string) string {
	return strictPolicy.Sanitize(input)
}
