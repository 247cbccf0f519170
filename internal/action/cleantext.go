package action

import "strings"

// CleanText normalizes generated text for use in an email body: runs of
// whitespace collapse to single spaces and surrounding whitespace is
// trimmed. Model output often arrives with stray newlines and doubled
// spaces that look broken in a plain-text email.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
