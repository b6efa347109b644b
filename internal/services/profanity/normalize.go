// Package profanity screens channel submissions against a mutable
// banned-word set. Text is canonicalized before matching so common
// spelling evasions (digit stand-ins, stray separators, case tricks)
// still hit the list.
package profanity

import "strings"

// substitutions folds digit/symbol stand-ins to their canonical letter.
// The second block covers Persian-Arabic digits, which show up in the
// same evasions for Persian words.
var substitutions = map[rune]rune{
	'0': 'o', '1': 'i', '3': 'e', '4': 'a', '5': 's', '7': 't',
	'@': 'a', '$': 's', '!': 'i', '+': 't', '×': 'x',
	'۰': 'o', '۱': 'i', '۳': 'e', '۴': 'a', '۵': 's', '۷': 't',
}

// Normalize canonicalizes text for banned-word comparison: runs of
// whitespace collapse to single spaces, ends are trimmed, the result is
// lower-cased and stand-in characters are folded to letters. Empty input
// yields empty output.
func Normalize(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if collapsed == "" {
		return ""
	}

	lowered := strings.ToLower(collapsed)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if sub, ok := substitutions[r]; ok {
			r = sub
		}
		b.WriteRune(r)
	}

	return b.String()
}
