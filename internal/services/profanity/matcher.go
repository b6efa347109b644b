package profanity

import (
	"regexp"
	"strings"
)

const (
	// separatorRun tolerates filler characters inserted between the
	// letters of a banned word ("b a d w o r d", "bad-word").
	separatorRun = `[\s\-_.]*`

	// RE2 \b only understands ASCII word characters, so boundaries are
	// spelled out to keep non-Latin words matching correctly.
	boundaryLeft  = `(?:^|[^\p{L}\p{N}_])`
	boundaryRight = `(?:[^\p{L}\p{N}_]|$)`
)

// ContainsBanned reports whether text contains any entry of the banned
// set. Input and entries are normalized first; each entry is tried as an
// exact boundary match, then with separator runs tolerated between its
// letters. Returns on the first hit. A pattern that fails to compile is
// skipped: detection degrades, it never errors.
func ContainsBanned(text string, banned []string) bool {
	if text == "" || len(banned) == 0 {
		return false
	}

	normalized := Normalize(text)
	if normalized == "" {
		return false
	}

	for _, entry := range banned {
		word := Normalize(entry)
		if word == "" {
			continue
		}
		if matchExact(normalized, word) || matchSeparated(normalized, word) {
			return true
		}
	}

	return false
}

func matchExact(text, word string) bool {
	re, err := regexp.Compile(boundaryLeft + regexp.QuoteMeta(word) + boundaryRight)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

func matchSeparated(text, word string) bool {
	letters := make([]string, 0, len(word))
	for _, r := range word {
		if r == ' ' {
			continue
		}
		letters = append(letters, regexp.QuoteMeta(string(r)))
	}
	if len(letters) == 0 {
		return false
	}

	re, err := regexp.Compile(strings.Join(letters, separatorRun))
	if err != nil {
		return false
	}
	return re.MatchString(text)
}
