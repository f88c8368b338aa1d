// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strings"
)

// WindowSize is how many characters before the email are searched for a name.
const WindowSize = 300

// nameLines is how many trailing non-empty lines of the window are tried
// before falling back to the whole window.
const nameLines = 5

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)*\.[A-Za-z]{2,}`)

	// namePattern matches a run of two or more capitalized words on one line.
	namePattern = regexp.MustCompile(`\p{Lu}\p{Ll}+(?:[ \t]+\p{Lu}\p{Ll}+)+`)
)

// Guess finds the first email in text and the name written closest before
// it. It returns (nil, nil) when text has no email, and a nil author when no
// capitalized name precedes the email.
func Guess(text string) (author, email *string) {
	loc := emailPattern.FindStringIndex(text)
	if loc == nil {
		return nil, nil
	}
	found := text[loc[0]:loc[1]]
	email = &found

	window := precedingWindow(text[:loc[0]], WindowSize)
	if name := guessName(window); name != "" {
		author = &name
	}
	return author, email
}

// precedingWindow returns at most n runes from the end of s.
func precedingWindow(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[len(r)-n:]
	}
	return string(r)
}

func guessName(window string) string {
	var lines []string
	for _, l := range strings.Split(window, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > nameLines {
		lines = lines[len(lines)-nameLines:]
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if m := namePattern.FindAllString(lines[i], -1); len(m) > 0 {
			return m[len(m)-1]
		}
	}
	if m := namePattern.FindAllString(window, -1); len(m) > 0 {
		return m[len(m)-1]
	}
	return ""
}
