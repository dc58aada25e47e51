package icalbuddy

import "regexp"

// ansiEscape matches 7-bit C1 escapes and CSI sequences. It is compiled once
// and only read afterwards.
var ansiEscape = regexp.MustCompile(`\x1b(?:[@-Z\\-_]|\[[0-?]*[ -/]*[@-~])`)

// Sanitize removes terminal escape sequences and leaves every other byte,
// including line breaks, untouched.
func Sanitize(text string) string {
	return ansiEscape.ReplaceAllString(text, "")
}
