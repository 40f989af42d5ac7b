package blocks

import "strings"

// Escape HTML-escapes &, <, > and ".
//
// Only the first occurrence of each character is replaced, so
// Escape("a < b < c") is "a &lt; b < c". Rendered meta tags depend on this
// output byte for byte; use html.EscapeString where full escaping is needed.
func Escape(s string) string {
	s = strings.Replace(s, "&", "&amp;", 1)
	s = strings.Replace(s, "<", "&lt;", 1)
	s = strings.Replace(s, ">", "&gt;", 1)
	s = strings.Replace(s, `"`, "&quot;", 1)
	return s
}

// Trim strips leading and trailing whitespace.
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// EscapeTrim escapes s and then trims it.
func EscapeTrim(s string) string {
	return Trim(Escape(s))
}
