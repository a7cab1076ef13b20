// Package format builds Telegram HTML message fragments.
package format

import (
	"html"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Escape makes s safe inside an HTML-mode message.
func Escape(s string) string { return html.EscapeString(s) }

// Bold escapes s and wraps it in <b>.
func Bold(s string) string { return "<b>" + Escape(s) + "</b>" }

// Italic escapes s and wraps it in <i>.
func Italic(s string) string { return "<i>" + Escape(s) + "</i>" }

// Truncate cuts s to at most n runes, appending "..." when something was cut.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n])) + "..."
}

// Number renders f without trailing zeros and at most prec decimals.
func Number(f float64, prec int) string {
	s := strconv.FormatFloat(f, 'f', prec, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}
