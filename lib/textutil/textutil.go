package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeSpace trims s and collapses every run of inner whitespace into a
// single space, dropping non-printable runes along the way.
func NormalizeSpace(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
	s = strings.Trim(s, " \t\n\r")
	return whitespaceRegex.ReplaceAllString(s, " ")
}

var unsafeFilenameRegex = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// SafeFilename turns an arbitrary identifier (ex. a plate number like
// "AA-001-BB") into something that can be used as a single path segment.
func SafeFilename(name string) string {
	name = NormalizeSpace(name)
	name = unsafeFilenameRegex.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "_"
	}
	return name
}
