// Package naming converts component names between their Go-style form ("AwButton") and the
// hyphenated tag form ("aw-button") used for file names and view tags.
package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CamelToHyphen converts "AwButton" to "aw-button".
func CamelToHyphen(name string) string {
	if name == "" {
		return ""
	}
	var sb strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// HyphenToCamel converts "aw-button" to "AwButton".
// A trailing hyphen is kept.
func HyphenToCamel(name string) string {
	if name == "" {
		return ""
	}
	var sb strings.Builder
	upper := true
	for i, r := range name {
		if r == '-' && i+1 < len(name) {
			upper = true
			continue
		}
		if upper {
			sb.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Canonical returns the hyphenated form of name whichever form it is given in,
// so "AwButton", "awButton" and "aw-button" all map to "aw-button".
func Canonical(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	if strings.ContainsRune(name, '-') || !unicode.IsUpper(r) && strings.ToLower(name) == name {
		return strings.ToLower(name)
	}
	return CamelToHyphen(name)
}
