package extract

import (
	"strings"
	"unicode/utf8"
)

// toValidUTF8 replaces invalid UTF-8 sequences with the replacement character
// and drops a leading byte order mark.
func toValidUTF8(content []byte) string {
	s := string(content)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\ufffd")
	}
	return strings.TrimPrefix(s, "\ufeff")
}

// namesFromLines returns one name per non-blank line.
func namesFromLines(content []byte) []string {
	var names []string
	for _, line := range strings.Split(toValidUTF8(content), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}
