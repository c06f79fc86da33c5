package modinfo

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// RepairTrailingCommas drops commas that are not followed by another value,
// so `[1,2,]` and `{"a":1,}` become valid JSON. Text inside strings is never touched.
func RepairTrailingCommas(text string) string {
	var out strings.Builder
	out.Grow(len(text))

	inString := false
	escaped := false
	for index, r := range text {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && inString:
			escaped = true
		case r == '"':
			inString = !inString
		case r == ',' && !inString:
			if !startsAnotherValue(nextNonSpace(text[index+utf8.RuneLen(r):])) {
				continue
			}
		}
		out.WriteRune(r)
	}
	return out.String()
}

func nextNonSpace(rest string) rune {
	for _, r := range rest {
		if !unicode.IsSpace(r) {
			return r
		}
	}
	return utf8.RuneError
}

func startsAnotherValue(r rune) bool {
	switch r {
	case '{', '[', '"', '\'', '_', '-', '+', '.':
		return true
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
