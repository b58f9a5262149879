package traceline

import (
	"fmt"
	"regexp"
	"strings"
)

const patternHexString = `"(?:\\x[0-9a-f]{2})*"`

var (
	regexHexString       = regexp.MustCompile(patternHexString)
	regexHexStringAnchor = regexp.MustCompile(`^` + patternHexString + `$`)
	regexHexArray        = regexp.MustCompile(`^\[(?:` + patternHexString + `(?:, )?)*\]$`)
)

// Escape encodes every byte of s as a \xHH escape, the form strace uses
// with --strings-in-hex.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 4)
	for i := 0; i < len(s); i++ {
		fmt.Fprintf(&b, `\x%02x`, s[i])
	}
	return b.String()
}

// Unescape decodes \xHH escapes in s. Bytes that are not part of an escape
// are copied unchanged.
func Unescape(s string) string {
	if !strings.Contains(s, `\x`) {
		return s
	}

	out := make([]byte, 0, len(s)/4+1)
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) && s[i+1] == 'x' {
			hi, okHi := unhex(s[i+2])
			lo, okLo := unhex(s[i+3])
			if okHi && okLo {
				out = append(out, hi<<4|lo)
				i += 3
				continue
			}
		}
		out = append(out, s[i])
	}
	return string(out)
}

// ParseQuoted decodes a hex-quoted string including its quotes.
func ParseQuoted(s string) (string, error) {
	if !regexHexStringAnchor.MatchString(s) {
		return "", fmt.Errorf("not a hex-quoted string: %q", s)
	}
	return Unescape(s[1 : len(s)-1]), nil
}

// ParseQuotedArray decodes a bracketed, comma-separated list of hex-quoted
// strings. The empty array "[]" yields an empty, non-nil slice.
func ParseQuotedArray(s string) ([]string, error) {
	if !regexHexArray.MatchString(s) {
		return nil, fmt.Errorf("not a hex-quoted array: %q", s)
	}

	items := regexHexString.FindAllString(s, -1)
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, Unescape(item[1:len(item)-1]))
	}
	return out, nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
