package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// FoldText is the canonical form phrases and inputs are compared in
func FoldText(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// ContainsPhrase reports whether phrase occurs in text, both already folded.
// ASCII phrases must not be glued to letters or digits on either side, so "pin"
// does not fire on "spinning" and "0% interest" does not fire on "10% interest".
func ContainsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	if !isASCII(phrase) {
		return strings.Contains(text, phrase)
	}

	checkStart := isWordByte(phrase[0])
	checkEnd := isWordByte(phrase[len(phrase)-1])
	for offset := 0; offset <= len(text)-len(phrase); {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(phrase)

		ok := true
		if checkStart && start > 0 {
			r, _ := utf8.DecodeLastRuneInString(text[:start])
			ok = !isWordRune(r)
		}
		if ok && checkEnd && end < len(text) {
			r, _ := utf8.DecodeRuneInString(text[end:])
			ok = !isWordRune(r)
		}
		if ok {
			return true
		}
		offset = start + 1
	}
	return false
}

// CountPhrases returns how many of phrases occur in text
func CountPhrases(text string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if ContainsPhrase(text, p) {
			n++
		}
	}
	return n
}

func isWordByte(b byte) bool {
	return b < utf8.RuneSelf && isWordRune(rune(b))
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
