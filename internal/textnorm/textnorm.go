// Package textnorm turns gazetteer names and query strings into search tokens:
// lower-cased, diacritic-folded words split on anything that is not a letter or digit.
package textnorm

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that carry no combining mark and therefore survive NFD folding.
var foldReplacer = strings.NewReplacer(
	"ß", "ss", "ẞ", "ss",
	"æ", "ae", "Æ", "ae",
	"œ", "oe", "Œ", "oe",
	"ø", "o", "Ø", "o",
	"đ", "d", "Đ", "d",
	"ł", "l", "Ł", "l",
	"ı", "i",
	"þ", "th", "Þ", "th",
)

// transform.Chain keeps internal state, so each goroutine takes its own.
var folderPool = sync.Pool{
	New: func() any {
		return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	},
}

// Fold lower-cases s and strips diacritics.
func Fold(s string) string {
	if isPlainASCII(s) {
		return strings.ToLower(s)
	}
	t, _ := folderPool.Get().(transform.Transformer)
	defer folderPool.Put(t)
	t.Reset()

	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(foldReplacer.Replace(folded))
}

// Tokenize folds s and splits it into word tokens.
func Tokenize(s string) []string {
	return strings.FieldsFunc(Fold(s), isSeparator)
}

// Normalize returns the tokens of s joined by single spaces.
// Two strings are the same name when their normalized forms are equal.
func Normalize(s string) string {
	return strings.Join(Tokenize(s), " ")
}

// Unique returns the distinct tokens of s in first-seen order.
func Unique(tokens []string) []string {
	if len(tokens) < 2 {
		return tokens
	}
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0:0]
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func isPlainASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
