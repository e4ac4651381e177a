package translit

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// step is a single compiled rule. Steps must be safe for concurrent use,
// which is why stateful x/text transformers are created per call.
type step func(string) string

// builtins maps lower-cased transform names onto their implementation.
var builtins = map[string]step{
	"lower":             lower,
	"upper":             upper,
	"nfc":               norm.NFC.String,
	"nfd":               norm.NFD.String,
	"nfkc":              norm.NFKC.String,
	"nfkd":              norm.NFKD.String,
	"remove-marks":      removeMarks,
	"remove-format":     removeFormat,
	"any-ascii":         unidecode.Unidecode,
	"latin-ascii":       unidecode.Unidecode,
	"punctuation-space": punctuationToSpace,
	"keep-alnum":        keepAlnum,
	"collapse-space":    collapseSpace,
	"trim":              strings.TrimSpace,
}

func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

func upper(s string) string {
	return cases.Upper(language.Und).String(s)
}

func removeMarks(s string) string {
	out, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		return s
	}
	return out
}

func removeFormat(s string) string {
	out, _, err := transform.String(runes.Remove(runes.In(unicode.Cf)), s)
	if err != nil {
		return s
	}
	return out
}

func punctuationToSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, s)
}

// keepAlnum drops everything that is neither a letter, a digit nor a space.
func keepAlnum(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
}

// collapseSpace replaces every run of white space with a single blank.
// Leading and trailing runs are collapsed, not removed.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// replacement builds a step from consecutive literal replacement rules.
// At every position the first matching source in rule order wins.
func replacement(pairs []string) step {
	r := strings.NewReplacer(pairs...)
	return r.Replace
}
