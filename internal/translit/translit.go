// Package translit compiles rule texts into transliterators that normalize
// names and fold them to ASCII.
package translit

import (
	"strings"

	"github.com/heartmarshall/geotokenizer/internal/domain"
)

// Transliterator applies a compiled chain of rules. It is immutable and safe
// for concurrent use.
type Transliterator struct {
	id    string
	steps []step
}

// Compile parses the rule text and returns the transliterator. Malformed
// rules produce an error wrapping domain.ErrConfig.
func Compile(id, rules string) (*Transliterator, error) {
	stmts, err := splitStatements(rules)
	if err != nil {
		return nil, domain.NewConfigError(id, err)
	}

	t := &Transliterator{id: id}
	var pending []string

	flushPending := func() {
		if len(pending) > 0 {
			t.steps = append(t.steps, replacement(pending))
			pending = nil
		}
	}

	for _, st := range stmts {
		if strings.HasPrefix(st.text, "::") {
			name, err := parseDirective(st.text)
			if err != nil {
				return nil, domain.NewConfigError(id, &RuleError{Line: st.line, Statement: st.text, Err: err})
			}
			fn, ok := builtins[strings.ToLower(name)]
			if !ok {
				return nil, domain.NewConfigError(id, &RuleError{Line: st.line, Statement: st.text, Err: errUnknownTransform})
			}
			flushPending()
			t.steps = append(t.steps, fn)
			continue
		}

		src, dst, ok := splitReplacement(st.text)
		if !ok {
			return nil, domain.NewConfigError(id, &RuleError{Line: st.line, Statement: st.text, Err: errSyntax})
		}
		from, err := parseLiteral(src)
		if err == nil && from == "" {
			err = errEmptySource
		}
		if err != nil {
			return nil, domain.NewConfigError(id, &RuleError{Line: st.line, Statement: st.text, Err: err})
		}
		to, err := parseLiteral(dst)
		if err != nil {
			return nil, domain.NewConfigError(id, &RuleError{Line: st.line, Statement: st.text, Err: err})
		}
		pending = append(pending, from, to)
	}
	flushPending()

	return t, nil
}

// MustCompile is like Compile but panics on error. Use it for rule texts
// that are part of the program.
func MustCompile(id, rules string) *Transliterator {
	t, err := Compile(id, rules)
	if err != nil {
		panic(err)
	}
	return t
}

// ID returns the identifier the transliterator was compiled with.
func (t *Transliterator) ID() string { return t.id }

// Transliterate applies all rules in order. The result is not trimmed.
func (t *Transliterator) Transliterate(s string) string {
	for _, fn := range t.steps {
		s = fn(s)
	}
	return s
}
