package translit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var (
	errUnterminatedQuote = errors.New("unterminated quote")
	errEmptySource       = errors.New("replacement without source")
	errUnknownTransform  = errors.New("unknown transform")
	errSyntax            = errors.New("unrecognized rule")
)

// RuleError points at the statement that failed to compile.
type RuleError struct {
	Line      int
	Statement string
	Err       error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Statement, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }

// statement is one rule as written in the rule text.
type statement struct {
	line int
	text string
}

// splitStatements breaks rule text into statements. Statements end at an
// unquoted ';' or a new line; '#' outside quotes starts a comment.
func splitStatements(rules string) ([]statement, error) {
	var (
		stmts   []statement
		cur     strings.Builder
		line    = 1
		start   = 1
		quoted  bool
		comment bool
		escaped bool
	)

	flush := func() {
		text := strings.TrimSpace(cur.String())
		if text != "" {
			stmts = append(stmts, statement{line: start, text: text})
		}
		cur.Reset()
	}

	for _, r := range rules {
		if r == '\n' {
			if quoted {
				return nil, &RuleError{Line: line, Statement: cur.String(), Err: errUnterminatedQuote}
			}
			comment = false
			escaped = false
			flush()
			line++
			start = line
			continue
		}
		if comment {
			continue
		}
		if escaped {
			cur.WriteRune(r)
			escaped = false
			continue
		}
		switch {
		case r == '\\' && !quoted:
			escaped = true
			cur.WriteRune(r)
		case r == '\'':
			quoted = !quoted
			cur.WriteRune(r)
		case r == ';' && !quoted:
			flush()
			start = line
		case r == '#' && !quoted:
			comment = true
		default:
			cur.WriteRune(r)
		}
	}
	if quoted {
		return nil, &RuleError{Line: line, Statement: cur.String(), Err: errUnterminatedQuote}
	}
	flush()

	return stmts, nil
}

// parseDirective parses ":: Name ()" and returns the transform name.
func parseDirective(text string) (string, error) {
	name := strings.TrimSpace(strings.TrimPrefix(text, "::"))
	if open := strings.IndexByte(name, '('); open >= 0 {
		if strings.TrimSpace(name[open:]) != "()" {
			return "", errSyntax
		}
		name = strings.TrimSpace(name[:open])
	}
	if name == "" || strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return "", errSyntax
	}
	return name, nil
}

// splitReplacement splits "source > target" at the first unquoted '>'.
func splitReplacement(text string) (string, string, bool) {
	quoted := false
	escaped := false
	for i, r := range text {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && !quoted:
			escaped = true
		case r == '\'':
			quoted = !quoted
		case r == '>' && !quoted:
			return strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+1:]), true
		}
	}
	return "", "", false
}

// parseLiteral decodes one side of a replacement rule. A side is a sequence
// of quoted strings, where a doubled quote stands for a literal one, and bare
// characters. White space outside quotes is ignored and \uXXXX escapes are
// decoded.
func parseLiteral(text string) (string, error) {
	var b strings.Builder
	rs := []rune(text)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r == '\'':
			if i+1 < len(rs) && rs[i+1] == '\'' {
				b.WriteRune('\'')
				i++
				continue
			}
			end := i + 1
			for ; end < len(rs); end++ {
				if rs[end] != '\'' {
					continue
				}
				if end+1 < len(rs) && rs[end+1] == '\'' {
					end++
					continue
				}
				break
			}
			if end >= len(rs) {
				return "", errUnterminatedQuote
			}
			b.WriteString(strings.ReplaceAll(string(rs[i+1:end]), "''", "'"))
			i = end
		case r == '\\':
			if i+1 >= len(rs) {
				return "", errSyntax
			}
			if rs[i+1] == 'u' && i+5 < len(rs) {
				cp, err := strconv.ParseUint(string(rs[i+2:i+6]), 16, 32)
				if err != nil {
					return "", fmt.Errorf("bad escape: %w", err)
				}
				b.WriteRune(rune(cp))
				i += 5
				continue
			}
			b.WriteRune(rs[i+1])
			i++
		case unicode.IsSpace(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}
