package index

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidQuery is returned when a search string cannot be parsed.
var ErrInvalidQuery = errors.New("invalid query")

type tokenKind int

const (
	tokWord tokenKind = iota
	tokQuoted
	tokOperator
)

type token struct {
	kind tokenKind
	text string
}

// Comparison operators understood after an attribute name.
const (
	opExists     = ""
	opEquals     = "="
	opNotEquals  = "!="
	opContains   = "*=*"
	opStartsWith = "=*"
	opEndsWith   = "*="
)

// tokenize splits a search string into words, quoted strings and operators.
// Quoted strings may use ", ' or `; inside them a backslash escapes the
// closing quote character when another one follows, and is literal otherwise.
func tokenize(query string) ([]token, error) {
	var (
		out  []token
		word strings.Builder
	)
	flush := func() {
		if word.Len() > 0 {
			out = append(out, token{kind: tokWord, text: word.String()})
			word.Reset()
		}
	}

	runes := []rune(query)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			flush()

		case r == '"' || r == '\'' || r == '`':
			flush()
			var quoted strings.Builder
			closed := false
			for i++; i < len(runes); i++ {
				c := runes[i]
				if c == '\\' && peek(runes, i+1) == r && closesLater(runes[i+2:], r) {
					i++
					quoted.WriteRune(runes[i])
					continue
				}
				if c == r {
					closed = true
					break
				}
				quoted.WriteRune(c)
			}
			if !closed {
				return nil, fmt.Errorf("%w: unterminated %c quote", ErrInvalidQuery, r)
			}
			out = append(out, token{kind: tokQuoted, text: quoted.String()})

		case r == '!' && peek(runes, i+1) == '=':
			flush()
			out = append(out, token{kind: tokOperator, text: opNotEquals})
			i++

		case r == '*' && peek(runes, i+1) == '=':
			flush()
			if peek(runes, i+2) == '*' {
				out = append(out, token{kind: tokOperator, text: opContains})
				i += 2
			} else {
				out = append(out, token{kind: tokOperator, text: opEndsWith})
				i++
			}

		case r == '=':
			flush()
			if peek(runes, i+1) == '*' {
				out = append(out, token{kind: tokOperator, text: opStartsWith})
				i++
			} else {
				out = append(out, token{kind: tokOperator, text: opEquals})
			}

		default:
			word.WriteRune(r)
		}
	}
	flush()
	return out, nil
}

func closesLater(rest []rune, quote rune) bool {
	for _, c := range rest {
		if c == quote {
			return true
		}
	}
	return false
}

func peek(runes []rune, i int) rune {
	if i < len(runes) {
		return runes[i]
	}
	return 0
}
