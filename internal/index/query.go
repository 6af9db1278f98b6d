package index

import (
	"fmt"
	"strings"

	"github.com/starford/laguz/internal/models"
)

// attrCondition is one #label or ~relation expression.
type attrCondition struct {
	attrType string
	name     string
	// byNoteID is set for ~relation.noteId, comparing the relation target id
	// instead of the target title.
	byNoteID bool
	op       string
	value    string
}

// parsedQuery is the conjunction of all conditions in a search string.
type parsedQuery struct {
	attrs []attrCondition
	terms []string
}

func (q parsedQuery) String() string {
	var parts []string
	for _, c := range q.attrs {
		prefix := "#"
		if c.attrType == models.AttributeRelation {
			prefix = "~"
		}
		name := c.name
		if c.byNoteID {
			name += ".noteId"
		}
		if c.op == opExists {
			parts = append(parts, prefix+name)
		} else {
			parts = append(parts, fmt.Sprintf("%s%s%s%q", prefix, name, c.op, c.value))
		}
	}
	for _, t := range q.terms {
		parts = append(parts, fmt.Sprintf("text(%q)", t))
	}
	return "AND(" + strings.Join(parts, ", ") + ")"
}

func parseQuery(query string) (parsedQuery, error) {
	tokens, err := tokenize(query)
	if err != nil {
		return parsedQuery{}, err
	}

	var q parsedQuery
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case tok.kind == tokOperator:
			return parsedQuery{}, fmt.Errorf("%w: operator %q without attribute", ErrInvalidQuery, tok.text)

		case tok.kind == tokWord && (strings.HasPrefix(tok.text, "#") || strings.HasPrefix(tok.text, "~")):
			c := attrCondition{attrType: models.AttributeLabel, name: tok.text[1:]}
			if tok.text[0] == '~' {
				c.attrType = models.AttributeRelation
				if name, ok := strings.CutSuffix(c.name, ".noteId"); ok {
					c.name = name
					c.byNoteID = true
				}
			}
			if c.name == "" {
				return parsedQuery{}, fmt.Errorf("%w: empty attribute name", ErrInvalidQuery)
			}
			if i+1 < len(tokens) && tokens[i+1].kind == tokOperator {
				if i+2 >= len(tokens) || tokens[i+2].kind == tokOperator {
					return parsedQuery{}, fmt.Errorf("%w: missing value for %s", ErrInvalidQuery, tok.text)
				}
				c.op = tokens[i+1].text
				c.value = tokens[i+2].text
				i += 2
			}
			q.attrs = append(q.attrs, c)

		default:
			if t := strings.TrimSpace(tok.text); t != "" {
				q.terms = append(q.terms, strings.ToLower(t))
			}
		}
	}
	return q, nil
}

// matches evaluates one attribute condition against a note.
// titles maps note ids to titles for relation comparisons by target title.
func (c attrCondition) matches(n *models.Note, fuzzy bool, titles func(string) string) bool {
	for _, a := range n.AllAttributes() {
		if a.Type != c.attrType || !nameMatches(a.Name, c.name, fuzzy) {
			continue
		}
		if c.op == opExists {
			return true
		}
		actual := a.Value
		if c.attrType == models.AttributeRelation && !c.byNoteID {
			actual = titles(a.Value)
		}
		if valueMatches(actual, c.op, c.value, fuzzy) {
			return true
		}
	}
	return false
}

func nameMatches(actual, want string, fuzzy bool) bool {
	if strings.EqualFold(actual, want) {
		return true
	}
	return fuzzy && strings.HasPrefix(strings.ToLower(actual), strings.ToLower(want))
}

func valueMatches(actual, op, want string, fuzzy bool) bool {
	a, w := strings.ToLower(actual), strings.ToLower(want)
	switch op {
	case opEquals:
		if fuzzy {
			return strings.Contains(a, w)
		}
		return a == w
	case opNotEquals:
		return a != w
	case opContains:
		return strings.Contains(a, w)
	case opStartsWith:
		return strings.HasPrefix(a, w)
	case opEndsWith:
		return strings.HasSuffix(a, w)
	}
	return false
}
