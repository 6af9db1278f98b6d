package search

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/laguz/internal/models"
)

var plainValueRe = regexp.MustCompile(`^[\p{L}\p{N}_-]+$`)

// FormatAttrForSearch renders an attribute as a query fragment such as
// `#status=done` or `~owner.noteId="a b"`. Relation values are compared by
// target note id. The value is quoted with the least intrusive quoting that
// keeps it unambiguous.
func FormatAttrForSearch(attr models.Attribute, includeValue bool) (string, error) {
	var b strings.Builder
	switch attr.Type {
	case models.AttributeLabel:
		b.WriteByte('#')
	case models.AttributeRelation:
		b.WriteByte('~')
	default:
		return "", fmt.Errorf("search: unrecognized attribute type %q", attr.Type)
	}
	b.WriteString(attr.Name)

	if includeValue && attr.Value != "" {
		if attr.Type == models.AttributeRelation {
			b.WriteString(".noteId")
		}
		b.WriteByte('=')
		b.WriteString(quoteValue(attr.Value))
	}
	return b.String(), nil
}

func quoteValue(v string) string {
	switch {
	case plainValueRe.MatchString(v):
		return v
	case !strings.Contains(v, `"`):
		return `"` + v + `"`
	case !strings.Contains(v, "'"):
		return "'" + v + "'"
	case !strings.Contains(v, "`"):
		return "`" + v + "`"
	}
	return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
}
