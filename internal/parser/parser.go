// Package parser turns vault Markdown files into note definitions:
// YAML frontmatter carries identity, type and attributes, the body is the content.
package parser

import (
	"bytes"
	"fmt"
	"path"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// InternalLinkRelation is the relation created for every [[wikilink]] in a body.
const InternalLinkRelation = "internalLink"

// Attr is one label or relation declared by a vault file, in document order.
type Attr struct {
	Name        string
	Value       string
	Inheritable bool
}

// Result holds the output of parsing a vault file.
type Result struct {
	ID        string
	Title     string
	Type      string
	Mime      string
	Parents   []string
	Protected bool
	Labels    []Attr
	Relations []Attr
	Body      string
}

type frontmatter struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Type        string    `yaml:"type"`
	Mime        string    `yaml:"mime"`
	Parents     []string  `yaml:"parents"`
	Protected   bool      `yaml:"protected"`
	Inheritable []string  `yaml:"inheritable"`
	Labels      yaml.Node `yaml:"labels"`
	Relations   yaml.Node `yaml:"relations"`
}

// Parse extracts the note definition from raw Markdown bytes. relPath is the
// file's path relative to the vault root and provides the fallback id and title.
func Parse(relPath string, data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	stem := strings.TrimSuffix(relPath, ".md")
	res := &Result{
		ID:        fm.ID,
		Title:     deriveTitle(fm.Title, body),
		Type:      fm.Type,
		Mime:      fm.Mime,
		Parents:   fm.Parents,
		Protected: fm.Protected,
		Body:      body,
	}
	if res.ID == "" {
		res.ID = NoteIDFromPath(relPath)
	}
	if res.Title == "" {
		res.Title = path.Base(stem)
	}
	if res.Type == "" {
		res.Type = "text"
		if res.Mime != "" {
			res.Type = "code"
		}
	}

	inheritable := make(map[string]struct{}, len(fm.Inheritable))
	for _, name := range fm.Inheritable {
		inheritable[name] = struct{}{}
	}
	if res.Labels, err = orderedAttrs(&fm.Labels, inheritable); err != nil {
		return nil, fmt.Errorf("parser: labels: %w", err)
	}
	if res.Relations, err = orderedAttrs(&fm.Relations, inheritable); err != nil {
		return nil, fmt.Errorf("parser: relations: %w", err)
	}

	// Code notes are scripts, not prose: no inline tags or wikilinks.
	if res.Type != "code" {
		res.Labels = appendInlineTags(res.Labels, body)
		for _, target := range extractLinks(body) {
			res.Relations = append(res.Relations, Attr{Name: InternalLinkRelation, Value: target})
		}
	}
	return res, nil
}

// NoteIDFromPath derives a stable note id from a vault-relative path.
func NoteIDFromPath(relPath string) string {
	stem := strings.TrimSuffix(relPath, ".md")
	return strings.ReplaceAll(stem, "/", "_")
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (frontmatter, string, error) {
	const delim = "---"
	var fm frontmatter
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return fm, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter: treat everything as body.
		return fm, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML: body only, no error.
		return frontmatter{}, string(data), nil
	}
	return fm, body, nil
}

// orderedAttrs reads a YAML mapping of name -> value | [values] keeping
// document order, which matters for repeated labels such as actions.
func orderedAttrs(node *yaml.Node, inheritable map[string]struct{}) ([]Attr, error) {
	if node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null") {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected mapping, got %s", kindName(node.Kind))
	}
	var out []Attr
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		val := node.Content[i+1]
		_, inh := inheritable[name]
		switch val.Kind {
		case yaml.ScalarNode:
			v := val.Value
			if val.Tag == "!!null" {
				v = ""
			}
			out = append(out, Attr{Name: name, Value: v, Inheritable: inh})
		case yaml.SequenceNode:
			for _, item := range val.Content {
				if item.Kind != yaml.ScalarNode {
					return nil, fmt.Errorf("%s: nested values are not supported", name)
				}
				out = append(out, Attr{Name: name, Value: item.Value, Inheritable: inh})
			}
		default:
			return nil, fmt.Errorf("%s: unsupported value of kind %s", name, kindName(val.Kind))
		}
	}
	return out, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}

// extractLinks returns deduplicated wikilink targets, normalising aliases.
func extractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		raw := m[1]
		// Handle aliases: [[Target|Alias]] → Target.
		target := raw
		if i := strings.Index(raw, "|"); i >= 0 {
			target = raw[:i]
		}
		target = NoteIDFromPath(strings.TrimSpace(target))
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// appendInlineTags adds a valueless label for each #tag in body that is not
// already declared in frontmatter.
func appendInlineTags(labels []Attr, body string) []Attr {
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		seen[l.Name] = struct{}{}
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		t := m[1]
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		labels = append(labels, Attr{Name: t})
	}
	return labels
}

// deriveTitle returns the frontmatter title if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(title, body string) string {
	if title != "" {
		return title
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
