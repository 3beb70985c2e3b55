package friend

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// LinkEntry is one friend record inside the link-list document.
type LinkEntry struct {
	Name   string `yaml:"name"`
	Link   string `yaml:"link"`
	Avatar string `yaml:"avatar"`
	Descr  string `yaml:"descr"`
}

// LinkList is the parsed link-list document: an ordered sequence of
// categories, each optionally carrying a link_list of entries. The document
// is held as a yaml.Node tree so key order, unknown fields and scalar styles
// survive the round trip; a patch rewrites only the replaced entry.
type LinkList struct {
	node *yaml.Node
}

var (
	linkPrefixRe = regexp.MustCompile(`(?i)^(https?://)?(www\.)?`)
	nonAlnumRe   = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// NormalizeLink canonicalizes a URL for equality comparison: the scheme,
// a leading www. and one trailing slash are stripped. Two links identify
// the same friend iff their normalized forms are equal.
func NormalizeLink(raw string) string {
	return strings.TrimSuffix(linkPrefixRe.ReplaceAllString(raw, ""), "/")
}

// BranchSlug reduces a value to the characters allowed in a branch name.
func BranchSlug(s string) string {
	return nonAlnumRe.ReplaceAllString(s, "")
}

// ParseLinkList decodes the link-list YAML document.
func ParseLinkList(content string) (LinkList, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return LinkList{}, fmt.Errorf("parse link list: %w", err)
	}
	if len(doc.Content) == 0 {
		return LinkList{}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.SequenceNode {
		return LinkList{}, fmt.Errorf("parse link list: top-level document is not a sequence")
	}
	return LinkList{node: root}, nil
}

// Len returns the number of categories.
func (l LinkList) Len() int {
	if l.node == nil {
		return 0
	}
	return len(l.node.Content)
}

func (l LinkList) categories() []*yaml.Node {
	if l.node == nil {
		return nil
	}
	return l.node.Content
}

// FindEntry returns the first entry whose normalized link equals target,
// scanning categories in document order and entries in list order.
// Categories without a link_list contribute no entries. Returns nil when
// nothing matches.
func FindEntry(list LinkList, target string) *LinkEntry {
	for _, category := range list.categories() {
		items := mappingValue(category, "link_list")
		if items == nil || items.Kind != yaml.SequenceNode {
			continue
		}
		for _, item := range items.Content {
			link := scalarField(item, "link")
			if link != "" && NormalizeLink(link) == target {
				return &LinkEntry{
					Name:   scalarField(item, "name"),
					Link:   link,
					Avatar: scalarField(item, "avatar"),
					Descr:  scalarField(item, "descr"),
				}
			}
		}
	}
	return nil
}

// PatchEntry deep-copies the document and replaces the first entry whose
// normalized link equals target with a fresh name/link/avatar/descr mapping.
// The traversal order is identical to FindEntry so preview and patch always
// agree on the match. Every other node is carried over verbatim. found is
// false when no entry matched; the returned copy is then unmodified.
func PatchEntry(list LinkList, target string, entry LinkEntry) (LinkList, bool) {
	patched := LinkList{node: copyNode(list.node)}

	for _, category := range patched.categories() {
		items := mappingValue(category, "link_list")
		if items == nil || items.Kind != yaml.SequenceNode {
			continue
		}
		for j, item := range items.Content {
			link := scalarField(item, "link")
			if link != "" && NormalizeLink(link) == target {
				items.Content[j] = entryNode(entry)
				return patched, true
			}
		}
	}
	return patched, false
}

// RenderLinkList serializes the document with 2-space indentation, then
// re-inserts the blank line before each top-level category marker that the
// encoder collapses, and trims surrounding whitespace.
func RenderLinkList(list LinkList) (string, error) {
	if list.Len() == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(list.node); err != nil {
		return "", fmt.Errorf("render link list: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("render link list: %w", err)
	}

	lines := strings.Split(buf.String(), "\n")
	out := make([]string, 0, len(lines)+list.Len())
	for _, line := range lines {
		if strings.HasPrefix(line, "- ") && len(out) > 0 && out[len(out)-1] != "" {
			out = append(out, "")
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n")), nil
}

// FormatEntry renders a friend as the list-item fragment appended to the
// link file. Values are inserted verbatim; callers own their validity.
func FormatEntry(e LinkEntry) string {
	return fmt.Sprintf("\n    - name: %s\n      link: %s\n      avatar: %s\n      descr: %s",
		e.Name, e.Link, e.Avatar, e.Descr)
}

// FormatExistingEntry renders a matched entry the way the preview shows the
// "old" side: a single list item with continuation lines indented by two.
func FormatExistingEntry(e *LinkEntry) string {
	b, err := yaml.Marshal(e)
	if err != nil {
		return ""
	}
	s := strings.TrimRight(string(b), "\n")
	s = strings.ReplaceAll(s, "\n", "\n  ")
	return "- " + s + "\n"
}

// RenderDiff produces the presentation diff between two entry fragments:
// non-blank old lines prefixed "- ", a blank separator, non-blank new lines
// prefixed "+ ". Identical lines are not suppressed; blank lines are dropped.
func RenderDiff(oldEntry, newEntry string) string {
	oldLines := strings.Split(oldEntry, "\n")
	newLines := strings.Split(newEntry, "\n")
	var diff []string

	if len(oldLines) > 0 && oldLines[0] != "" {
		for _, line := range oldLines {
			if strings.TrimSpace(line) != "" {
				diff = append(diff, "- "+line)
			}
		}
		diff = append(diff, "")
	}
	for _, line := range newLines {
		if strings.TrimSpace(line) != "" {
			diff = append(diff, "+ "+line)
		}
	}
	return strings.Join(diff, "\n")
}

// mappingValue returns the value node for key inside a mapping node.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func scalarField(m *yaml.Node, key string) string {
	v := mappingValue(m, key)
	if v == nil || v.Kind != yaml.ScalarNode {
		return ""
	}
	return v.Value
}

func entryNode(e LinkEntry) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, kv := range [][2]string{
		{"name", e.Name},
		{"link", e.Link},
		{"avatar", e.Avatar},
		{"descr", e.Descr},
	} {
		n.Content = append(n.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: kv[0]},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: kv[1]},
		)
	}
	return n
}

func copyNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	cp := *n
	if n.Content != nil {
		cp.Content = make([]*yaml.Node, len(n.Content))
		for i, c := range n.Content {
			cp.Content[i] = copyNode(c)
		}
	}
	return &cp
}
