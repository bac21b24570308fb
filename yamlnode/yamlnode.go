// Package yamlnode adapts gopkg.in/yaml.v3 node trees to the yamlpath
// document model. Wrapping is memoized per underlying *yaml.Node so that two
// handles to the same document location compare equal, which the processor
// relies on for identity-based mutation and batch deletion.
package yamlnode

import (
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/yamlpath-go/yamlpath"
)

type document struct {
	root  *yaml.Node
	nodes map[*yaml.Node]*node
}

type node struct {
	doc *document
	n   *yaml.Node
}

// New wraps a parsed yaml.v3 tree. A DocumentNode is unwrapped to its
// content; anchors, aliases, tags, comments and styles are preserved because
// the adapter mutates the original nodes in place.
func New(root *yaml.Node) yamlpath.Document {
	d := &document{nodes: make(map[*yaml.Node]*node)}
	d.root = unwrapDocument(root)
	return d
}

func unwrapDocument(n *yaml.Node) *yaml.Node {
	if n != nil && n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return n.Content[0]
	}
	return n
}

func (d *document) wrap(n *yaml.Node) yamlpath.Node {
	if n == nil {
		return nil
	}
	if w, ok := d.nodes[n]; ok {
		return w
	}
	w := &node{doc: d, n: n}
	d.nodes[n] = w
	return w
}

func (d *document) Root() yamlpath.Node {
	if d.root == nil {
		return nil
	}
	return d.wrap(d.root)
}

func (d *document) Scalar(value string) yamlpath.Node {
	return d.wrap(&yaml.Node{Kind: yaml.ScalarNode, Tag: inferTag(value), Value: value})
}

func (d *document) Sequence() yamlpath.Node {
	return d.wrap(&yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"})
}

func (d *document) Mapping() yamlpath.Node {
	return d.wrap(&yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"})
}

func (d *document) AliasTo(target yamlpath.Node) yamlpath.Node {
	t := underlying(target)
	if t == nil {
		return nil
	}
	return d.wrap(&yaml.Node{Kind: yaml.AliasNode, Alias: t, Value: t.Anchor})
}

func underlying(v yamlpath.Node) *yaml.Node {
	if w, ok := v.(*node); ok {
		return w.n
	}
	return nil
}

func (nd *node) Kind() yamlpath.NodeKind {
	switch nd.n.Kind {
	case yaml.SequenceNode:
		return yamlpath.KindSequence
	case yaml.MappingNode:
		return yamlpath.KindMapping
	case yaml.AliasNode:
		return yamlpath.KindAlias
	default:
		return yamlpath.KindScalar
	}
}

func (nd *node) Tag() string     { return nd.n.Tag }
func (nd *node) SetTag(t string) { nd.n.Tag = t }

func (nd *node) Anchor() string { return nd.n.Anchor }

// SetAnchor renames the node's anchor and re-points every alias in the
// document at the new name, so renaming never forks an unlinked duplicate.
func (nd *node) SetAnchor(name string) {
	old := nd.n.Anchor
	nd.n.Anchor = name
	if old == "" || old == name {
		return
	}
	var fix func(y *yaml.Node)
	fix = func(y *yaml.Node) {
		if y == nil {
			return
		}
		if y.Kind == yaml.AliasNode {
			if y.Alias == nd.n {
				y.Value = name
			}
			return
		}
		for _, c := range y.Content {
			fix(c)
		}
	}
	fix(nd.doc.root)
}

func (nd *node) Alias() yamlpath.Node {
	if nd.n.Kind != yaml.AliasNode {
		return nil
	}
	return nd.doc.wrap(nd.n.Alias)
}

func (nd *node) Value() string { return nd.n.Value }

func (nd *node) SetValue(value string) { nd.n.Value = value }

func (nd *node) Style() yamlpath.ScalarStyle {
	switch {
	case nd.n.Style&yaml.DoubleQuotedStyle != 0:
		return yamlpath.StyleDoubleQuoted
	case nd.n.Style&yaml.SingleQuotedStyle != 0:
		return yamlpath.StyleSingleQuoted
	case nd.n.Style&yaml.LiteralStyle != 0:
		return yamlpath.StyleLiteral
	case nd.n.Style&yaml.FoldedStyle != 0:
		return yamlpath.StyleFolded
	default:
		return yamlpath.StylePlain
	}
}

func (nd *node) SetStyle(style yamlpath.ScalarStyle) {
	switch style {
	case yamlpath.StylePlain:
		nd.n.Style = 0
	case yamlpath.StyleDoubleQuoted:
		nd.n.Style = yaml.DoubleQuotedStyle
	case yamlpath.StyleSingleQuoted:
		nd.n.Style = yaml.SingleQuotedStyle
	case yamlpath.StyleLiteral:
		nd.n.Style = yaml.LiteralStyle
	case yamlpath.StyleFolded:
		nd.n.Style = yaml.FoldedStyle
	}
}

func (nd *node) Len() int {
	switch nd.n.Kind {
	case yaml.SequenceNode:
		return len(nd.n.Content)
	case yaml.MappingNode:
		return len(nd.n.Content) / 2
	default:
		return 0
	}
}

func (nd *node) Child(i int) yamlpath.Node {
	switch nd.n.Kind {
	case yaml.SequenceNode:
		if i < 0 || i >= len(nd.n.Content) {
			return nil
		}
		return nd.doc.wrap(nd.n.Content[i])
	case yaml.MappingNode:
		if i < 0 || i*2+1 >= len(nd.n.Content) {
			return nil
		}
		return nd.doc.wrap(nd.n.Content[i*2+1])
	default:
		return nil
	}
}

func (nd *node) Key(i int) yamlpath.Node {
	if nd.n.Kind != yaml.MappingNode || i < 0 || i*2 >= len(nd.n.Content) {
		return nil
	}
	return nd.doc.wrap(nd.n.Content[i*2])
}

func (nd *node) Get(key string) (yamlpath.Node, bool) {
	if nd.n.Kind != yaml.MappingNode {
		return nil, false
	}
	for i := 0; i+1 < len(nd.n.Content); i += 2 {
		if nd.n.Content[i].Value == key {
			return nd.doc.wrap(nd.n.Content[i+1]), true
		}
	}
	return nil, false
}

func (nd *node) Set(key string, value yamlpath.Node) {
	if nd.n.Kind != yaml.MappingNode {
		return
	}
	v := underlying(value)
	if v == nil {
		return
	}
	for i := 0; i+1 < len(nd.n.Content); i += 2 {
		if nd.n.Content[i].Value == key {
			nd.n.Content[i+1] = v
			return
		}
	}
	k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	nd.n.Content = append(nd.n.Content, k, v)
}

func (nd *node) SetChild(i int, value yamlpath.Node) {
	v := underlying(value)
	if v == nil {
		return
	}
	switch nd.n.Kind {
	case yaml.SequenceNode:
		if i >= 0 && i < len(nd.n.Content) {
			nd.n.Content[i] = v
		}
	case yaml.MappingNode:
		if i >= 0 && i*2+1 < len(nd.n.Content) {
			nd.n.Content[i*2+1] = v
		}
	}
}

func (nd *node) Append(value yamlpath.Node) {
	if nd.n.Kind != yaml.SequenceNode {
		return
	}
	if v := underlying(value); v != nil {
		nd.n.Content = append(nd.n.Content, v)
	}
}

func (nd *node) DeleteKey(key string) bool {
	if nd.n.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(nd.n.Content); i += 2 {
		if nd.n.Content[i].Value == key {
			nd.n.Content = append(nd.n.Content[:i], nd.n.Content[i+2:]...)
			return true
		}
	}
	return false
}

func (nd *node) DeleteAt(i int) {
	if nd.n.Kind != yaml.SequenceNode || i < 0 || i >= len(nd.n.Content) {
		return
	}
	nd.n.Content = append(nd.n.Content[:i], nd.n.Content[i+1:]...)
}

// inferTag resolves a scalar value to its YAML 1.2 core schema tag. An empty
// value is null; callers that want an empty string should request a string
// format or quote style.
func inferTag(value string) string {
	switch value {
	case "", "~", "null", "Null", "NULL":
		return "!!null"
	case "true", "True", "TRUE", "false", "False", "FALSE":
		return "!!bool"
	}
	// Base 0 also accepts the 0x/0o/0b forms the core schema allows.
	if _, err := strconv.ParseInt(value, 0, 64); err == nil {
		return "!!int"
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return "!!float"
	}
	switch value {
	case ".inf", "-.inf", "+.inf", ".Inf", "-.Inf", "+.Inf", ".nan", ".NaN":
		return "!!float"
	}
	return "!!str"
}
