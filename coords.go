package yamlpath

import "fmt"

// NodeCoords is a handle to one matched node: the node itself plus enough of
// its surroundings to mutate or delete it in place.
type NodeCoords struct {
	// Node is the matched node. It may be nil for a match that resolved to
	// a YAML null.
	Node Node

	// Parent is the node containing Node, or nil when Node is the document
	// root.
	Parent Node

	// Key is the mapping key under which Node lives, when Parent is a
	// mapping.
	Key string

	// Index is the sequence position of Node, or -1 when Parent is a
	// mapping or Node is the root.
	Index int

	// Path is the canonical expression that resolves to this node.
	Path string
}

func (c NodeCoords) String() string {
	value := "~"
	if c.Node != nil {
		switch c.Node.Kind() {
		case KindScalar:
			value = c.Node.Value()
		default:
			value = c.Node.Kind().String()
		}
	}
	return fmt.Sprintf("%s=%s", c.Path, value)
}

// childPath extends a canonical path with one key step.
func childPath(base, key string) string {
	if base == "" {
		return escapeSegmentText(key)
	}
	return base + "." + escapeSegmentText(key)
}

// indexPath extends a canonical path with one sequence step.
func indexPath(base string, i int) string {
	return fmt.Sprintf("%s[%d]", base, i)
}

// anchorPath extends a canonical path with an anchor reference step.
func anchorPath(base, name string) string {
	return fmt.Sprintf("%s[&%s]", base, name)
}
