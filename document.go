package yamlpath

// NodeKind identifies the structural shape of a document node.
type NodeKind uint8

const (
	KindScalar NodeKind = iota + 1
	KindSequence
	KindMapping
	KindAlias
)

func (k NodeKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindAlias:
		return "alias"
	default:
		return "unknown"
	}
}

// ScalarStyle selects the presentation of a scalar value when the backing
// document preserves formatting.
type ScalarStyle uint8

const (
	StyleAny ScalarStyle = iota
	StylePlain
	StyleDoubleQuoted
	StyleSingleQuoted
	StyleLiteral
	StyleFolded
)

// Node is one node of a YAML document tree. Implementations wrap whatever
// representation the caller already has; the processor never assumes a
// concrete type.
//
// Mapping access is by string key. Sequence access is by index. Methods that
// do not apply to the node's kind are no-ops or return zero values.
type Node interface {
	Kind() NodeKind

	// Tag returns the resolved YAML tag, such as !!str or !!int.
	Tag() string
	SetTag(tag string)

	// Anchor returns the node's anchor name, or "" when unanchored.
	Anchor() string
	SetAnchor(name string)

	// Alias returns the anchored target of an alias node, or nil for any
	// other kind.
	Alias() Node

	// Value returns the scalar text of a scalar node.
	Value() string
	SetValue(value string)

	Style() ScalarStyle
	SetStyle(style ScalarStyle)

	// Len returns the child count of a sequence or the pair count of a
	// mapping.
	Len() int

	// Child returns the i-th sequence element or the i-th mapping value.
	Child(i int) Node

	// Key returns the i-th mapping key node.
	Key(i int) Node

	// Get returns the value for key in a mapping.
	Get(key string) (Node, bool)

	// Set binds key to value in a mapping, inserting or replacing.
	Set(key string, value Node)

	// SetChild replaces the i-th sequence element or mapping value.
	SetChild(i int, value Node)

	// Append adds an element to a sequence.
	Append(value Node)

	// DeleteKey removes a mapping pair by key, reporting whether it
	// existed.
	DeleteKey(key string) bool

	// DeleteAt removes the i-th sequence element.
	DeleteAt(i int)
}

// Document is the capability surface the processor needs from a backing
// document: a root node and factories for new nodes that belong to the same
// representation.
type Document interface {
	// Root returns the document's top node, or nil for an empty document.
	Root() Node

	// Scalar builds a detached scalar node, inferring a standard tag from
	// the value text.
	Scalar(value string) Node

	// Sequence builds a detached empty sequence node.
	Sequence() Node

	// Mapping builds a detached empty mapping node.
	Mapping() Node

	// AliasTo builds an alias node referencing target, which must carry an
	// anchor.
	AliasTo(target Node) Node
}
