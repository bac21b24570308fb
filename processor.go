package yamlpath

import (
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strconv"
)

// Processor evaluates YAML Paths against a Document: lazy retrieval,
// auto-creating writes, and batch-safe deletion. A Processor holds no state
// beyond its document and logger and may be reused across documents by
// calling SetDocument. Single-writer semantics: concurrent mutation of the
// same document is unsupported.
type Processor struct {
	logger *slog.Logger
	doc    Document
}

// NewProcessor builds a Processor over doc. A nil logger discards all
// diagnostics.
func NewProcessor(logger *slog.Logger, doc Document) *Processor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Processor{logger: logger, doc: doc}
}

// SetDocument swaps the document the processor evaluates against.
func (p *Processor) SetDocument(doc Document) {
	p.doc = doc
}

// candidate is one working position during evaluation: either a real
// document location, or a virtual list produced by a collector whose
// elements each have real document locations.
type candidate struct {
	coords NodeCoords
	list   []NodeCoords
}

// GetNodes lazily yields the coordinates of every node matching path.
// Consumption may stop early; the rest of the document is not visited.
// Absence is not an error: an unmatched path yields nothing.
func (p *Processor) GetNodes(path *YAMLPath) iter.Seq[NodeCoords] {
	return func(yield func(NodeCoords) bool) {
		if p.doc == nil || path == nil {
			return
		}
		root := p.doc.Root()
		if root == nil {
			return
		}
		p.walk(rootCandidate(root), path, path.segments, yield)
	}
}

// Get parses expr and evaluates it in one call.
func (p *Processor) Get(expr string) (iter.Seq[NodeCoords], error) {
	path, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return p.GetNodes(path), nil
}

// RequireNodes collects every match for path and fails with ErrNotExist when
// there are none.
func (p *Processor) RequireNodes(path *YAMLPath) ([]NodeCoords, error) {
	if p.doc == nil || p.doc.Root() == nil {
		return nil, ErrNoDocument
	}
	if path == nil {
		return nil, fmt.Errorf("%w: nil path", ErrNotExist)
	}
	matches := p.gatherAll(path)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, path.Original())
	}
	return matches, nil
}

func rootCandidate(root Node) candidate {
	return candidate{coords: NodeCoords{Node: root, Index: -1}}
}

func (p *Processor) gatherAll(path *YAMLPath) []NodeCoords {
	var out []NodeCoords
	for nc := range p.GetNodes(path) {
		out = append(out, nc)
	}
	return out
}

// deref follows alias nodes to their anchored targets.
func deref(n Node) Node {
	for n != nil && n.Kind() == KindAlias {
		n = n.Alias()
	}
	return n
}

// anchorOf reports a node's anchor name, resolving aliases to the anchor
// they reference.
func anchorOf(n Node) string {
	if n == nil {
		return ""
	}
	if n.Kind() == KindAlias {
		if t := n.Alias(); t != nil {
			return t.Anchor()
		}
		return ""
	}
	return n.Anchor()
}

// walk evaluates the remaining segments against one candidate, yielding
// matches as they are found. It returns false once the consumer stops.
func (p *Processor) walk(c candidate, path *YAMLPath, segs []Segment, yield func(NodeCoords) bool) bool {
	if len(segs) == 0 {
		if c.list != nil {
			for _, nc := range c.list {
				if !yield(nc) {
					return false
				}
			}
			return true
		}
		return yield(c.coords)
	}

	seg := segs[0]
	rest := segs[1:]
	next := func(nc NodeCoords) bool {
		return p.walk(candidate{coords: nc}, path, rest, yield)
	}

	switch s := seg.(type) {
	case KeySegment:
		return p.evalKey(c, s, next)
	case IndexSegment:
		return p.evalIndex(c, s, next)
	case SliceSegment:
		return p.evalSlice(c, s, next)
	case WildcardSegment:
		return p.evalWildcard(c, next)
	case AnchorSegment:
		return p.evalAnchor(c, s, next)
	case SearchSegment:
		return p.evalSearch(c, s, next)
	case TraversalSegment:
		return p.evalTraversal(c, path, rest, yield)
	case CollectorSegment:
		if s.Op != CollectorNone {
			p.logger.Warn("collector operator without a preceding collector",
				"path", path.Original(), "segment", s.String())
			return true
		}
		list, remaining, err := p.collect(c, s, rest)
		if err != nil {
			p.logger.Warn("collector evaluation failed",
				"path", path.Original(), "error", err)
			return true
		}
		return p.walk(candidate{list: list}, path, remaining, yield)
	}
	return true
}

func (p *Processor) evalKey(c candidate, s KeySegment, next func(NodeCoords) bool) bool {
	if c.list != nil {
		if idx, err := strconv.Atoi(s.Name); err == nil {
			return p.listIndex(c.list, idx, next)
		}
		for _, nc := range c.list {
			if !p.keyInto(nc, s, next) {
				return false
			}
		}
		return true
	}
	return p.keyInto(c.coords, s, next)
}

// keyInto resolves a key against one real node. Sequences pass the key
// through to each element so array-of-hash records can be addressed by
// their member keys.
func (p *Processor) keyInto(nc NodeCoords, s KeySegment, next func(NodeCoords) bool) bool {
	node := deref(nc.Node)
	if node == nil {
		return true
	}
	switch node.Kind() {
	case KindMapping:
		child, ok := node.Get(s.Name)
		if !ok {
			return true
		}
		return next(NodeCoords{
			Node: child, Parent: node, Key: s.Name, Index: -1,
			Path: childPath(nc.Path, s.Name),
		})
	case KindSequence:
		if idx, err := strconv.Atoi(s.Name); err == nil {
			return p.seqIndex(nc, node, idx, next)
		}
		for i := 0; i < node.Len(); i++ {
			elem := NodeCoords{
				Node: node.Child(i), Parent: node, Index: i,
				Path: indexPath(nc.Path, i),
			}
			if !p.keyInto(elem, s, next) {
				return false
			}
		}
		return true
	default:
		p.logger.Debug("cannot key into a scalar", "key", s.Name, "at", nc.Path)
		return true
	}
}

func (p *Processor) seqIndex(nc NodeCoords, seq Node, idx int, next func(NodeCoords) bool) bool {
	i := idx
	if i < 0 {
		i += seq.Len()
	}
	if i < 0 || i >= seq.Len() {
		return true
	}
	return next(NodeCoords{
		Node: seq.Child(i), Parent: seq, Index: i,
		Path: indexPath(nc.Path, i),
	})
}

func (p *Processor) listIndex(list []NodeCoords, idx int, next func(NodeCoords) bool) bool {
	i := idx
	if i < 0 {
		i += len(list)
	}
	if i < 0 || i >= len(list) {
		return true
	}
	return next(list[i])
}

func (p *Processor) evalIndex(c candidate, s IndexSegment, next func(NodeCoords) bool) bool {
	if c.list != nil {
		return p.listIndex(c.list, s.Index, next)
	}
	node := deref(c.coords.Node)
	if node == nil {
		return true
	}
	switch node.Kind() {
	case KindSequence:
		return p.seqIndex(c.coords, node, s.Index, next)
	case KindMapping:
		// An integer segment can still address a mapping whose key is the
		// decimal text of the index.
		key := strconv.Itoa(s.Index)
		child, ok := node.Get(key)
		if !ok {
			return true
		}
		return next(NodeCoords{
			Node: child, Parent: node, Key: key, Index: -1,
			Path: childPath(c.coords.Path, key),
		})
	default:
		p.logger.Debug("cannot index into a scalar", "index", s.Index, "at", c.coords.Path)
		return true
	}
}

func (p *Processor) evalSlice(c candidate, s SliceSegment, next func(NodeCoords) bool) bool {
	if c.list != nil {
		low, high, ok := s.intBounds(len(c.list))
		if !ok {
			p.logger.Warn("non-integer slice over a collector result", "slice", s.String())
			return true
		}
		for i := low; i < high; i++ {
			if !next(c.list[i]) {
				return false
			}
		}
		return true
	}

	node := deref(c.coords.Node)
	if node == nil {
		return true
	}
	switch node.Kind() {
	case KindSequence:
		low, high, ok := s.intBounds(node.Len())
		if !ok {
			p.logger.Warn("non-integer slice over a sequence",
				"slice", s.String(), "at", c.coords.Path)
			return true
		}
		for i := low; i < high; i++ {
			if !next(NodeCoords{
				Node: node.Child(i), Parent: node, Index: i,
				Path: indexPath(c.coords.Path, i),
			}) {
				return false
			}
		}
		return true
	case KindMapping:
		// Key slices are inclusive and honor document order.
		for i := 0; i < node.Len(); i++ {
			key := node.Key(i).Value()
			if s.Low <= key && key <= s.High {
				if !next(NodeCoords{
					Node: node.Child(i), Parent: node, Key: key, Index: -1,
					Path: childPath(c.coords.Path, key),
				}) {
					return false
				}
			}
		}
		return true
	default:
		p.logger.Debug("cannot slice a scalar", "slice", s.String(), "at", c.coords.Path)
		return true
	}
}

func (p *Processor) evalWildcard(c candidate, next func(NodeCoords) bool) bool {
	if c.list != nil {
		for _, nc := range c.list {
			if !next(nc) {
				return false
			}
		}
		return true
	}

	node := deref(c.coords.Node)
	if node == nil {
		return next(c.coords)
	}
	switch node.Kind() {
	case KindMapping:
		for i := 0; i < node.Len(); i++ {
			key := node.Key(i).Value()
			if !next(NodeCoords{
				Node: node.Child(i), Parent: node, Key: key, Index: -1,
				Path: childPath(c.coords.Path, key),
			}) {
				return false
			}
		}
		return true
	case KindSequence:
		for i := 0; i < node.Len(); i++ {
			if !next(NodeCoords{
				Node: node.Child(i), Parent: node, Index: i,
				Path: indexPath(c.coords.Path, i),
			}) {
				return false
			}
		}
		return true
	default:
		return next(c.coords)
	}
}

func (p *Processor) evalAnchor(c candidate, s AnchorSegment, next func(NodeCoords) bool) bool {
	if c.list != nil {
		for _, nc := range c.list {
			if anchorOf(nc.Node) == s.Name {
				if !next(nc) {
					return false
				}
			}
		}
		return true
	}

	node := deref(c.coords.Node)
	if node == nil {
		return true
	}
	switch node.Kind() {
	case KindSequence:
		for i := 0; i < node.Len(); i++ {
			if anchorOf(node.Child(i)) == s.Name {
				if !next(NodeCoords{
					Node: node.Child(i), Parent: node, Index: i,
					Path: anchorPath(c.coords.Path, s.Name),
				}) {
					return false
				}
			}
		}
		return true
	case KindMapping:
		for i := 0; i < node.Len(); i++ {
			key := node.Key(i)
			if anchorOf(key) == s.Name || anchorOf(node.Child(i)) == s.Name {
				if !next(NodeCoords{
					Node: node.Child(i), Parent: node, Key: key.Value(), Index: -1,
					Path: anchorPath(c.coords.Path, s.Name),
				}) {
					return false
				}
			}
		}
		return true
	default:
		return true
	}
}

func (p *Processor) evalSearch(c candidate, s SearchSegment, next func(NodeCoords) bool) bool {
	t := s.Term

	if c.list != nil {
		for _, nc := range c.list {
			ok, err := p.termMatchesNode(t, nc.Node)
			if err != nil {
				p.logger.Warn("search failed", "term", t.String(), "error", err)
				return true
			}
			if ok && !next(nc) {
				return false
			}
		}
		return true
	}

	node := deref(c.coords.Node)
	if node == nil {
		return true
	}
	switch node.Kind() {
	case KindMapping:
		for i := 0; i < node.Len(); i++ {
			key := node.Key(i).Value()
			child := node.Child(i)

			var raw bool
			var err error
			if t.Scope == ScopeKey {
				raw, err = t.matches(key)
			} else {
				raw, err = p.subPathMatches(t, child)
				if name := singleKeyOperand(t.SubPath); err == nil && !raw && name != "" && name == key {
					// A flat mapping: the operand names this pair's key,
					// so compare its value directly.
					raw, err = p.rawMatchesNode(t, child)
				}
			}
			if err != nil {
				p.logger.Warn("search failed", "term", t.String(), "error", err)
				return true
			}
			if raw != t.Inverted {
				if !next(NodeCoords{
					Node: child, Parent: node, Key: key, Index: -1,
					Path: childPath(c.coords.Path, key),
				}) {
					return false
				}
			}
		}
		return true

	case KindSequence:
		for i := 0; i < node.Len(); i++ {
			child := node.Child(i)

			var raw bool
			var err error
			if t.Scope == ScopeKey {
				raw, err = p.rawMatchesNode(t, child)
			} else {
				raw, err = p.subPathMatches(t, child)
			}
			if err != nil {
				p.logger.Warn("search failed", "term", t.String(), "error", err)
				return true
			}
			if raw != t.Inverted {
				if !next(NodeCoords{
					Node: child, Parent: node, Index: i,
					Path: indexPath(c.coords.Path, i),
				}) {
					return false
				}
			}
		}
		return true

	default:
		var raw bool
		var err error
		if t.Scope == ScopeKey {
			raw, err = t.matches(node.Value())
		} else {
			raw, err = p.subPathMatches(t, node)
		}
		if err != nil {
			p.logger.Warn("search failed", "term", t.String(), "error", err)
			return true
		}
		if raw != t.Inverted {
			return next(c.coords)
		}
		return true
	}
}

// singleKeyOperand returns the key name when a search operand is a single
// literal key, or "" otherwise.
func singleKeyOperand(sub *YAMLPath) string {
	if sub == nil || len(sub.segments) != 1 {
		return ""
	}
	if k, ok := sub.segments[0].(KeySegment); ok {
		return k.Name
	}
	return ""
}

// rawMatchesNode compares a node's scalar value against the term, before
// inversion. Containers never match a plain value comparison.
func (p *Processor) rawMatchesNode(t *SearchTerm, n Node) (bool, error) {
	n = deref(n)
	if n == nil || n.Kind() != KindScalar {
		return false, nil
	}
	return t.matches(n.Value())
}

// termMatchesNode applies the full term, inversion included, to one node.
func (p *Processor) termMatchesNode(t *SearchTerm, n Node) (bool, error) {
	var raw bool
	var err error
	if t.Scope == ScopeKey {
		raw, err = p.rawMatchesNode(t, n)
	} else {
		raw, err = p.subPathMatches(t, n)
	}
	if err != nil {
		return false, err
	}
	return raw != t.Inverted, nil
}

// subPathMatches resolves the term's sub-path relative to n and reports
// whether any resolved scalar satisfies the comparison. The outer cursor
// never moves: the caller yields the candidate, not the resolved node.
func (p *Processor) subPathMatches(t *SearchTerm, n Node) (bool, error) {
	n = deref(n)
	if n == nil || t.SubPath == nil {
		return false, nil
	}

	matched := false
	var matchErr error
	p.walk(rootCandidate(n), t.SubPath, t.SubPath.segments, func(nc NodeCoords) bool {
		resolved := deref(nc.Node)
		if resolved == nil || resolved.Kind() != KindScalar {
			return true
		}
		ok, err := t.matches(resolved.Value())
		if err != nil {
			matchErr = err
			return false
		}
		if ok {
			matched = true
			return false
		}
		return true
	})
	return matched, matchErr
}

func (p *Processor) evalTraversal(c candidate, path *YAMLPath, rest []Segment, yield func(NodeCoords) bool) bool {
	visited := make(map[string]bool)
	if c.list != nil {
		for _, nc := range c.list {
			if !p.traverse(nc, path, rest, visited, yield) {
				return false
			}
		}
		return true
	}
	return p.traverse(c.coords, path, rest, visited, yield)
}

// traverse descends depth-first, pre-order. With no remaining segments it
// yields every scalar leaf; otherwise it attempts the remaining sub-path at
// every visited node. Anchored subtrees are visited once per traversal so
// shared anchors are not re-expanded through each alias.
func (p *Processor) traverse(nc NodeCoords, path *YAMLPath, rest []Segment, visited map[string]bool, yield func(NodeCoords) bool) bool {
	node := deref(nc.Node)
	if node == nil {
		if len(rest) == 0 {
			return yield(nc)
		}
		return true
	}

	if name := node.Anchor(); name != "" {
		if visited[name] {
			return true
		}
		visited[name] = true
	}

	if len(rest) > 0 {
		if !p.walk(candidate{coords: nc}, path, rest, yield) {
			return false
		}
	} else if node.Kind() == KindScalar {
		return yield(nc)
	}

	switch node.Kind() {
	case KindMapping:
		for i := 0; i < node.Len(); i++ {
			child := NodeCoords{
				Node: node.Child(i), Parent: node, Key: node.Key(i).Value(), Index: -1,
				Path: childPath(nc.Path, node.Key(i).Value()),
			}
			if !p.traverse(child, path, rest, visited, yield) {
				return false
			}
		}
	case KindSequence:
		for i := 0; i < node.Len(); i++ {
			child := NodeCoords{
				Node: node.Child(i), Parent: node, Index: i,
				Path: indexPath(nc.Path, i),
			}
			if !p.traverse(child, path, rest, visited, yield) {
				return false
			}
		}
	}
	return true
}

// DeleteNodes removes every node matching path from its parent and returns
// the coordinates that were removed.
func (p *Processor) DeleteNodes(path *YAMLPath) ([]NodeCoords, error) {
	if p.doc == nil || p.doc.Root() == nil {
		return nil, ErrNoDocument
	}
	gathered := p.gatherAll(path)
	p.DeleteGatheredNodes(gathered)
	return gathered, nil
}

// DeleteGatheredNodes removes a previously gathered batch. Indices within
// any one sequence parent are processed in descending order so earlier
// removals never shift the positions of coordinates still pending in the
// same batch.
func (p *Processor) DeleteGatheredNodes(coords []NodeCoords) {
	var seqParents []Node
	seqIdx := make(map[Node][]int)

	for _, nc := range coords {
		if nc.Parent == nil {
			p.logger.Warn("cannot delete the document root", "path", nc.Path)
			continue
		}
		switch nc.Parent.Kind() {
		case KindMapping:
			nc.Parent.DeleteKey(nc.Key)
		case KindSequence:
			if _, seen := seqIdx[nc.Parent]; !seen {
				seqParents = append(seqParents, nc.Parent)
			}
			seqIdx[nc.Parent] = append(seqIdx[nc.Parent], nc.Index)
		}
	}

	for _, parent := range seqParents {
		indices := seqIdx[parent]
		slices.SortFunc(indices, func(a, b int) int { return b - a })
		prev := -1
		for _, i := range indices {
			if i == prev {
				continue
			}
			prev = i
			if i >= 0 && i < parent.Len() {
				parent.DeleteAt(i)
			}
		}
	}
}
