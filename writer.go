package yamlpath

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// SetOptions controls how SetNodes writes a value.
type SetOptions struct {
	// Format types and styles the written scalar. FormatDefault infers the
	// tag from the value text and keeps the target's presentation.
	Format ValueFormat

	// Tag overrides the written node's YAML tag.
	Tag string

	// Anchor assigns (or renames to) this anchor name on the written node.
	Anchor string

	// AliasOf replaces each target with an alias of the node anchored
	// under this name instead of writing a scalar.
	AliasOf string

	// MustExist fails the write with ErrNotExist instead of auto-creating
	// missing nodes.
	MustExist bool
}

// splice is one pending attachment of a detached subtree. Nothing is spliced
// until the whole write has been resolved, so a failed write leaves the
// document untouched.
type splice struct {
	mapping Node
	key     string

	seq   Node
	index int // -1 appends; otherwise the sequence is padded with nulls

	node Node
}

func (sp splice) apply(doc Document) {
	if sp.mapping != nil {
		sp.mapping.Set(sp.key, sp.node)
		return
	}
	if sp.index < 0 {
		sp.seq.Append(sp.node)
		return
	}
	for sp.seq.Len() < sp.index {
		sp.seq.Append(doc.Scalar("~"))
	}
	if sp.seq.Len() == sp.index {
		sp.seq.Append(sp.node)
	} else {
		sp.seq.SetChild(sp.index, sp.node)
	}
}

type writePlan struct {
	splices  []splice
	conflict error
}

// soft records a branch that could not match or create, without failing the
// write outright; the write fails only if no branch produced a target.
func (w *writePlan) soft(path *YAMLPath, seg Segment) {
	if w.conflict == nil {
		w.conflict = &MutationConflictError{Path: path.Original(), Segment: seg}
	}
}

// SetNodes assigns value to every node matching path, auto-creating missing
// nodes when the remaining segments are all literal keys or indices.
// Creation is atomic: subtrees are built detached and spliced only after the
// whole path has resolved, so any failure leaves the document unchanged.
func (p *Processor) SetNodes(path *YAMLPath, value string, opts SetOptions) error {
	if p.doc == nil || p.doc.Root() == nil {
		return ErrNoDocument
	}
	if path == nil {
		return fmt.Errorf("%w: nil path", ErrNotExist)
	}

	coerced, err := coerceValue(value, opts.Format)
	if err != nil {
		return err
	}

	var aliasTarget Node
	if opts.AliasOf != "" {
		aliasTarget = p.findAnchor(opts.AliasOf)
		if aliasTarget == nil {
			return fmt.Errorf("%w: %q", ErrAnchorNotFound, opts.AliasOf)
		}
	}

	if opts.MustExist {
		targets, err := p.RequireNodes(path)
		if err != nil {
			return err
		}
		if err := p.preflight(targets, path, aliasTarget); err != nil {
			return err
		}
		for _, nc := range targets {
			p.assign(nc, coerced, opts, aliasTarget)
		}
		return nil
	}

	leaf := func() Node {
		if aliasTarget != nil {
			return p.doc.AliasTo(aliasTarget)
		}
		return p.newScalar(coerced, nil, opts)
	}

	plan := &writePlan{}
	targets, err := p.ensure(rootCandidate(p.doc.Root()), path, path.segments, plan, leaf)
	if err != nil {
		return err
	}
	if len(targets) == 0 && len(plan.splices) == 0 {
		if plan.conflict != nil {
			return plan.conflict
		}
		return &MutationConflictError{Path: path.Original()}
	}
	if err := p.preflight(targets, path, aliasTarget); err != nil {
		return err
	}

	for _, sp := range plan.splices {
		sp.apply(p.doc)
	}
	for _, nc := range targets {
		p.assign(nc, coerced, opts, aliasTarget)
	}
	return nil
}

// ensure resolves path segments like walk does, but additionally plans the
// creation of missing nodes wherever the remaining segments are
// deterministic. It returns pre-existing targets; planned leaves already
// carry the value.
func (p *Processor) ensure(c candidate, path *YAMLPath, segs []Segment, plan *writePlan, leaf func() Node) ([]NodeCoords, error) {
	if len(segs) == 0 {
		if c.list != nil {
			return slices.Clone(c.list), nil
		}
		return []NodeCoords{c.coords}, nil
	}

	seg := segs[0]
	rest := segs[1:]

	switch s := seg.(type) {
	case TraversalSegment:
		// Creation through a traversal is never allowed; only existing
		// matches are writable.
		matches := p.collectFrom(c, path, segs)
		if len(matches) == 0 {
			plan.soft(path, seg)
		}
		return matches, nil

	case CollectorSegment:
		if s.Op != CollectorNone {
			return nil, &MutationConflictError{Path: path.Original(), Segment: seg}
		}
		list, remaining, err := p.collect(c, s, rest)
		if err != nil {
			return nil, fmt.Errorf("evaluating collector in %q: %v", path.Original(), err)
		}
		if len(list) == 0 {
			plan.soft(path, seg)
			return nil, nil
		}
		return p.ensureEach([]candidate{{list: list}}, path, remaining, plan, leaf)

	case AnchorSegment:
		cands := p.segmentCandidates(c, s)
		if len(cands) > 0 {
			return p.ensureEach(cands, path, rest, plan, leaf)
		}
		node := deref(c.coords.Node)
		if c.list == nil && node != nil && node.Kind() == KindSequence {
			// Appending through an anchor names the new element.
			if err := requireDeterministic(path, rest); err != nil {
				return nil, err
			}
			elem := buildChain(p.doc, rest, leaf())
			elem.SetAnchor(s.Name)
			plan.splices = append(plan.splices, splice{seq: node, index: -1, node: elem})
			return nil, nil
		}
		return nil, &MutationConflictError{Path: path.Original(), Segment: seg}

	case KeySegment:
		cands := p.segmentCandidates(c, s)
		if len(cands) > 0 {
			return p.ensureEach(cands, path, rest, plan, leaf)
		}
		return nil, p.planKey(c, path, s, rest, plan, leaf)

	case IndexSegment:
		cands := p.segmentCandidates(c, s)
		if len(cands) > 0 {
			return p.ensureEach(cands, path, rest, plan, leaf)
		}
		return nil, p.planIndex(c, path, s, rest, plan, leaf)

	default: // wildcard, search, slice
		cands := p.segmentCandidates(c, seg)
		if len(cands) == 0 {
			plan.soft(path, seg)
			return nil, nil
		}
		return p.ensureEach(cands, path, rest, plan, leaf)
	}
}

func (p *Processor) ensureEach(cands []candidate, path *YAMLPath, segs []Segment, plan *writePlan, leaf func() Node) ([]NodeCoords, error) {
	var out []NodeCoords
	for _, cand := range cands {
		found, err := p.ensure(cand, path, segs, plan, leaf)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

func (p *Processor) planKey(c candidate, path *YAMLPath, s KeySegment, rest []Segment, plan *writePlan, leaf func() Node) error {
	if c.list != nil {
		return &MutationConflictError{Path: path.Original(), Segment: s}
	}
	node := deref(c.coords.Node)
	if node == nil {
		return &MutationConflictError{Path: path.Original(), Segment: s}
	}

	switch node.Kind() {
	case KindMapping:
		if err := requireDeterministic(path, rest); err != nil {
			return err
		}
		plan.splices = append(plan.splices, splice{
			mapping: node, key: s.Name, node: buildChain(p.doc, rest, leaf()),
		})
		return nil
	case KindSequence:
		idx, err := strconv.Atoi(s.Name)
		if err != nil {
			return &MutationConflictError{Path: path.Original(), Segment: s}
		}
		return p.planSeqIndex(node, idx, path, s, rest, plan, leaf)
	default:
		return &MutationConflictError{Path: path.Original(), Segment: s}
	}
}

func (p *Processor) planIndex(c candidate, path *YAMLPath, s IndexSegment, rest []Segment, plan *writePlan, leaf func() Node) error {
	if c.list != nil {
		return &MutationConflictError{Path: path.Original(), Segment: s}
	}
	node := deref(c.coords.Node)
	if node == nil || node.Kind() != KindSequence {
		return &MutationConflictError{Path: path.Original(), Segment: s}
	}
	return p.planSeqIndex(node, s.Index, path, s, rest, plan, leaf)
}

func (p *Processor) planSeqIndex(seq Node, idx int, path *YAMLPath, seg Segment, rest []Segment, plan *writePlan, leaf func() Node) error {
	if idx < 0 {
		return &MutationConflictError{Path: path.Original(), Segment: seg}
	}
	if err := requireDeterministic(path, rest); err != nil {
		return err
	}
	plan.splices = append(plan.splices, splice{
		seq: seq, index: idx, node: buildChain(p.doc, rest, leaf()),
	})
	return nil
}

func requireDeterministic(path *YAMLPath, segs []Segment) error {
	for _, s := range segs {
		if !s.deterministic() {
			return &MutationConflictError{Path: path.Original(), Segment: s}
		}
	}
	return nil
}

// buildChain builds the detached subtree for the remaining deterministic
// segments, ending in leaf. Keys become mappings, indices become sequences
// padded with nulls.
func buildChain(doc Document, segs []Segment, leaf Node) Node {
	if len(segs) == 0 {
		return leaf
	}
	switch s := segs[0].(type) {
	case KeySegment:
		m := doc.Mapping()
		m.Set(s.Name, buildChain(doc, segs[1:], leaf))
		return m
	case IndexSegment:
		seq := doc.Sequence()
		for i := 0; i < s.Index; i++ {
			seq.Append(doc.Scalar("~"))
		}
		seq.Append(buildChain(doc, segs[1:], leaf))
		return seq
	}
	return leaf
}

func (p *Processor) collectFrom(c candidate, path *YAMLPath, segs []Segment) []NodeCoords {
	var out []NodeCoords
	p.walk(c, path, segs, func(nc NodeCoords) bool {
		out = append(out, nc)
		return true
	})
	return out
}

func (p *Processor) segmentCandidates(c candidate, seg Segment) []candidate {
	var out []candidate
	sink := func(nc NodeCoords) bool {
		out = append(out, candidate{coords: nc})
		return true
	}
	switch s := seg.(type) {
	case KeySegment:
		p.evalKey(c, s, sink)
	case IndexSegment:
		p.evalIndex(c, s, sink)
	case SliceSegment:
		p.evalSlice(c, s, sink)
	case WildcardSegment:
		p.evalWildcard(c, sink)
	case AnchorSegment:
		p.evalAnchor(c, s, sink)
	case SearchSegment:
		p.evalSearch(c, s, sink)
	}
	return out
}

// preflight rejects targets that cannot be written before anything mutates.
// Only a scalar document root can be assigned in place; container roots and
// alias writes need a parent to splice into.
func (p *Processor) preflight(targets []NodeCoords, path *YAMLPath, aliasTarget Node) error {
	for _, nc := range targets {
		if nc.Parent != nil {
			continue
		}
		node := nc.Node
		if aliasTarget != nil || node == nil || node.Kind() != KindScalar {
			return &MutationConflictError{Path: path.Original()}
		}
	}
	return nil
}

// assign writes one pre-validated target. Mutation keys off the coordinate's
// parent and reference, never off value equality, so equal-valued scalars
// elsewhere in the document are untouched.
func (p *Processor) assign(nc NodeCoords, value string, opts SetOptions, aliasTarget Node) {
	if aliasTarget != nil {
		p.replaceAt(nc, p.doc.AliasTo(aliasTarget))
		return
	}

	node := nc.Node
	if node == nil {
		return
	}

	switch node.Kind() {
	case KindAlias:
		// Replace only this alias site. The anchored target and every
		// other site keep their value.
		p.replaceAt(nc, p.newScalar(value, deref(node), opts))

	case KindScalar:
		// In-place update: anchors stay attached, so every alias of this
		// node observes the new value.
		node.SetValue(value)
		if st := opts.Format.style(); st != StyleAny {
			node.SetStyle(st)
		}
		p.retag(node, value, opts)
		if opts.Anchor != "" {
			node.SetAnchor(opts.Anchor)
		}

	default:
		repl := p.newScalar(value, nil, opts)
		if opts.Anchor == "" && node.Anchor() != "" {
			repl.SetAnchor(node.Anchor())
		}
		p.replaceAt(nc, repl)
	}
}

func (p *Processor) replaceAt(nc NodeCoords, repl Node) {
	if nc.Parent == nil {
		return
	}
	switch nc.Parent.Kind() {
	case KindMapping:
		nc.Parent.Set(nc.Key, repl)
	case KindSequence:
		nc.Parent.SetChild(nc.Index, repl)
	}
}

// newScalar builds a typed, styled scalar for opts, borrowing presentation
// from styleFrom when the format has no opinion.
func (p *Processor) newScalar(value string, styleFrom Node, opts SetOptions) Node {
	n := p.doc.Scalar(value)
	if t := opts.Format.tag(); t != "" {
		n.SetTag(t)
	}
	if opts.Tag != "" {
		n.SetTag(opts.Tag)
	}
	if st := opts.Format.style(); st != StyleAny {
		n.SetStyle(st)
	} else if styleFrom != nil && styleFrom.Kind() == KindScalar {
		n.SetStyle(styleFrom.Style())
	}
	if opts.Anchor != "" {
		n.SetAnchor(opts.Anchor)
	}
	return n
}

func (p *Processor) retag(node Node, value string, opts SetOptions) {
	switch {
	case opts.Tag != "":
		node.SetTag(opts.Tag)
	case opts.Format.tag() != "":
		node.SetTag(opts.Format.tag())
	case strings.HasPrefix(node.Tag(), "!!"):
		// Standard tags track the value; custom tags are preserved.
		node.SetTag(p.doc.Scalar(value).Tag())
	}
}

// findAnchor locates the node carrying the given anchor name.
func (p *Processor) findAnchor(name string) Node {
	var find func(n Node) Node
	find = func(n Node) Node {
		if n == nil || n.Kind() == KindAlias {
			return nil
		}
		if n.Anchor() == name {
			return n
		}
		switch n.Kind() {
		case KindMapping:
			for i := 0; i < n.Len(); i++ {
				if f := find(n.Key(i)); f != nil {
					return f
				}
				if f := find(n.Child(i)); f != nil {
					return f
				}
			}
		case KindSequence:
			for i := 0; i < n.Len(); i++ {
				if f := find(n.Child(i)); f != nil {
					return f
				}
			}
		}
		return nil
	}
	return find(p.doc.Root())
}
