package yamlpath

import (
	"fmt"
	"strings"
)

// collect evaluates a collector sub-query against the candidate as a virtual
// root, then folds any directly following +/- collectors into the result.
// It returns the combined virtual list and the segments left after the chain.
func (p *Processor) collect(c candidate, s CollectorSegment, rest []Segment) ([]NodeCoords, []Segment, error) {
	results := flattenSingleSequence(p.gather(c, s.SubPath))

	for len(rest) > 0 {
		peek, ok := rest[0].(CollectorSegment)
		if !ok {
			break
		}
		if peek.Op == CollectorNone {
			return nil, rest, fmt.Errorf(
				"adjoining collectors have no meaning; combine them with + or -")
		}

		operand := flattenSequences(p.gather(c, peek.SubPath))
		switch peek.Op {
		case CollectorAddition:
			results = unionCoords(results, operand)
		case CollectorSubtraction:
			results = subtractCoords(results, operand)
		}
		rest = rest[1:]
	}

	return results, rest, nil
}

// gather runs a sub-path to exhaustion against one candidate.
func (p *Processor) gather(c candidate, sub *YAMLPath) []NodeCoords {
	if sub == nil {
		return nil
	}
	var out []NodeCoords
	p.walk(c, sub, sub.segments, func(nc NodeCoords) bool {
		out = append(out, nc)
		return true
	})
	return out
}

// flattenSingleSequence unwraps a lone sequence result into per-element
// coordinates. Without this, every collector over a list would need a
// trailing [0] to get at its elements.
func flattenSingleSequence(coords []NodeCoords) []NodeCoords {
	if len(coords) != 1 {
		return coords
	}
	node := deref(coords[0].Node)
	if node == nil || node.Kind() != KindSequence {
		return coords
	}
	return explode(coords[0], node)
}

// flattenSequences unwraps every sequence result into its elements; used for
// combinator operands so +/- always work over individual values.
func flattenSequences(coords []NodeCoords) []NodeCoords {
	out := make([]NodeCoords, 0, len(coords))
	for _, nc := range coords {
		node := deref(nc.Node)
		if node != nil && node.Kind() == KindSequence {
			out = append(out, explode(nc, node)...)
			continue
		}
		out = append(out, nc)
	}
	return out
}

func explode(nc NodeCoords, seq Node) []NodeCoords {
	out := make([]NodeCoords, 0, seq.Len())
	for i := 0; i < seq.Len(); i++ {
		out = append(out, NodeCoords{
			Node:   seq.Child(i),
			Parent: seq,
			Index:  i,
			Path:   indexPath(nc.Path, i),
		})
	}
	return out
}

// unionCoords keeps left's order, then appends right elements whose value is
// not already present.
func unionCoords(left, right []NodeCoords) []NodeCoords {
	seen := make(map[string]struct{}, len(left)+len(right))
	out := make([]NodeCoords, 0, len(left)+len(right))
	for _, nc := range left {
		key := canonicalKey(nc.Node)
		if _, dup := seen[key]; dup {
			out = append(out, nc)
			continue
		}
		seen[key] = struct{}{}
		out = append(out, nc)
	}
	for _, nc := range right {
		key := canonicalKey(nc.Node)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, nc)
	}
	return out
}

// subtractCoords removes from left every element whose value appears in
// right, preserving left's order.
func subtractCoords(left, right []NodeCoords) []NodeCoords {
	remove := make(map[string]struct{}, len(right))
	for _, nc := range right {
		remove[canonicalKey(nc.Node)] = struct{}{}
	}
	out := make([]NodeCoords, 0, len(left))
	for _, nc := range left {
		if _, drop := remove[canonicalKey(nc.Node)]; drop {
			continue
		}
		out = append(out, nc)
	}
	return out
}

// canonicalKey renders a node's value as a string usable as a set key, so
// union and difference run in linear time instead of pairwise comparison.
func canonicalKey(n Node) string {
	n = deref(n)
	if n == nil {
		return "~"
	}
	switch n.Kind() {
	case KindScalar:
		return "s:" + n.Tag() + ":" + n.Value()
	case KindSequence:
		var b strings.Builder
		b.WriteString("l:[")
		for i := 0; i < n.Len(); i++ {
			b.WriteString(canonicalKey(n.Child(i)))
			b.WriteByte(',')
		}
		b.WriteByte(']')
		return b.String()
	case KindMapping:
		var b strings.Builder
		b.WriteString("m:{")
		for i := 0; i < n.Len(); i++ {
			b.WriteString(canonicalKey(n.Key(i)))
			b.WriteByte('=')
			b.WriteString(canonicalKey(n.Child(i)))
			b.WriteByte(',')
		}
		b.WriteByte('}')
		return b.String()
	default:
		return "?"
	}
}
