package yamlpath_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamlpath-go/yamlpath"
)

const collectorDoc = `
a: [1, 2, 3]
b: [2]
c: [3, 4]
`

func TestCollectorGather(t *testing.T) {
	p := newProcessor(t, collectorDoc)

	tests := []struct {
		expr string
		want []string
	}{
		{"(a)", []string{"1", "2", "3"}}, // a lone sequence result is flattened
		{"(a)+(b)", []string{"1", "2", "3"}},
		{"(a)+(c)", []string{"1", "2", "3", "4"}},
		{"(a)-(b)", []string{"1", "3"}},
		{"(a)-(b)-(c)", []string{"1"}},
		{"(a)+(c)-(b)", []string{"1", "3", "4"}},
		{"(missing)", nil},
		{"(missing)+(b)", []string{"2"}},
	}

	for _, tc := range tests {
		t.Run(tc.expr, func(t *testing.T) {
			assert.Equal(t, tc.want, scalarValuesOrNil(getAll(t, p, tc.expr)))
		})
	}
}

func TestCollectorUnionDeduplicatesByValue(t *testing.T) {
	p := newProcessor(t, collectorDoc)

	coords := getAll(t, p, "(a)+(b)")
	assert.Len(t, coords, 3, "2 appears in both operands but is collected once")
}

func TestCollectorIndexesIntoVirtualList(t *testing.T) {
	p := newProcessor(t, `
x: [10, 20]
y: [30]
`)

	assert.Equal(t, []string{"10"}, scalarValues(getAll(t, p, "(x)+(y)[0]")))
	assert.Equal(t, []string{"30"}, scalarValues(getAll(t, p, "(x)+(y)[-1]")))
	assert.Equal(t, []string{"20", "30"}, scalarValues(getAll(t, p, "(x)+(y)[1:3]")))
	assert.Equal(t, []string{"10", "20"}, scalarValues(getAll(t, p, "(x)+(y)[0:-1]")))
}

func TestCollectorRelativeToCursor(t *testing.T) {
	p := newProcessor(t, `
items:
  - name: one
    n: 1
  - name: two
    n: 2
`)

	coords := getAll(t, p, "items.*.(name)+(n)")
	assert.Equal(t, []string{"one", "1", "two", "2"}, scalarValues(coords),
		"the sub-path resolves against each cursor node in turn")
}

func TestCollectorSearchOverVirtualList(t *testing.T) {
	p := newProcessor(t, collectorDoc)

	coords := getAll(t, p, "(a)+(c)[.>2]")
	assert.Equal(t, []string{"3", "4"}, scalarValues(coords))
}

func TestCollectorAdjoiningWithoutOperator(t *testing.T) {
	p := newProcessor(t, collectorDoc)

	seq, err := p.Get("(a)(b)")
	require.NoError(t, err, "the expression parses; the misuse surfaces during evaluation")
	var coords []yamlpath.NodeCoords
	for nc := range seq {
		coords = append(coords, nc)
	}
	assert.Empty(t, coords)
}

func TestCollectorWriteThroughMatches(t *testing.T) {
	p := newProcessor(t, collectorDoc)

	require.NoError(t, p.SetNodes(mustPath(t, "(a)-(b)"), "9", yamlpath.SetOptions{}))

	assert.Equal(t, []string{"9", "2", "9"}, scalarValues(getAll(t, p, "a.*")),
		"collected coordinates point at the real document nodes")
}

func TestCollectorWriteCannotCreate(t *testing.T) {
	p := newProcessor(t, collectorDoc)

	err := p.SetNodes(mustPath(t, "(missing)"), "9", yamlpath.SetOptions{})
	assert.ErrorIs(t, err, yamlpath.ErrMutationConflict)

	err = p.SetNodes(mustPath(t, "(a).extra"), "9", yamlpath.SetOptions{})
	assert.ErrorIs(t, err, yamlpath.ErrMutationConflict,
		"a virtual list has no document position to create under")
}
