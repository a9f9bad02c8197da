package aggregate_test

import (
	"testing"

	"github.com/dailit/dailit-server/internal/aggregate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ref(id string, parent *string) aggregate.AccountRef {
	return aggregate.AccountRef{ID: id, Name: "user " + id, Email: id + "@example.com", ParentAccountID: parent}
}

func childIDs(n aggregate.ParentAccountNode) []string {
	ids := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestBuildHierarchyDropsDanglingParent(t *testing.T) {
	users := []aggregate.AccountRef{
		ref("A", nil),
		ref("B", strPtr("A")),
		ref("C", strPtr("A")),
		ref("D", strPtr("Z")),
	}

	nodes := aggregate.BuildHierarchy(users, aggregate.HierarchyOptions{})

	require.Len(t, nodes, 1)
	assert.Equal(t, "A", nodes[0].ID)
	assert.Equal(t, 2, nodes[0].ChildCount)
	assert.Equal(t, []string{"B", "C"}, childIDs(nodes[0]))
}

func TestBuildHierarchyDropsGrandchildrenByDefault(t *testing.T) {
	users := []aggregate.AccountRef{
		ref("A", nil),
		ref("B", strPtr("A")),
		ref("C", strPtr("B")),
	}

	nodes := aggregate.BuildHierarchy(users, aggregate.HierarchyOptions{})

	require.Len(t, nodes, 1)
	assert.Equal(t, []string{"B"}, childIDs(nodes[0]))
}

func TestBuildHierarchyReparentsChains(t *testing.T) {
	users := []aggregate.AccountRef{
		ref("A", nil),
		ref("B", strPtr("A")),
		ref("C", strPtr("B")),
		ref("D", strPtr("C")),
		ref("E", strPtr("Z")),
	}

	nodes := aggregate.BuildHierarchy(users, aggregate.HierarchyOptions{ReparentOrphans: true})

	require.Len(t, nodes, 1)
	assert.Equal(t, 3, nodes[0].ChildCount)
	assert.Equal(t, []string{"B", "C", "D"}, childIDs(nodes[0]))
}

func TestBuildHierarchyCycleIsDropped(t *testing.T) {
	users := []aggregate.AccountRef{
		ref("A", nil),
		ref("X", strPtr("Y")),
		ref("Y", strPtr("X")),
		ref("S", strPtr("S")),
	}

	for _, opts := range []aggregate.HierarchyOptions{{}, {ReparentOrphans: true}} {
		nodes := aggregate.BuildHierarchy(users, opts)
		require.Len(t, nodes, 1)
		assert.Equal(t, 0, nodes[0].ChildCount)
		assert.NotNil(t, nodes[0].Children)
	}
}

func TestBuildHierarchyOrdering(t *testing.T) {
	users := []aggregate.AccountRef{
		ref("solo", nil),
		ref("first", nil),
		ref("big", nil),
		ref("second", nil),
		ref("b1", strPtr("big")),
		ref("b2", strPtr("big")),
		ref("f1", strPtr("first")),
		ref("s1", strPtr("second")),
	}

	nodes := aggregate.BuildHierarchy(users, aggregate.HierarchyOptions{})

	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"big", "first", "second", "solo"}, ids)
}

func TestBuildHierarchyChildCountInvariant(t *testing.T) {
	users := []aggregate.AccountRef{
		ref("A", nil),
		ref("B", nil),
		ref("a1", strPtr("A")),
		ref("a2", strPtr("A")),
		ref("b1", strPtr("B")),
		ref("x", strPtr("missing")),
		ref("empty", strPtr("")),
	}

	nodes := aggregate.BuildHierarchy(users, aggregate.HierarchyOptions{})

	seen := map[string]int{}
	total := 0
	for _, n := range nodes {
		total += n.ChildCount
		for _, c := range n.Children {
			seen[c.ID]++
		}
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "child %s listed under several roots", id)
	}
	// a1, a2 and b1 have resolvable parents; an empty parent id counts as a root
	assert.Equal(t, 3, total)
	assert.Len(t, nodes, 3)
}
