package tree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alh2phoebus/internal/domain/alarm"
)

// groupWith returns a group entity with the given children.
func groupWith(name string, children ...string) *alarm.Entity {
	g := alarm.NewGroup(name, "")
	g.Children = children

	return alarm.GroupEntity(g)
}

// TestBuild checks parent/child edges, lookups and depth-first order.
func TestBuild(t *testing.T) {
	t.Parallel()

	entities := map[string]*alarm.Entity{
		"cfg":           groupWith("cfg", "cfg/A", "cfg/INCLUDE_0"),
		"cfg/A":         groupWith("A", "cfg/A/X", "cfg/A/B"),
		"cfg/A/X":       alarm.ChannelEntity(alarm.NewChannel("X")),
		"cfg/A/B":       groupWith("B", "cfg/A/B/Y"),
		"cfg/A/B/Y":     alarm.ChannelEntity(alarm.NewChannel("Y")),
		"cfg/INCLUDE_0": alarm.InclusionEntity(&alarm.InclusionMarker{Name: "INCLUDE_0", Filename: "x.alhConfig"}),
	}

	tr, err := Build(entities, "cfg")
	require.NoError(t, err)
	require.Equal(t, 6, tr.Len())
	require.Equal(t, "cfg", tr.Root.Path)
	require.Nil(t, tr.Root.Parent)

	y, ok := tr.Node("cfg/A/B/Y")
	require.True(t, ok)
	require.Equal(t, "cfg/A/B", y.Parent.Path)
	require.Equal(t, 3, y.Depth())

	_, ok = tr.Node("cfg/missing")
	require.False(t, ok)

	var order []string

	tr.Walk(func(n *Node) bool {
		order = append(order, n.Path)

		return true
	})
	require.Equal(t, []string{"cfg", "cfg/A", "cfg/A/X", "cfg/A/B", "cfg/A/B/Y", "cfg/INCLUDE_0"}, order)

	order = order[:0]

	tr.Walk(func(n *Node) bool {
		order = append(order, n.Path)

		return n.Path != "cfg/A"
	})
	require.Equal(t, []string{"cfg", "cfg/A", "cfg/INCLUDE_0"}, order)
}

// TestBuild_StructuralErrors covers dangling, duplicated and orphaned paths.
func TestBuild_StructuralErrors(t *testing.T) {
	t.Parallel()

	_, err := Build(map[string]*alarm.Entity{"cfg": groupWith("cfg")}, "other")
	require.ErrorIs(t, err, ErrDanglingReference)

	_, err = Build(map[string]*alarm.Entity{"cfg": groupWith("cfg", "cfg/A")}, "cfg")
	require.ErrorIs(t, err, ErrDanglingReference)
	require.Contains(t, err.Error(), "cfg/A")

	_, err = Build(map[string]*alarm.Entity{
		"cfg":   groupWith("cfg", "cfg/A", "cfg/B"),
		"cfg/A": groupWith("A", "cfg/B"),
		"cfg/B": groupWith("B"),
	}, "cfg")
	require.ErrorIs(t, err, ErrMultipleParents)

	_, err = Build(map[string]*alarm.Entity{
		"cfg":     groupWith("cfg"),
		"cfg/Z":   alarm.ChannelEntity(alarm.NewChannel("Z")),
		"cfg/A/X": alarm.ChannelEntity(alarm.NewChannel("X")),
	}, "cfg")
	require.ErrorIs(t, err, ErrOrphanEntity)
	require.Contains(t, err.Error(), "cfg/A/X, cfg/Z")
}
