package alarm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestJoinPath covers separator trimming and empty elements.
func TestJoinPath(t *testing.T) {
	t.Parallel()

	require.Equal(t, "cfg", JoinPath("cfg"))
	require.Equal(t, "cfg/A/B", JoinPath("cfg", "A", "B"))
	require.Equal(t, "cfg/A/B", JoinPath("cfg/", "", "/A", "B/"))
	require.Equal(t, "cfg/A/X", JoinPath("cfg/A", "X"))
	require.Empty(t, JoinPath())
}

// TestParentAndBase verifies splitting a path into parent and last element.
func TestParentAndBase(t *testing.T) {
	t.Parallel()

	require.Equal(t, "cfg/A", ParentPath("cfg/A/X"))
	require.Empty(t, ParentPath("cfg"))
	require.Equal(t, "X", BaseName("cfg/A/X"))
	require.Equal(t, "cfg", BaseName("cfg"))
}
