package confdispatch_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cd "github.com/reoring/confdispatch"
)

func TestLifecycle_Evaluate(t *testing.T) {
	l := cd.Lifecycle{Introduced: cd.V(9, 0), Deprecated: cd.V(11, 0), Removed: cd.V(13, 0), Replacement: "new-name"}
	cases := []struct {
		doc     cd.Version
		verdict cd.Verdict
		code    cd.Code
	}{
		{cd.V(8, 0), cd.Reject, cd.CodeNotYetAvailable},
		{cd.V(9, 0), cd.Accept, ""},
		{cd.V(10, 5), cd.Accept, ""},
		{cd.V(11, 0), cd.Warn, cd.CodeDeprecatedConstruct},
		{cd.V(12, 9), cd.Warn, cd.CodeDeprecatedConstruct},
		{cd.V(13, 0), cd.Reject, cd.CodeRemovedConstruct},
		{cd.V(20, 0), cd.Reject, cd.CodeRemovedConstruct},
	}
	for _, tc := range cases {
		d := l.Evaluate(tc.doc)
		assert.Equal(t, tc.verdict, d.Verdict, "doc %s", tc.doc)
		assert.Equal(t, tc.code, d.Code, "doc %s", tc.doc)
	}
	assert.Contains(t, l.Evaluate(cd.V(13, 0)).Message, "removed as of schema 13.0, use 'new-name' instead")
	assert.Contains(t, l.Evaluate(cd.V(8, 0)).Message, "introduced in 9.0")
}

func TestLifecycle_Monotonic(t *testing.T) {
	// Once rejected for removal, every later version stays rejected.
	l := cd.Lifecycle{Deprecated: cd.V(10, 0), Removed: cd.V(12, 0)}
	removed := false
	for major := 8; major <= 16; major++ {
		for minor := 0; minor < 3; minor++ {
			d := l.Evaluate(cd.V(major, minor))
			if removed {
				require.Equal(t, cd.Reject, d.Verdict, "%d.%d", major, minor)
			}
			removed = removed || d.Verdict == cd.Reject
		}
	}
	require.True(t, removed)
}

func TestDecision_Apply(t *testing.T) {
	assert.True(t, cd.Lifecycle{}.Evaluate(cd.V(1, 0)).Apply())
	assert.True(t, cd.Lifecycle{Deprecated: cd.V(1, 0)}.Evaluate(cd.V(1, 0)).Apply())
	ignored := cd.Lifecycle{Deprecated: cd.V(1, 0), Ignored: true}.Evaluate(cd.V(1, 0))
	assert.Equal(t, cd.Warn, ignored.Verdict)
	assert.False(t, ignored.Apply())
	assert.True(t, strings.HasSuffix(ignored.Message, "value ignored"))
	assert.False(t, cd.Lifecycle{Removed: cd.V(1, 0)}.Evaluate(cd.V(1, 0)).Apply())
}

func TestGate_UnknownNamesAccepted(t *testing.T) {
	g := cd.Gate{"old": {Removed: cd.V(2, 0)}}
	assert.Equal(t, cd.Accept, g.Evaluate("other", cd.V(5, 0)).Verdict)
	assert.Equal(t, cd.Reject, g.Evaluate("old", cd.V(5, 0)).Verdict)
	_, ok := g.Lookup("other")
	assert.False(t, ok)
}
