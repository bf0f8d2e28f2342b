package confdispatch_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cd "github.com/reoring/confdispatch"
	"github.com/reoring/confdispatch/tree"
)

const xiNS = `xmlns:xi="http://www.w3.org/2001/XInclude"`

func TestReader_TokenWalk(t *testing.T) {
	r, err := cd.NewReader(strings.NewReader(`<a x="1"><b>text</b></a>`), "doc.xml", cd.MediaXML, nil)
	require.NoError(t, err)
	assert.Equal(t, cd.NotStarted, r.State())

	want := []cd.TokenKind{cd.StartDocument, cd.StartElement, cd.StartElement, cd.Text, cd.EndElement, cd.EndElement, cd.EndDocument}
	for i, k := range want {
		got, err := r.Next()
		require.NoError(t, err, "token %d", i)
		require.Equal(t, k, got, "token %d", i)
		if i == 1 {
			assert.Equal(t, cd.InDocument, r.State())
			v, ok := r.Attribute("x")
			assert.True(t, ok)
			assert.Equal(t, "1", v)
			assert.Equal(t, "doc.xml", r.Location().Resource)
			assert.Equal(t, 1, r.Location().Line)
		}
		if i == 3 {
			assert.Equal(t, "/a/b", r.Location().Path)
		}
	}
	_, err = r.Next()
	assert.True(t, cd.IsCode(err, cd.CodeReadPastEnd))

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Equal(t, cd.Closed, r.State())
	_, err = r.Next()
	assert.True(t, cd.IsCode(err, cd.CodeReadPastEnd))
}

func TestReader_ElementTextWithProperties(t *testing.T) {
	opt := cd.Options{Properties: map[string]string{"dir": "/data"}}
	r, err := cd.NewReader(strings.NewReader(`<a path="${dir}/a"> ${dir}/store </a>`), "doc.xml", cd.MediaXML, nil, opt)
	require.NoError(t, err)
	defer r.Close()
	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.NextTag()
	require.NoError(t, err)
	v, _ := r.Attribute("path")
	assert.Equal(t, "/data/a", v)
	text, err := r.ElementText()
	require.NoError(t, err)
	assert.Equal(t, "/data/store", text)
	assert.Equal(t, cd.EndElement, r.Kind())
}

func TestReader_ElementTextRejectsChildren(t *testing.T) {
	r, err := cd.NewReader(strings.NewReader(`<a>x<b/></a>`), "doc.xml", cd.MediaXML, nil)
	require.NoError(t, err)
	defer r.Close()
	_, _ = r.Next()
	_, _ = r.NextTag()
	_, err = r.ElementText()
	assert.True(t, cd.IsCode(err, cd.CodeUnexpectedElement))
}

func TestReader_DuplicateAttribute(t *testing.T) {
	d := newDispatcher(t, elementParser{roots: []string{"root"}})
	_, _, err := parseString(d, cd.MediaXML, `<root xmlns="`+testFamily+`:5.0" a="1" a="2"/>`)
	if err == nil {
		t.Fatalf("expected duplicate attribute error")
	}
	assert.True(t, cd.IsCode(err, cd.CodeUnexpectedAttribute), err.Error())
}

func TestReader_DuplicateKey(t *testing.T) {
	d := newDispatcher(t, elementParser{roots: []string{"root", "child"}})
	docs := map[cd.MediaType]string{
		cd.MediaJSON: `{"root": {"xmlns": "` + testFamily + `:5.0", "child": {"a": "1"}, "child": {"a": "2"}}}`,
		cd.MediaYAML: "root:\n  xmlns: " + testFamily + ":5.0\n  child: {a: \"1\"}\n  child: {a: \"2\"}\n",
	}
	for media, doc := range docs {
		_, _, err := parseString(d, media, doc)
		require.Error(t, err, string(media))
		e, ok := cd.AsError(err)
		require.True(t, ok)
		assert.Equal(t, cd.CodeDuplicateKey, e.Code, err.Error())
		assert.Equal(t, "child", e.Name)
	}
}

func TestReader_MaxDepth(t *testing.T) {
	d := newDispatcherWith(t, cd.Options{MaxDepth: 2}, elementParser{roots: []string{"root", "a", "b"}})
	_, _, err := parseString(d, cd.MediaXML, `<root xmlns="`+testFamily+`:5.0"><a><b/></a></root>`)
	require.Error(t, err)
	e, ok := cd.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "b", e.Name)
}

// A delegate cannot read beyond the element it was handed.
func TestReader_DepthContainment(t *testing.T) {
	var innerErr error
	greedy := funcParser{
		ns: []cd.Namespace{{URI: testNS, Root: "leaf", Since: cd.V(1, 0)}},
		read: func(r *cd.Reader, h *cd.Holder) error {
			for {
				if _, err := r.Next(); err != nil {
					innerErr = err
					return err
				}
			}
		},
	}
	d := newDispatcher(t, elementParser{roots: []string{"root"}}, greedy)
	_, _, err := parseString(d, cd.MediaXML, `<root xmlns="`+testFamily+`:5.0"><leaf><x/></leaf><sibling/></root>`)
	require.Error(t, err)
	assert.True(t, cd.IsCode(innerErr, cd.CodeReadPastEnd), innerErr)
	assert.True(t, cd.IsCode(err, cd.CodeReadPastEnd))
	assert.Contains(t, err.Error(), "<leaf>")
}

func TestReader_DelegateMustConsumeElement(t *testing.T) {
	lazy := funcParser{
		ns:   []cd.Namespace{{URI: testNS, Root: "leaf", Since: cd.V(1, 0)}},
		read: func(r *cd.Reader, h *cd.Holder) error { return nil },
	}
	d := newDispatcher(t, elementParser{roots: []string{"root"}}, lazy)
	_, _, err := parseString(d, cd.MediaXML, `<root xmlns="`+testFamily+`:5.0"><leaf><x/></leaf></root>`)
	require.Error(t, err)
	assert.True(t, cd.IsCode(err, cd.CodeUnexpectedToken))
	assert.Contains(t, err.Error(), "returned before the end")
}

func includeDispatcher(t *testing.T) *cd.Dispatcher {
	return newDispatcher(t, elementParser{roots: []string{"root", "a", "b", "c", "d"}})
}

func parseFS(t *testing.T, d *cd.Dispatcher, fsys *countingFS, name string) (*tree.Node, error) {
	t.Helper()
	b := tree.New()
	err := d.ParseFile(fsys, name, cd.NewHolder(b))
	return b.Root(), err
}

func TestInclude_Transparent(t *testing.T) {
	d := includeDispatcher(t)
	included := newCountingFS(map[string]string{
		"main.xml": `<root xmlns="` + testFamily + `:5.0" ` + xiNS + `><a/><xi:include href="part.xml"/><c/></root>`,
		"part.xml": `<?xml version="1.0"?><b xmlns="` + testFamily + `:5.0" k="v"/>`,
	})
	inline := newCountingFS(map[string]string{
		"main.xml": `<root xmlns="` + testFamily + `:5.0"><a/><b k="v"/><c/></root>`,
	})
	got, err := parseFS(t, d, included, "main.xml")
	require.NoError(t, err)
	want, err := parseFS(t, d, inline, "main.xml")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	included.assertBalanced(t)
	assert.Equal(t, 1, included.opened["part.xml"])
}

func TestInclude_NestedRelativeToIncluder(t *testing.T) {
	d := includeDispatcher(t)
	fsys := newCountingFS(map[string]string{
		"conf/main.xml":   `<root xmlns="` + testFamily + `:5.0" ` + xiNS + `><xi:include href="sub/b.xml"/></root>`,
		"conf/sub/b.xml":  `<b xmlns="` + testFamily + `:5.0" ` + xiNS + `><xi:include href="c.json"/></b>`,
		"conf/sub/c.json": `{"c": {"xmlns": "` + testFamily + `:5.0", "d": {"n": "1"}}}`,
		"conf/c.json":     `{"wrong": {}}`,
	})
	root, err := parseFS(t, d, fsys, "conf/main.xml")
	require.NoError(t, err)
	b := root.Child("root", "").Child("b", "")
	require.NotNil(t, b)
	c := b.Child("c", "")
	require.NotNil(t, c, "c.json must resolve relative to sub/b.xml")
	require.NotNil(t, c.Child("d", ""))
	fsys.assertBalanced(t)
	assert.Zero(t, fsys.opened["conf/c.json"])
}

func TestInclude_MissingResource(t *testing.T) {
	d := includeDispatcher(t)
	fsys := newCountingFS(map[string]string{
		"main.xml": `<root xmlns="` + testFamily + `:5.0" ` + xiNS + `>
  <xi:include href="absent.xml"/>
</root>`,
	})
	_, err := parseFS(t, d, fsys, "main.xml")
	require.Error(t, err)
	e, ok := cd.AsError(err)
	require.True(t, ok)
	assert.Equal(t, cd.CodeResourceFailure, e.Code)
	assert.Equal(t, "absent.xml", e.Name)
	assert.Equal(t, "main.xml", e.Location.Resource)
	assert.Equal(t, 2, e.Location.Line)
	assert.Error(t, e.Cause)
	fsys.assertBalanced(t)
}

func TestInclude_MissingHref(t *testing.T) {
	d := includeDispatcher(t)
	fsys := newCountingFS(map[string]string{
		"main.xml": `<root xmlns="` + testFamily + `:5.0" ` + xiNS + `><xi:include/></root>`,
	})
	_, err := parseFS(t, d, fsys, "main.xml")
	e, ok := cd.AsError(err)
	require.True(t, ok)
	assert.Equal(t, cd.CodeMissingRequired, e.Code)
	assert.Equal(t, []string{"href"}, e.Names)
}

func TestInclude_Cycle(t *testing.T) {
	d := includeDispatcher(t)
	fsys := newCountingFS(map[string]string{
		"a.xml": `<root xmlns="` + testFamily + `:5.0" ` + xiNS + `><xi:include href="b.xml"/></root>`,
		"b.xml": `<b xmlns="` + testFamily + `:5.0" ` + xiNS + `><xi:include href="a.xml"/></b>`,
	})
	_, err := parseFS(t, d, fsys, "a.xml")
	require.Error(t, err)
	assert.True(t, cd.IsCode(err, cd.CodeResourceFailure))
	assert.Contains(t, err.Error(), "include cycle")
	fsys.assertBalanced(t)
}

func TestInclude_ErrorInsideIncludedDocumentClosesAll(t *testing.T) {
	d := includeDispatcher(t)
	fsys := newCountingFS(map[string]string{
		"a.xml": `<root xmlns="` + testFamily + `:5.0" ` + xiNS + `><xi:include href="b.xml"/></root>`,
		"b.xml": `<b xmlns="` + testFamily + `:5.0"><unknown/></b>`,
	})
	_, err := parseFS(t, d, fsys, "a.xml")
	require.Error(t, err)
	e, _ := cd.AsError(err)
	assert.Equal(t, "b.xml", e.Location.Resource)
	fsys.assertBalanced(t)
	assert.Equal(t, 1, fsys.closed["b.xml"])
}

func TestInclude_DepthLimit(t *testing.T) {
	d := newDispatcherWith(t, cd.Options{MaxIncludeDepth: 1}, elementParser{roots: []string{"root", "b", "c"}})
	fsys := newCountingFS(map[string]string{
		"a.xml": `<root xmlns="` + testFamily + `:5.0" ` + xiNS + `><xi:include href="b.xml"/></root>`,
		"b.xml": `<b xmlns="` + testFamily + `:5.0" ` + xiNS + `><xi:include href="c.xml"/></b>`,
		"c.xml": `<c xmlns="` + testFamily + `:5.0"/>`,
	})
	_, err := parseFS(t, d, fsys, "a.xml")
	require.Error(t, err)
	assert.True(t, cd.IsCode(err, cd.CodeResourceFailure))
	assert.Zero(t, fsys.opened["c.xml"])
	fsys.assertBalanced(t)
}
