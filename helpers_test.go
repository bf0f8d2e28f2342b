package confdispatch_test

import (
	"bytes"
	"io/fs"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/charmbracelet/log"

	cd "github.com/reoring/confdispatch"
	"github.com/reoring/confdispatch/tree"
)

const (
	testFamily = "urn:test:config"
	testNS     = testFamily + ":*"
)

// elementParser copies every element into the builder: attributes become
// fields (subject to gate), children are handed back to the dispatcher.
// The schema version is recorded before and after the children.
type elementParser struct {
	roots []string
	gate  cd.Gate
}

func (p elementParser) Namespaces() []cd.Namespace {
	out := make([]cd.Namespace, 0, len(p.roots))
	for _, root := range p.roots {
		out = append(out, cd.Namespace{URI: testNS, Root: root, Since: cd.V(1, 0), Until: cd.V(20, 0)})
	}
	return out
}

func (p elementParser) ReadElement(r *cd.Reader, h *cd.Holder) error {
	h.Builder.EnterScope(r.LocalName(), "")
	defer h.Builder.LeaveScope()
	h.Builder.SetField("version", r.Version().String())
	for i := 0; i < r.AttributeCount(); i++ {
		name := r.AttributeName(i)
		apply, err := h.AdmitIn(r, p.gate, name)
		if err != nil {
			return err
		}
		if apply {
			h.Builder.SetField(name, r.AttributeValue(i))
		}
	}
	if err := r.EachChild(func() error { return r.HandleAny(h) }); err != nil {
		return err
	}
	h.Builder.SetField("after", r.Version().String())
	return nil
}

// funcParser serves one root with an arbitrary read function.
type funcParser struct {
	ns   []cd.Namespace
	read func(r *cd.Reader, h *cd.Holder) error
}

func (p funcParser) Namespaces() []cd.Namespace { return p.ns }

func (p funcParser) ReadElement(r *cd.Reader, h *cd.Holder) error { return p.read(r, h) }

func newDispatcher(t *testing.T, parsers ...cd.Parser) *cd.Dispatcher {
	t.Helper()
	return newDispatcherWith(t, cd.Options{}, parsers...)
}

func newDispatcherWith(t *testing.T, opt cd.Options, parsers ...cd.Parser) *cd.Dispatcher {
	t.Helper()
	d, err := cd.New(parsers, opt)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func parseString(d *cd.Dispatcher, media cd.MediaType, doc string) (*tree.Builder, *cd.Holder, error) {
	b := tree.New()
	h := cd.NewHolder(b)
	err := d.ParseBytes([]byte(doc), "test", media, h)
	return b, h, err
}

func bufferLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel}), &buf
}

// countingFS records how often each file is opened and closed.
type countingFS struct {
	fsys   fstest.MapFS
	mu     sync.Mutex
	opened map[string]int
	closed map[string]int
}

func newCountingFS(files map[string]string) *countingFS {
	m := fstest.MapFS{}
	for name, body := range files {
		m[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return &countingFS{fsys: m, opened: map[string]int{}, closed: map[string]int{}}
}

func (c *countingFS) Open(name string) (fs.File, error) {
	f, err := c.fsys.Open(name)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.opened[name]++
	c.mu.Unlock()
	return &countingFile{File: f, name: name, fs: c}, nil
}

func (c *countingFS) assertBalanced(t *testing.T) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, n := range c.opened {
		if c.closed[name] != n {
			t.Fatalf("%s opened %d times but closed %d times", name, n, c.closed[name])
		}
	}
}

type countingFile struct {
	fs.File
	name string
	fs   *countingFS
}

func (f *countingFile) Close() error {
	f.fs.mu.Lock()
	f.fs.closed[f.name]++
	f.fs.mu.Unlock()
	return f.File.Close()
}
