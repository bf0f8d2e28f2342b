// Package tree is an in-memory configuration builder. It records every
// scope and field a parse session produces as an ordered node tree, which
// makes it suitable for tests and for printing what a document resolved to.
package tree

import (
	confdispatch "github.com/reoring/confdispatch"
)

// Field is one key/value pair set on a node, in insertion order.
type Field struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Node is a builder scope.
type Node struct {
	Kind     string  `json:"kind"`
	Name     string  `json:"name,omitempty"`
	Base     string  `json:"base,omitempty"`
	Fields   []Field `json:"fields,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// Field returns the last value set for key.
func (n *Node) Field(key string) (any, bool) {
	for i := len(n.Fields) - 1; i >= 0; i-- {
		if n.Fields[i].Key == key {
			return n.Fields[i].Value, true
		}
	}
	return nil, false
}

// Child returns the first child of the given kind and, when name is not
// empty, name.
func (n *Node) Child(kind, name string) *Node {
	for _, c := range n.Children {
		if c.Kind == kind && (name == "" || c.Name == name) {
			return c
		}
	}
	return nil
}

// Builder implements confdispatch.Builder.
type Builder struct {
	root  *Node
	stack []*Node
	named map[string]*Node
}

var _ confdispatch.Builder = (*Builder)(nil)

// New returns an empty builder whose root node has kind "root".
func New() *Builder {
	root := &Node{Kind: "root"}
	return &Builder{root: root, stack: []*Node{root}, named: make(map[string]*Node)}
}

// Root returns the root node.
func (b *Builder) Root() *Node { return b.root }

// Depth is the number of open scopes below the root.
func (b *Builder) Depth() int { return len(b.stack) - 1 }

func (b *Builder) current() *Node { return b.stack[len(b.stack)-1] }

func (b *Builder) EnterScope(kind, name string) confdispatch.Scope {
	n := &Node{Kind: kind, Name: name}
	cur := b.current()
	cur.Children = append(cur.Children, n)
	b.stack = append(b.stack, n)
	return n
}

func (b *Builder) SetField(key string, value any) {
	cur := b.current()
	cur.Fields = append(cur.Fields, Field{Key: key, Value: value})
}

// LeaveScope closes the innermost scope. Leaving the root is a no-op.
func (b *Builder) LeaveScope() {
	if len(b.stack) > 1 {
		b.stack = b.stack[:len(b.stack)-1]
	}
}

func (b *Builder) RegisterNamed(name string, s confdispatch.Scope) {
	if n, ok := s.(*Node); ok {
		b.named[name] = n
	}
}

func (b *Builder) FindNamed(name string) (confdispatch.Scope, bool) {
	n, ok := b.named[name]
	if !ok {
		return nil, false
	}
	return n, true
}

// Inherit copies the fields of base into the current scope ahead of the
// fields already set, so later assignments override inherited ones.
func (b *Builder) Inherit(base confdispatch.Scope) {
	src, ok := base.(*Node)
	if !ok {
		return
	}
	cur := b.current()
	cur.Base = src.Name
	fields := make([]Field, 0, len(src.Fields)+len(cur.Fields))
	fields = append(fields, src.Fields...)
	cur.Fields = append(fields, cur.Fields...)
}

// Named returns the node registered under name.
func (b *Builder) Named(name string) *Node { return b.named[name] }
