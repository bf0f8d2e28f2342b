package engine

import "testing"

func scalar(s string) *Value { return &Value{Kind: ValueScalar, Scalar: s} }

func object(fields ...Field) *Value { return &Value{Kind: ValueObject, Fields: fields} }

func TestMapDocument_ScalarsBecomeAttributes(t *testing.T) {
	doc := object(Field{Key: "config", Value: object(
		Field{Key: "xmlns", Value: scalar("urn:x:1.0")},
		Field{Key: "name", Value: scalar("c1")},
		Field{Key: "child", Value: object(Field{Key: "size", Value: scalar("3")})},
	)})
	nodes, err := MapDocument(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected one root, got %d", len(nodes))
	}
	root := nodes[0]
	if root.Name != (Name{Space: "urn:x:1.0", Local: "config"}) {
		t.Fatalf("root name = %v", root.Name)
	}
	if len(root.Attrs) != 1 || root.Attrs[0].Name.Local != "name" || root.Attrs[0].Value != "c1" {
		t.Fatalf("root attrs = %+v", root.Attrs)
	}
	if len(root.Children) != 1 || root.Children[0].Name.Space != "urn:x:1.0" {
		t.Fatalf("child should inherit the namespace: %+v", root.Children)
	}
	if root.Children[0].Attrs[0].Value != "3" {
		t.Fatalf("child attrs = %+v", root.Children[0].Attrs)
	}
}

func TestMapDocument_Arrays(t *testing.T) {
	doc := object(Field{Key: "root", Value: object(
		Field{Key: "item", Value: &Value{Kind: ValueArray, Items: []*Value{
			object(Field{Key: "id", Value: scalar("1")}),
			object(Field{Key: "id", Value: scalar("2")}),
		}}},
		Field{Key: "tag", Value: &Value{Kind: ValueArray, Items: []*Value{scalar("a"), scalar("b")}}},
	)})
	nodes, err := MapDocument(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ch := nodes[0].Children
	if len(ch) != 4 {
		t.Fatalf("expected 4 children, got %d", len(ch))
	}
	if ch[0].Name.Local != "item" || ch[1].Attrs[0].Value != "2" {
		t.Fatalf("unexpected items: %+v %+v", ch[0], ch[1])
	}
	if ch[2].Text != "a" || ch[3].Text != "b" {
		t.Fatalf("scalar items should become text: %+v %+v", ch[2], ch[3])
	}
}

func TestMapDocument_Include(t *testing.T) {
	doc := object(Field{Key: "root", Value: object(
		Field{Key: "xi:include", Value: object(Field{Key: "href", Value: scalar("other.json")})},
	)})
	nodes, err := MapDocument(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inc := nodes[0].Children[0]
	if inc.Name != (Name{Space: XIncludeNamespace, Local: "include"}) || inc.Attrs[0].Value != "other.json" {
		t.Fatalf("unexpected include: %+v", inc)
	}
}

func TestMapDocument_Errors(t *testing.T) {
	if _, err := MapDocument(&Value{Kind: ValueArray}); err == nil {
		t.Fatalf("expected error for array root")
	}
	nested := object(Field{Key: "a", Value: &Value{Kind: ValueArray, Items: []*Value{{Kind: ValueArray}}}})
	if _, err := MapDocument(nested); err == nil {
		t.Fatalf("expected error for nested arrays")
	}
	nodes, err := MapDocument(nil)
	if err != nil || nodes != nil {
		t.Fatalf("empty document: %v %v", nodes, err)
	}
}

func TestMapDocument_NullIsEmptyElement(t *testing.T) {
	nodes, err := MapDocument(object(Field{Key: "a", Value: &Value{Kind: ValueNull}}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 1 || len(nodes[0].Attrs) != 0 || len(nodes[0].Children) != 0 {
		t.Fatalf("unexpected nodes: %+v", nodes)
	}
}
