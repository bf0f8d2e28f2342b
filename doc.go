package confdispatch

// Package confdispatch provides:
//
// - A namespace registry that routes each configuration element to the parser
//   declaring its (namespace URI, root element) at the document's schema version
// - A streaming Reader over XML, JSON and YAML documents with transparent
//   XInclude splicing and depth-scoped delegation
// - Version gates (introduced / deprecated / removed) for attributes and elements
// - A stable error model via *Error (code, message, location) and Issues for warnings
//
// Design policy:
// - Keep only public APIs in the root package; put tokenizer drivers under source/
//   and the token model under internal/.
// - Parsers are stateless; per-session state lives in the Holder.
// - The Registry is immutable after New and shared by concurrent sessions.
//
// Typical usage:
//
//  d, err := confdispatch.New(cacheconf.Parsers())
//  b := tree.New()
//  h := confdispatch.NewHolder(b)
//  err = d.ParseFile(os.DirFS("conf"), "server.xml", h)
//  for _, w := range h.Warnings() { ... }
//
