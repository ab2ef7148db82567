// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

// SymbolType classifies a declared program symbol.
//
// String-backed so that graph serialization stays a plain, extensible
// record and so that new types can be introduced without renumbering.
type SymbolType string

// Symbol types produced by the built-in adapters.
const (
	// SymbolTypeFunction is a standalone function declaration.
	SymbolTypeFunction SymbolType = "function"

	// SymbolTypeMethod is a function declared inside a class body.
	SymbolTypeMethod SymbolType = "method"

	// SymbolTypeClass is a class declaration.
	SymbolTypeClass SymbolType = "class"

	// SymbolTypeInterface is an interface declaration.
	SymbolTypeInterface SymbolType = "interface"

	// SymbolTypeType is a type alias declaration.
	SymbolTypeType SymbolType = "type"

	// SymbolTypeVariable is a let/var declaration.
	SymbolTypeVariable SymbolType = "variable"

	// SymbolTypeConstant is a const declaration.
	SymbolTypeConstant SymbolType = "constant"

	// SymbolTypeProperty is a field or property declared inside a class body.
	SymbolTypeProperty SymbolType = "property"
)

// Visibility describes the declared access level of a symbol.
type Visibility string

// Visibility levels.
const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
)

// Location is a half-open source range. Lines are 1-indexed, columns
// are 0-indexed, matching tree-sitter conventions.
type Location struct {
	StartLine int `json:"start_line"`
	StartCol  int `json:"start_col"`
	EndLine   int `json:"end_line"`
	EndCol    int `json:"end_col"`
}

// Node is a language-neutral AST node.
//
// Adapters convert their native parse trees into this shape so that the
// graph builder never depends on a concrete parsing library. Type carries
// the grammar's node kind (e.g. "call_expression"), Text the raw source
// text of the node's range.
//
// Ownership: a Node tree is immutable after Parse returns. Callers MUST
// NOT mutate nodes; the builder and watcher share trees without copying.
type Node struct {
	// Type is the grammar node kind, e.g. "class_declaration".
	Type string

	// Text is the raw source text spanned by this node.
	Text string

	// Location is the source range of this node.
	Location Location

	// Children are the node's direct children in source order.
	Children []*Node
}

// ParsedFile is an adapter's output: the root of the converted AST plus
// the path of the file it came from.
type ParsedFile struct {
	// FilePath is the path of the parsed file, relative to the project root.
	FilePath string

	// Root is the root node of the converted AST. Never nil on success.
	Root *Node
}

// SourceFile pairs raw source text with its path, for callers that hand
// unparsed code to the builder.
type SourceFile struct {
	// Code is the raw source text.
	Code string

	// FilePath determines which adapter handles the file.
	FilePath string
}

// ExtractedSymbol is one declared symbol found by an adapter.
//
// Node points back into the ParsedFile's tree so the builder can scope
// relationship extraction (call expressions, heritage clauses) to the
// symbol's own range. Children holds directly nested declarations, e.g.
// the methods of a class.
type ExtractedSymbol struct {
	// Name is the declared identifier.
	Name string

	// Type classifies the declaration.
	Type SymbolType

	// Location is the source range of the declaration.
	Location Location

	// Signature is the declaration header, single line, without the body.
	Signature string

	// Docstring is the comment block immediately preceding the declaration.
	Docstring string

	// Exported reports whether the symbol is visible outside its file.
	Exported bool

	// Visibility is the declared access level.
	Visibility Visibility

	// Async reports whether the function/method is declared async.
	Async bool

	// Static reports whether the method is declared static.
	Static bool

	// Parameters lists declared parameter names, in order. Nil when the
	// symbol is not callable.
	Parameters []string

	// Node is the AST node of the declaration. May be nil for symbols an
	// adapter synthesizes without a backing node.
	Node *Node

	// Children are symbols declared directly inside this one.
	Children []*ExtractedSymbol
}

// ImportInfo is one import statement found by an adapter.
type ImportInfo struct {
	// Source is the imported module specifier, e.g. "./mathUtils".
	Source string `json:"source"`

	// Names lists the identifiers bound by the import. Empty for
	// side-effect-only imports.
	Names []string `json:"names,omitempty"`

	// Line is the 1-indexed line of the import statement.
	Line int `json:"line"`
}

// FindByType returns every node in the subtree rooted at n whose Type
// equals nodeType, in depth-first source order. Returns an empty slice
// when n is nil or nothing matches.
func FindByType(n *Node, nodeType string) []*Node {
	found := make([]*Node, 0)
	Traverse(n, func(node *Node) bool {
		if node.Type == nodeType {
			found = append(found, node)
		}
		return true
	})
	return found
}

// Traverse walks the subtree rooted at n in depth-first source order,
// calling visit for each node. Returning false from visit skips the
// node's children (the walk continues with siblings).
func Traverse(n *Node, visit func(*Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for _, child := range n.Children {
		Traverse(child, visit)
	}
}
