// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast defines the parser-adapter contract consumed by the graph
// builder, plus a tree-sitter implementation for JavaScript and TypeScript.
//
// The graph engine never parses source text itself. An Adapter turns raw
// code into a language-neutral Node tree (a ParsedFile) and answers
// structural queries over it. Everything downstream (symbol collection,
// relationship extraction, resolution) operates on this neutral shape.
//
// # Ownership Model
//
// Node trees and ExtractedSymbols returned by an Adapter are immutable
// after the call returns. The builder stores pointers into them without
// copying; callers MUST NOT mutate them.
//
// # Thread Safety
//
// Adapter implementations must be safe for concurrent use. TreeSitterAdapter
// creates a fresh tree-sitter parser per Parse call, so any number of
// goroutines may parse simultaneously.
package ast

import "context"

// Adapter is the contract between a source-code parser and the graph
// builder.
//
// Description:
//
//	An Adapter knows how to parse some set of file extensions, extract
//	the symbols and imports a file declares, and answer structural
//	queries over the converted AST. Implementations for new languages
//	only need to satisfy this interface; the builder is language-blind.
//
// Limitations:
//
//   - Single-file analysis only. Adapters never resolve names across
//     files; that is the builder's (heuristic) job.
type Adapter interface {
	// Supports reports whether this adapter can parse the given file,
	// judged by its extension.
	Supports(filePath string) bool

	// Parse converts raw source text into a ParsedFile.
	//
	// Syntax errors do not fail the parse: tree-sitter produces a tree
	// with error nodes and extraction degrades gracefully. A non-nil
	// error means the file contributed nothing and should be skipped.
	Parse(ctx context.Context, code []byte, filePath string) (*ParsedFile, error)

	// ExtractSymbols returns the symbols declared in the tree rooted at
	// root, with class members nested under their parent. Returns an
	// empty slice when nothing is declared.
	ExtractSymbols(root *Node) []*ExtractedSymbol

	// ExtractImports returns the file's import statements.
	ExtractImports(root *Node) []ImportInfo

	// FindByType returns all nodes of the given grammar kind in the
	// subtree rooted at n, in source order.
	FindByType(n *Node, nodeType string) []*Node

	// Traverse walks the subtree rooted at n depth-first. Returning
	// false from visit skips that node's children.
	Traverse(n *Node, visit func(*Node) bool)
}
