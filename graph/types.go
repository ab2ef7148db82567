// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"path/filepath"
	"strings"

	"github.com/AleutianAI/symbolgraph/ast"
)

// EdgeType defines the type of relationship between two symbols.
//
// String-backed so the serialized form stays plain and extensible.
type EdgeType string

// Edge types.
const (
	// EdgeTypeContains links a class-like symbol to a method or property
	// it directly declares.
	EdgeTypeContains EdgeType = "contains"

	// EdgeTypeCalls links a calling function/method to a (heuristically
	// resolved) callee. Carries the call-site line.
	EdgeTypeCalls EdgeType = "calls"

	// EdgeTypeExtends links a class to the class named in its extends
	// clause.
	EdgeTypeExtends EdgeType = "extends"

	// EdgeTypeImplements links a class to an interface named in its
	// implements clause.
	EdgeTypeImplements EdgeType = "implements"

	// EdgeTypeImports links a symbol in an importing file to a symbol
	// bound by one of its import statements.
	EdgeTypeImports EdgeType = "imports"
)

// SymbolNode is a declared program symbol stored in the graph.
//
// Nodes are value records owned by the graph. The pointer returned from
// AddNode and the lookup methods refers to the graph's copy; callers
// MUST NOT mutate it.
type SymbolNode struct {
	// ID is the graph-assigned opaque identifier. Caller-supplied values
	// are ignored by AddNode and preserved only by AddNodeWithID.
	ID string `json:"id"`

	// Type classifies the symbol (function, method, class, ...).
	Type ast.SymbolType `json:"type"`

	// Name is the short declared name. Not unique across the graph.
	Name string `json:"name"`

	// QualifiedName is fileBase.name, e.g. "mathUtils.add". It
	// disambiguates same-named symbols across files but is not a strict
	// key: two files sharing a base name collide, an accepted
	// approximation.
	QualifiedName string `json:"qualified_name"`

	// FilePath is the path of the declaring file.
	FilePath string `json:"file_path"`

	// Location is the source range of the declaration.
	Location ast.Location `json:"location"`

	// Signature is the textual declaration header, when known.
	Signature string `json:"signature,omitempty"`

	// Docstring is the documentation block preceding the declaration.
	Docstring string `json:"docstring,omitempty"`

	// Exported reports whether the symbol is visible outside its file.
	Exported bool `json:"exported"`

	// Visibility is the declared access level.
	Visibility ast.Visibility `json:"visibility,omitempty"`

	// Async reports whether the symbol is an async function/method.
	Async bool `json:"async,omitempty"`

	// Static reports whether the symbol is a static member.
	Static bool `json:"static,omitempty"`

	// ParameterCount is the declared parameter count for callables.
	ParameterCount int `json:"parameter_count,omitempty"`
}

// SymbolEdge is a directed relationship between two symbols.
type SymbolEdge struct {
	// ID is the graph-assigned edge identifier.
	ID string `json:"id"`

	// Source is the id of the node the relationship originates from.
	Source string `json:"source"`

	// Target is the id of the node the relationship points to.
	Target string `json:"target"`

	// Type is the relationship type.
	Type EdgeType `json:"type"`

	// Line is the call-site line for calls edges, zero otherwise.
	Line int `json:"line,omitempty"`
}

// GraphStats is a point-in-time summary of the graph, recomputed from
// the live node and edge sets on every Stats call.
type GraphStats struct {
	// NodeCount is the total number of nodes.
	NodeCount int `json:"node_count"`

	// EdgeCount is the total number of edges.
	EdgeCount int `json:"edge_count"`

	// NodesByType counts nodes per symbol type.
	NodesByType map[ast.SymbolType]int `json:"nodes_by_type"`

	// EdgesByType counts edges per edge type.
	EdgesByType map[EdgeType]int `json:"edges_by_type"`

	// FileCount is the number of distinct file paths with live nodes.
	FileCount int `json:"file_count"`

	// ExportedCount is the number of exported symbols.
	ExportedCount int `json:"exported_count"`
}

// FileInfo summarizes one indexed file.
type FileInfo struct {
	// FilePath is the file's path.
	FilePath string `json:"file_path"`

	// SymbolCount is the number of live nodes declared in the file.
	SymbolCount int `json:"symbol_count"`

	// ExportedSymbols lists the names of the file's exported symbols.
	ExportedSymbols []string `json:"exported_symbols"`

	// Imports lists the file paths targeted by imports edges whose
	// source node resides in this file.
	Imports []string `json:"imports"`
}

// QueryOptions filters the node set for Query.
type QueryOptions struct {
	// Types restricts results to the given symbol types. Empty allows all.
	Types []ast.SymbolType

	// FilePath is a glob pattern applied to node file paths. "*" matches
	// within a path segment, "**" across segments. Empty allows all.
	FilePath string

	// ExportedOnly keeps only exported symbols when true.
	ExportedOnly bool

	// Limit truncates the returned node slice when positive. It never
	// affects TotalCount.
	Limit int

	// IncludeEdges attaches every edge incident to the returned
	// (post-truncation) node set.
	IncludeEdges bool
}

// QueryResult is the outcome of a Query call.
type QueryResult struct {
	// Nodes are the matching nodes, possibly truncated by Limit.
	Nodes []*SymbolNode `json:"nodes"`

	// TotalCount is the match count before Limit truncation.
	TotalCount int `json:"total_count"`

	// Edges are the edges incident to Nodes, present only when
	// IncludeEdges was requested.
	Edges []*SymbolEdge `json:"edges,omitempty"`
}

// QualifiedName derives a symbol's qualified name from its file path and
// short name: the file's base name without extension, a dot, the name.
// It is a pure function: the same inputs always yield the same string.
func QualifiedName(filePath, name string) string {
	base := filepath.Base(filepath.ToSlash(filePath))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + "." + name
}
