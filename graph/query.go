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
	"regexp"
	"sort"

	"github.com/AleutianAI/symbolgraph/ast"
)

// Query filters the full node set.
//
// Description:
//
//	Applies the type set, the file glob and the exported flag to every
//	node in insertion order. TotalCount reflects the match count before
//	Limit truncation. Truncation only shortens the returned Nodes
//	slice, never the reported total. When IncludeEdges is set, the
//	result carries every edge whose source or target is among the
//	returned (post-truncation) nodes.
//
// Errors:
//
//	ErrInvalidPattern - The FilePath glob could not be compiled.
func (g *SymbolGraph) Query(opts QueryOptions) (*QueryResult, error) {
	var pathRe *regexp.Regexp
	if opts.FilePath != "" {
		var err error
		pathRe, err = compileGlob(opts.FilePath)
		if err != nil {
			return nil, err
		}
	}

	typeSet := make(map[ast.SymbolType]bool, len(opts.Types))
	for _, t := range opts.Types {
		typeSet[t] = true
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	result := &QueryResult{Nodes: make([]*SymbolNode, 0)}
	for _, id := range g.nodeOrder {
		node, ok := g.nodes[id]
		if !ok {
			continue
		}
		if len(typeSet) > 0 && !typeSet[node.Type] {
			continue
		}
		if pathRe != nil && !pathRe.MatchString(node.FilePath) {
			continue
		}
		if opts.ExportedOnly && !node.Exported {
			continue
		}
		result.TotalCount++
		if opts.Limit <= 0 || len(result.Nodes) < opts.Limit {
			result.Nodes = append(result.Nodes, node)
		}
	}

	if opts.IncludeEdges {
		inResult := make(map[string]bool, len(result.Nodes))
		for _, node := range result.Nodes {
			inResult[node.ID] = true
		}
		result.Edges = make([]*SymbolEdge, 0)
		for _, id := range g.edgeOrder {
			e := g.edges[id]
			if inResult[e.Source] || inResult[e.Target] {
				result.Edges = append(result.Edges, e)
			}
		}
	}

	return result, nil
}

// Stats returns a summary of the graph.
//
// Description:
//
//	Recomputed from the live node and edge maps on every call, so the
//	result is never stale relative to prior mutations.
func (g *SymbolGraph) Stats() GraphStats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	stats := GraphStats{
		NodeCount:   len(g.nodes),
		EdgeCount:   len(g.edges),
		NodesByType: make(map[ast.SymbolType]int),
		EdgesByType: make(map[EdgeType]int),
		FileCount:   len(g.fileIndex),
	}
	for _, node := range g.nodes {
		stats.NodesByType[node.Type]++
		if node.Exported {
			stats.ExportedCount++
		}
	}
	for _, edge := range g.edges {
		stats.EdgesByType[edge.Type]++
	}
	return stats
}

// Files returns one record per distinct file path with live nodes,
// sorted by path.
//
// Description:
//
//	Each record carries the file's symbol count, the names of its
//	exported symbols, and the file paths targeted by imports edges
//	whose source node resides in the file.
func (g *SymbolGraph) Files() []FileInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()

	infos := make([]FileInfo, 0, len(g.fileIndex))
	for filePath, ids := range g.fileIndex {
		info := FileInfo{
			FilePath:        filePath,
			SymbolCount:     len(ids),
			ExportedSymbols: make([]string, 0),
			Imports:         make([]string, 0),
		}
		inFile := make(map[string]bool, len(ids))
		for _, id := range ids {
			inFile[id] = true
			if node, ok := g.nodes[id]; ok && node.Exported {
				info.ExportedSymbols = append(info.ExportedSymbols, node.Name)
			}
		}

		seen := make(map[string]bool)
		for _, edgeID := range g.edgeOrder {
			e := g.edges[edgeID]
			if e.Type != EdgeTypeImports || !inFile[e.Source] {
				continue
			}
			target, ok := g.nodes[e.Target]
			if !ok || seen[target.FilePath] {
				continue
			}
			seen[target.FilePath] = true
			info.Imports = append(info.Imports, target.FilePath)
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].FilePath < infos[j].FilePath })
	return infos
}
