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
	"encoding/json"
	"fmt"
)

// Snapshot is the serialized form of a graph: plain node and edge
// records. There is no version field; callers wanting forward
// compatibility should wrap the snapshot themselves.
type Snapshot struct {
	Nodes []*SymbolNode `json:"nodes"`
	Edges []*SymbolEdge `json:"edges"`
}

// ToJSON serializes the graph as a {nodes, edges} document.
//
// Description:
//
//	Nodes and edges appear in insertion order, so serialization is
//	deterministic for a given mutation history. A ToJSON/FromJSON round
//	trip reproduces an isomorphic graph: same ids, same attributes,
//	same derived stats.
func (g *SymbolGraph) ToJSON() ([]byte, error) {
	g.mu.RLock()
	snap := Snapshot{
		Nodes: make([]*SymbolNode, 0, len(g.nodes)),
		Edges: make([]*SymbolEdge, 0, len(g.edges)),
	}
	for _, id := range g.nodeOrder {
		if node, ok := g.nodes[id]; ok {
			snap.Nodes = append(snap.Nodes, node)
		}
	}
	for _, id := range g.edgeOrder {
		if edge, ok := g.edges[id]; ok {
			snap.Edges = append(snap.Edges, edge)
		}
	}
	g.mu.RUnlock()

	return json.Marshal(snap)
}

// FromJSON replaces the graph's contents with a serialized snapshot.
//
// Description:
//
//	Destructive: existing state is cleared before importing; a merge
//	is never performed implicitly. Node ids from the snapshot are
//	preserved via the AddNodeWithID path and the id counters are bumped
//	past them, so later AddNode calls never collide. Edges referencing
//	nodes absent from the snapshot fail the import.
//
// Errors:
//
//	ErrInvalidSnapshot - The document cannot be decoded or an edge
//	references a node the snapshot does not contain.
func (g *SymbolGraph) FromJSON(data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.reset()
	for _, node := range snap.Nodes {
		if node == nil || node.ID == "" {
			return fmt.Errorf("%w: node without id", ErrInvalidSnapshot)
		}
		if _, exists := g.nodes[node.ID]; exists {
			g.deleteNodeLocked(node.ID)
		}
		if n, ok := parseIDSuffix(node.ID, nodeIDPrefix); ok && n > g.nextNode {
			g.nextNode = n
		}
		g.insertNodeLocked(node)
	}
	for _, edge := range snap.Edges {
		if edge == nil || edge.ID == "" {
			return fmt.Errorf("%w: edge without id", ErrInvalidSnapshot)
		}
		if _, ok := g.nodes[edge.Source]; !ok {
			return fmt.Errorf("%w: edge %s references unknown source %s",
				ErrInvalidSnapshot, edge.ID, edge.Source)
		}
		if _, ok := g.nodes[edge.Target]; !ok {
			return fmt.Errorf("%w: edge %s references unknown target %s",
				ErrInvalidSnapshot, edge.ID, edge.Target)
		}
		g.addEdgeWithIDLocked(*edge)
	}
	return nil
}
