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
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/AleutianAI/symbolgraph/ast"
)

// Node id prefixes. Ids are opaque to callers; the prefixes exist only
// so AddNodeWithID can keep the counters ahead of imported ids.
const (
	nodeIDPrefix = "sym_"
	edgeIDPrefix = "edge_"
)

// SymbolGraph is the symbol graph store.
//
// Description:
//
//	Owns the node and edge maps plus three secondary indices (by file,
//	by name, by type). Index buckets hold node ids in insertion order;
//	that order is observable through FindByQualifiedName and through
//	the builder's "first match" resolution rule, so it is maintained
//	across removals.
//
// Thread Safety:
//
//	All methods are safe for concurrent use. Mutations take the write
//	lock; queries take the read lock and never mutate state.
type SymbolGraph struct {
	mu sync.RWMutex

	nodes map[string]*SymbolNode
	edges map[string]*SymbolEdge

	// nodeOrder holds node ids in insertion order. Purged on removal.
	nodeOrder []string

	// edgeOrder holds edge ids in insertion order. Purged on removal.
	edgeOrder []string

	// fileIndex maps file path to the ids of nodes declared in it.
	fileIndex map[string][]string

	// nameIndex maps short name to the ids of nodes bearing it.
	nameIndex map[string][]string

	// typeIndex maps symbol type to the ids of nodes of that type.
	typeIndex map[ast.SymbolType][]string

	// nextNode and nextEdge are monotonic id counters. They never
	// decrease, so ids are never reused after removal.
	nextNode uint64
	nextEdge uint64
}

// New creates an empty SymbolGraph.
func New() *SymbolGraph {
	g := &SymbolGraph{}
	g.reset()
	return g
}

// reset reinitializes all maps. Counters are preserved so ids stay
// unique across Clear within one graph instance.
func (g *SymbolGraph) reset() {
	g.nodes = make(map[string]*SymbolNode)
	g.edges = make(map[string]*SymbolEdge)
	g.nodeOrder = g.nodeOrder[:0]
	g.edgeOrder = g.edgeOrder[:0]
	g.fileIndex = make(map[string][]string)
	g.nameIndex = make(map[string][]string)
	g.typeIndex = make(map[ast.SymbolType][]string)
}

// NodeCount returns the number of nodes in the graph.
func (g *SymbolGraph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *SymbolGraph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// AddNode stores a new node built from data and returns it.
//
// Description:
//
//	Assigns a fresh id (any id present on data is ignored), fills in the
//	qualified name when empty, stores the node and updates the file,
//	name and type indices. There is no uniqueness constraint on Name or
//	QualifiedName, so AddNode always succeeds.
//
// Inputs:
//
//	data - The node's attributes. ID is overwritten.
//
// Outputs:
//
//	*SymbolNode - The stored node. Callers must not mutate it.
func (g *SymbolGraph) AddNode(data SymbolNode) *SymbolNode {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nextNode++
	data.ID = nodeIDPrefix + strconv.FormatUint(g.nextNode, 10)
	return g.insertNodeLocked(&data)
}

// AddNodeWithID stores a node preserving its caller-supplied id.
//
// Description:
//
//	Identical to AddNode except the id on node is kept. Used during
//	FromJSON import, where ids must survive the round trip. The caller
//	is responsible for id uniqueness; a duplicate id silently
//	overwrites the previous node (its index entries are purged first).
//	The internal counter is bumped past any numeric suffix so later
//	AddNode calls never collide with imported ids.
func (g *SymbolGraph) AddNodeWithID(node SymbolNode) *SymbolNode {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[node.ID]; exists {
		g.deleteNodeLocked(node.ID)
	}
	if n, ok := parseIDSuffix(node.ID, nodeIDPrefix); ok && n > g.nextNode {
		g.nextNode = n
	}
	return g.insertNodeLocked(&node)
}

// insertNodeLocked stores node and updates every index. Caller holds the
// write lock.
func (g *SymbolGraph) insertNodeLocked(node *SymbolNode) *SymbolNode {
	if node.QualifiedName == "" {
		node.QualifiedName = QualifiedName(node.FilePath, node.Name)
	}

	g.nodes[node.ID] = node
	g.nodeOrder = append(g.nodeOrder, node.ID)
	g.fileIndex[node.FilePath] = append(g.fileIndex[node.FilePath], node.ID)
	g.nameIndex[node.Name] = append(g.nameIndex[node.Name], node.ID)
	g.typeIndex[node.Type] = append(g.typeIndex[node.Type], node.ID)
	return node
}

// AddEdge stores a new directed edge and returns it.
//
// Description:
//
//	Validates that both endpoints exist, then assigns a fresh id and
//	stores the edge. A missing endpoint fails the operation with
//	ErrNodeNotFound naming the missing id; the edge set is not mutated.
//	Edges carry no secondary index; queries scan the edge set directly,
//	which is O(total edges) and acceptable for single-project graphs.
//
// Inputs:
//
//	source - Id of the source node. Must exist.
//	target - Id of the target node. Must exist.
//	edgeType - The relationship type.
//	line - Call-site line for calls edges, zero otherwise.
//
// Errors:
//
//	ErrNodeNotFound - source or target does not reference a live node.
func (g *SymbolGraph) AddEdge(source, target string, edgeType EdgeType, line int) (*SymbolEdge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[source]; !ok {
		return nil, fmt.Errorf("%w: source %s", ErrNodeNotFound, source)
	}
	if _, ok := g.nodes[target]; !ok {
		return nil, fmt.Errorf("%w: target %s", ErrNodeNotFound, target)
	}

	g.nextEdge++
	edge := &SymbolEdge{
		ID:     edgeIDPrefix + strconv.FormatUint(g.nextEdge, 10),
		Source: source,
		Target: target,
		Type:   edgeType,
		Line:   line,
	}
	g.edges[edge.ID] = edge
	g.edgeOrder = append(g.edgeOrder, edge.ID)
	return edge, nil
}

// addEdgeWithIDLocked restores an edge with its original id during
// FromJSON import. Caller holds the write lock and has validated the
// endpoints.
func (g *SymbolGraph) addEdgeWithIDLocked(edge SymbolEdge) {
	if n, ok := parseIDSuffix(edge.ID, edgeIDPrefix); ok && n > g.nextEdge {
		g.nextEdge = n
	}
	g.edges[edge.ID] = &edge
	g.edgeOrder = append(g.edgeOrder, edge.ID)
}

// GetNode retrieves a node by id. The bool reports whether it exists.
func (g *SymbolGraph) GetNode(id string) (*SymbolNode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	node, ok := g.nodes[id]
	return node, ok
}

// GetNodesByName returns every node with the given short name, in
// insertion order. Empty when none match.
func (g *SymbolGraph) GetNodesByName(name string) []*SymbolNode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.collectLocked(g.nameIndex[name])
}

// GetNodesByType returns every node of the given type, in insertion
// order. Empty when none match.
func (g *SymbolGraph) GetNodesByType(symType ast.SymbolType) []*SymbolNode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.collectLocked(g.typeIndex[symType])
}

// GetNodesInFile returns every node declared in the given file, in
// insertion order. Empty when none match.
func (g *SymbolGraph) GetNodesInFile(filePath string) []*SymbolNode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.collectLocked(g.fileIndex[filePath])
}

// collectLocked maps an id bucket to its nodes. Caller holds a lock.
func (g *SymbolGraph) collectLocked(ids []string) []*SymbolNode {
	nodes := make([]*SymbolNode, 0, len(ids))
	for _, id := range ids {
		if node, ok := g.nodes[id]; ok {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// GetOutgoingEdges returns the edges whose source is nodeID.
func (g *SymbolGraph) GetOutgoingEdges(nodeID string) []*SymbolEdge {
	return g.filterEdges(func(e *SymbolEdge) bool { return e.Source == nodeID })
}

// GetIncomingEdges returns the edges whose target is nodeID.
func (g *SymbolGraph) GetIncomingEdges(nodeID string) []*SymbolEdge {
	return g.filterEdges(func(e *SymbolEdge) bool { return e.Target == nodeID })
}

// GetEdges returns every edge incident to nodeID, as source or target.
func (g *SymbolGraph) GetEdges(nodeID string) []*SymbolEdge {
	return g.filterEdges(func(e *SymbolEdge) bool {
		return e.Source == nodeID || e.Target == nodeID
	})
}

// GetEdgesByType returns every edge of the given type.
func (g *SymbolGraph) GetEdgesByType(edgeType EdgeType) []*SymbolEdge {
	return g.filterEdges(func(e *SymbolEdge) bool { return e.Type == edgeType })
}

// filterEdges scans the edge set in insertion order.
func (g *SymbolGraph) filterEdges(keep func(*SymbolEdge) bool) []*SymbolEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edges := make([]*SymbolEdge, 0)
	for _, id := range g.edgeOrder {
		if e, ok := g.edges[id]; ok && keep(e) {
			edges = append(edges, e)
		}
	}
	return edges
}

// GetCallers returns the source nodes of all calls edges targeting
// nodeID, that is, the functions that call it.
func (g *SymbolGraph) GetCallers(nodeID string) []*SymbolNode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	callers := make([]*SymbolNode, 0)
	for _, id := range g.edgeOrder {
		e := g.edges[id]
		if e.Type == EdgeTypeCalls && e.Target == nodeID {
			if node, ok := g.nodes[e.Source]; ok {
				callers = append(callers, node)
			}
		}
	}
	return callers
}

// GetCallees returns the target nodes of all calls edges originating at
// nodeID, that is, the functions it calls.
func (g *SymbolGraph) GetCallees(nodeID string) []*SymbolNode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	callees := make([]*SymbolNode, 0)
	for _, id := range g.edgeOrder {
		e := g.edges[id]
		if e.Type == EdgeTypeCalls && e.Source == nodeID {
			if node, ok := g.nodes[e.Target]; ok {
				callees = append(callees, node)
			}
		}
	}
	return callees
}

// FindByQualifiedName returns the first node (in insertion order) whose
// qualified name matches. Absence is reported through the bool, not an
// error.
func (g *SymbolGraph) FindByQualifiedName(qualifiedName string) (*SymbolNode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, id := range g.nodeOrder {
		if node, ok := g.nodes[id]; ok && node.QualifiedName == qualifiedName {
			return node, true
		}
	}
	return nil, false
}

// RemoveNode removes a node, purges its entries from all three indices
// and removes every edge incident to it.
//
// Outputs:
//
//	bool - False when the id did not exist (not an error).
func (g *SymbolGraph) RemoveNode(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[id]; !ok {
		return false
	}
	g.deleteNodeLocked(id)
	return true
}

// RemoveFile removes every node declared in filePath, and transitively
// their edges. Returns the number of nodes removed. Idempotent: an
// unknown path removes zero nodes.
func (g *SymbolGraph) RemoveFile(filePath string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	ids := g.fileIndex[filePath]
	if len(ids) == 0 {
		return 0
	}
	// deleteNodeLocked mutates the bucket, so work on a copy.
	removed := make([]string, len(ids))
	copy(removed, ids)
	for _, id := range removed {
		g.deleteNodeLocked(id)
	}
	return len(removed)
}

// Clear empties all node and edge maps and indices. Id counters are
// preserved, so ids from before the clear are never reissued.
func (g *SymbolGraph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reset()
}

// deleteNodeLocked removes one node, its index entries and its incident
// edges. Caller holds the write lock. The node, index and edge updates
// happen under the same critical section, so no reader can observe a
// node missing from one index but present in another.
func (g *SymbolGraph) deleteNodeLocked(id string) {
	node, ok := g.nodes[id]
	if !ok {
		return
	}

	delete(g.nodes, id)
	g.nodeOrder = removeID(g.nodeOrder, id)

	g.fileIndex[node.FilePath] = removeID(g.fileIndex[node.FilePath], id)
	if len(g.fileIndex[node.FilePath]) == 0 {
		delete(g.fileIndex, node.FilePath)
	}
	g.nameIndex[node.Name] = removeID(g.nameIndex[node.Name], id)
	if len(g.nameIndex[node.Name]) == 0 {
		delete(g.nameIndex, node.Name)
	}
	g.typeIndex[node.Type] = removeID(g.typeIndex[node.Type], id)
	if len(g.typeIndex[node.Type]) == 0 {
		delete(g.typeIndex, node.Type)
	}

	// Drop every edge incident to the removed node.
	for edgeID, edge := range g.edges {
		if edge.Source == id || edge.Target == id {
			delete(g.edges, edgeID)
			g.edgeOrder = removeID(g.edgeOrder, edgeID)
		}
	}
}

// removeID filters one id out of a bucket, preserving order.
func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

// parseIDSuffix extracts the numeric suffix of a prefixed id.
func parseIDSuffix(id, prefix string) (uint64, bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(id, prefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
