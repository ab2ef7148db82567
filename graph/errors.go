// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides the symbol graph store and its builder.
//
// The graph package contains an in-memory, incrementally-buildable directed
// graph of the symbols declared across a source tree (functions, methods,
// classes, interfaces, variables) and the relationships between them
// (containment, calls, inheritance, imports). It is the analytical backbone
// behind navigation, impact analysis and call-graph queries.
//
// # Data Model
//
// Nodes and edges are plain value records stored in id-keyed maps; all
// relationships (edges and the secondary index buckets) are represented
// purely as id sets. There are no pointers between node objects, which
// keeps ownership acyclic and serialization trivial.
//
// # Thread Safety
//
// SymbolGraph serializes all access through a single read-write lock.
// Mutations (AddNode, AddEdge, RemoveNode, RemoveFile, Clear, FromJSON)
// take the write lock; every query takes the read lock and never mutates
// state, so any number of readers may run concurrently. Concurrent
// mutation from multiple writers is serialized, not parallelized.
//
// Builder is NOT safe for concurrent use: a build populates a session
// resolution map across its two phases and assumes no concurrent
// mutation of the graph in between. Use one Builder per goroutine.
//
// # Lifecycle
//
// A typical lifecycle:
//  1. Create a Builder with an Adapter: NewBuilder(adapter)
//  2. Build with BuildFromFiles() or BuildFromSource()
//  3. Query the returned SymbolGraph
//  4. Re-index changed files incrementally with AddFile()
package graph

import "errors"

// Sentinel errors for graph operations.
var (
	// ErrNodeNotFound is returned when an edge references a non-existent
	// node. Both source and target must exist before an edge can be
	// created; a missing endpoint always fails the AddEdge call rather
	// than silently dropping the edge, because downstream call-graph
	// completeness depends on edges never being lost quietly.
	ErrNodeNotFound = errors.New("node not found")

	// ErrInvalidNode is returned when node data fails validation,
	// e.g. an empty name or file path where one is required.
	ErrInvalidNode = errors.New("invalid node")

	// ErrInvalidPattern is returned when a query's file glob pattern
	// cannot be compiled.
	ErrInvalidPattern = errors.New("invalid glob pattern")

	// ErrInvalidSnapshot is returned by FromJSON when the serialized
	// form cannot be decoded or references unknown nodes.
	ErrInvalidSnapshot = errors.New("invalid graph snapshot")
)
