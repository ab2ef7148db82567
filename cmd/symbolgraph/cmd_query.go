// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/symbolgraph/ast"
	"github.com/AleutianAI/symbolgraph/graph"
)

// loadSnapshot restores a graph from a JSON snapshot on disk.
func loadSnapshot(path string) (*graph.SymbolGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	g := graph.New()
	if err := g.FromJSON(data); err != nil {
		return nil, fmt.Errorf("restoring snapshot %s: %w", path, err)
	}
	return g, nil
}

func runStats(cmd *cobra.Command, args []string) error {
	g, err := loadSnapshot(args[0])
	if err != nil {
		return err
	}
	stats := g.Stats()

	fmt.Printf("Nodes:    %d\n", stats.NodeCount)
	fmt.Printf("Edges:    %d\n", stats.EdgeCount)
	fmt.Printf("Files:    %d\n", stats.FileCount)
	fmt.Printf("Exported: %d\n", stats.ExportedCount)

	types := make([]string, 0, len(stats.NodesByType))
	for t := range stats.NodesByType {
		types = append(types, string(t))
	}
	sort.Strings(types)
	fmt.Println("\nNodes by type:")
	for _, t := range types {
		fmt.Printf("  %-10s %d\n", t, stats.NodesByType[ast.SymbolType(t)])
	}

	edgeTypes := make([]string, 0, len(stats.EdgesByType))
	for t := range stats.EdgesByType {
		edgeTypes = append(edgeTypes, string(t))
	}
	sort.Strings(edgeTypes)
	fmt.Println("\nEdges by type:")
	for _, t := range edgeTypes {
		fmt.Printf("  %-10s %d\n", t, stats.EdgesByType[graph.EdgeType(t)])
	}
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	g, err := loadSnapshot(args[0])
	if err != nil {
		return err
	}

	opts := graph.QueryOptions{
		FilePath:     queryFileGlob,
		ExportedOnly: queryExported,
		Limit:        queryLimit,
		IncludeEdges: queryEdges,
	}
	for _, t := range queryTypes {
		opts.Types = append(opts.Types, ast.SymbolType(t))
	}

	result, err := g.Query(opts)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	if _, err := os.Stdout.Write(out); err != nil {
		return err
	}
	fmt.Println()
	if result.TotalCount > len(result.Nodes) {
		fmt.Fprintf(os.Stderr, "showing %d of %d matches\n", len(result.Nodes), result.TotalCount)
	}
	return nil
}
