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
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/symbolgraph/ast"
	"github.com/AleutianAI/symbolgraph/graph"
)

// ignoredDir reports whether a directory name is excluded from scans.
func ignoredDir(name string) bool {
	dirs := config.IgnoreDirs
	if len(dirs) == 0 {
		dirs = []string{".git", "node_modules", "vendor", "dist"}
	}
	for _, d := range dirs {
		if name == d {
			return true
		}
	}
	return false
}

// scanTree collects the supported source files under root, as
// slash-separated paths relative to root, in sorted order so builds are
// deterministic. The config's include/exclude globs apply to the
// relative paths.
func scanTree(root string, adapter ast.Adapter) ([]string, error) {
	include, err := graph.NewGlobMatcher(config.Include...)
	if err != nil {
		return nil, fmt.Errorf("include globs: %w", err)
	}
	exclude, err := graph.NewGlobMatcher(config.Exclude...)
	if err != nil {
		return nil, fmt.Errorf("exclude globs: %w", err)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if ignoredDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if adapter.Supports(path) {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if !include.Empty() && !include.Match(rel) {
				return nil
			}
			if exclude.Match(rel) {
				return nil
			}
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// parseTree parses the given files concurrently. Parse failures and
// read failures skip the file; the build goes on with what parsed.
func parseTree(ctx context.Context, root string, paths []string, adapter ast.Adapter) ([]*ast.ParsedFile, error) {
	limit := config.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	parsed := make([]*ast.ParsedFile, len(paths))
	var mu sync.Mutex
	skipped := 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, rel := range paths {
		g.Go(func() error {
			code, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
			if err != nil {
				slog.Warn("skipping unreadable file",
					slog.String("file", rel),
					slog.String("error", err.Error()),
				)
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}
			file, err := adapter.Parse(ctx, code, rel)
			if err != nil {
				slog.Warn("skipping unparseable file",
					slog.String("file", rel),
					slog.String("error", err.Error()),
				)
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}
			parsed[i] = file
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*ast.ParsedFile, 0, len(parsed))
	for _, f := range parsed {
		if f != nil {
			out = append(out, f)
		}
	}
	if skipped > 0 {
		slog.Info("build continuing without some files", slog.Int("skipped", skipped))
	}
	return out, nil
}

// newBuilder wires a builder from the loaded config.
func newBuilder(adapter ast.Adapter) *graph.Builder {
	return graph.NewBuilder(adapter,
		graph.WithIncludePrivate(config.IncludePrivate),
		graph.WithCallGraph(config.BuildCallGraph),
		graph.WithTypeRefs(config.BuildTypeRefs),
	)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	root := args[0]
	adapter := ast.NewTreeSitterAdapter()

	paths, err := scanTree(root, adapter)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", root, err)
	}
	files, err := parseTree(ctx, root, paths, adapter)
	if err != nil {
		return err
	}

	builder := newBuilder(adapter)
	g, err := builder.BuildFromFiles(ctx, files)
	if err != nil {
		return fmt.Errorf("building graph: %w", err)
	}

	report := builder.LastReport()
	slog.Info("graph built",
		slog.Int("files", report.FilesProcessed),
		slog.Int("nodes", report.NodesCreated),
		slog.Int("edges", report.EdgesCreated),
		slog.Int("calls_resolved", report.CallsResolved),
		slog.Int("calls_unresolved", report.CallsUnresolved),
		slog.Int64("duration_ms", report.DurationMilli),
	)

	data, err := g.ToJSON()
	if err != nil {
		return fmt.Errorf("serializing graph: %w", err)
	}
	if outputPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}
	slog.Info("snapshot written", slog.String("path", outputPath))
	return nil
}
