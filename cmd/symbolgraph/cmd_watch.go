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
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/symbolgraph/ast"
	"github.com/AleutianAI/symbolgraph/graph"
)

func runWatch(cmd *cobra.Command, args []string) error {
	root := args[0]
	adapter := ast.NewTreeSitterAdapter()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initial full build so the watcher starts from a complete graph.
	paths, err := scanTree(root, adapter)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", root, err)
	}
	files, err := parseTree(ctx, root, paths, adapter)
	if err != nil {
		return err
	}
	builder := newBuilder(adapter)
	if _, err := builder.BuildFromFiles(ctx, files); err != nil {
		return fmt.Errorf("initial build: %w", err)
	}
	report := builder.LastReport()
	slog.Info("initial build complete",
		slog.Int("files", report.FilesProcessed),
		slog.Int("nodes", report.NodesCreated),
		slog.Int("edges", report.EdgesCreated),
	)

	var watchOpts []graph.WatcherOption
	if d := config.debounce(); d > 0 {
		watchOpts = append(watchOpts, graph.WithDebounceWindow(d))
	}
	if len(config.IgnoreDirs) > 0 {
		watchOpts = append(watchOpts, graph.WithIgnoreDirs(config.IgnoreDirs))
	}

	watcher, err := graph.NewWatcher(builder, root, watchOpts...)
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Stop()

	slog.Info("watching for changes", slog.String("root", root))
	<-ctx.Done()
	if err := context.Cause(ctx); err != nil && err != context.Canceled {
		return err
	}
	slog.Info("shutting down")
	return nil
}
