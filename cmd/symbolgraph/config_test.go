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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/symbolgraph/ast"
	"github.com/AleutianAI/symbolgraph/graph"
)

func TestLoadConfig(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.True(t, cfg.IncludePrivate)
		assert.True(t, cfg.BuildCallGraph)
		assert.True(t, cfg.BuildTypeRefs)
		assert.Equal(t, time.Duration(0), cfg.debounce())
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "symbolgraph.yaml")
		content := "include_private: false\ndebounce_ms: 250\nignore_dirs: [build, .cache]\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := loadConfig(path)
		require.NoError(t, err)
		assert.False(t, cfg.IncludePrivate)
		assert.True(t, cfg.BuildCallGraph, "unset fields keep their defaults")
		assert.Equal(t, 250*time.Millisecond, cfg.debounce())
		assert.Equal(t, []string{"build", ".cache"}, cfg.IgnoreDirs)
	})

	t.Run("malformed yaml fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "symbolgraph.yaml")
		require.NoError(t, os.WriteFile(path, []byte("include_private: [unclosed"), 0o644))
		_, err := loadConfig(path)
		assert.Error(t, err)
	})
}

func TestScanTree(t *testing.T) {
	root := t.TempDir()
	mustWrite := func(rel, content string) {
		t.Helper()
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	mustWrite("src/mathUtils.ts", "export function add(a, b) { return a + b; }")
	mustWrite("src/nested/shapes.tsx", "export const r = 1;")
	mustWrite("node_modules/dep/index.js", "module.exports = {};")
	mustWrite("README.md", "# docs")

	config = defaultConfig()
	paths, err := scanTree(root, ast.NewTreeSitterAdapter())
	require.NoError(t, err)

	assert.Equal(t, []string{"src/mathUtils.ts", "src/nested/shapes.tsx"}, paths,
		"ignored dirs and unsupported files stay out; order is sorted")

	t.Run("exclude globs", func(t *testing.T) {
		config = defaultConfig()
		config.Exclude = []string{"src/nested/**"}
		paths, err := scanTree(root, ast.NewTreeSitterAdapter())
		require.NoError(t, err)
		assert.Equal(t, []string{"src/mathUtils.ts"}, paths)
	})

	t.Run("include globs", func(t *testing.T) {
		config = defaultConfig()
		config.Include = []string{"**/*.tsx"}
		paths, err := scanTree(root, ast.NewTreeSitterAdapter())
		require.NoError(t, err)
		assert.Equal(t, []string{"src/nested/shapes.tsx"}, paths)
	})
}

func TestBuildPipeline(t *testing.T) {
	root := t.TempDir()
	source := "export function add(a, b) { return a + b; }\n" +
		"export function twice(n) { return add(n, n); }\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "mathUtils.ts"), []byte(source), 0o644))

	config = defaultConfig()
	adapter := ast.NewTreeSitterAdapter()
	ctx := context.Background()

	paths, err := scanTree(root, adapter)
	require.NoError(t, err)
	files, err := parseTree(ctx, root, paths, adapter)
	require.NoError(t, err)
	require.Len(t, files, 1)

	builder := newBuilder(adapter)
	g, err := builder.BuildFromFiles(ctx, files)
	require.NoError(t, err)

	assert.Equal(t, 2, g.NodeCount())
	assert.Len(t, g.GetNodesByName("add"), 1)
	assert.NotEmpty(t, g.GetEdgesByType(graph.EdgeTypeCalls), "twice calls add within the file")
}
