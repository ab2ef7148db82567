// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command symbolgraph builds and queries in-memory symbol graphs for
// JavaScript and TypeScript source trees.
//
// Usage:
//
//	symbolgraph build ./src -o graph.json
//	symbolgraph stats graph.json
//	symbolgraph query graph.json --type function --file 'src/**/*.ts'
//	symbolgraph watch ./src
package main

import (
	"log/slog"
	"os"

	"github.com/AleutianAI/symbolgraph/pkg/logging"
)

func main() {
	level := logging.LevelInfo
	if os.Getenv("SYMBOLGRAPH_DEBUG") != "" {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{
		Level:  level,
		LogDir: os.Getenv("SYMBOLGRAPH_LOG_DIR"),
	})
	defer logger.Close()
	logger.SetAsDefault()

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
