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
	"github.com/spf13/cobra"
)

var (
	configPath string
	outputPath string

	flagIncludePrivate bool
	flagCallGraph      bool
	flagTypeRefs       bool

	queryTypes    []string
	queryFileGlob string
	queryExported bool
	queryLimit    int
	queryEdges    bool

	config Config

	rootCmd = &cobra.Command{
		Use:   "symbolgraph",
		Short: "Build and query in-memory symbol graphs for JS/TS source trees",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			config, err = loadConfig(configPath)
			if err != nil {
				return err
			}
			// Flags beat config file values.
			flags := cmd.Root().PersistentFlags()
			if flags.Changed("include-private") {
				config.IncludePrivate = flagIncludePrivate
			}
			if flags.Changed("call-graph") {
				config.BuildCallGraph = flagCallGraph
			}
			if flags.Changed("type-refs") {
				config.BuildTypeRefs = flagTypeRefs
			}
			return nil
		},
	}

	buildCmd = &cobra.Command{
		Use:   "build [root]",
		Short: "Index a source tree and write the graph snapshot as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runBuild, // Defined in cmd_build.go
	}

	statsCmd = &cobra.Command{
		Use:   "stats [snapshot]",
		Short: "Print node and edge counts for a graph snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  runStats, // Defined in cmd_query.go
	}

	queryCmd = &cobra.Command{
		Use:   "query [snapshot]",
		Short: "Filter a graph snapshot by symbol type, file glob, and visibility",
		Args:  cobra.ExactArgs(1),
		RunE:  runQuery, // Defined in cmd_query.go
	}

	watchCmd = &cobra.Command{
		Use:   "watch [root]",
		Short: "Index a source tree and keep the graph current as files change",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch, // Defined in cmd_watch.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "symbolgraph.yaml", "Path to the optional YAML config")
	rootCmd.PersistentFlags().BoolVar(&flagIncludePrivate, "include-private", true, "Index non-exported symbols")
	rootCmd.PersistentFlags().BoolVar(&flagCallGraph, "call-graph", true, "Extract calls edges")
	rootCmd.PersistentFlags().BoolVar(&flagTypeRefs, "type-refs", true, "Extract extends/implements edges")

	buildCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the JSON snapshot here instead of stdout")

	queryCmd.Flags().StringSliceVar(&queryTypes, "type", nil, "Symbol types to keep (function, method, class, interface, type, variable, constant, property)")
	queryCmd.Flags().StringVar(&queryFileGlob, "file", "", "File glob filter (* within a segment, ** across segments)")
	queryCmd.Flags().BoolVar(&queryExported, "exported", false, "Keep exported symbols only")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "Truncate results after N nodes (0 = no limit)")
	queryCmd.Flags().BoolVar(&queryEdges, "edges", false, "Include edges among the result nodes")

	rootCmd.AddCommand(buildCmd, statsCmd, queryCmd, watchCmd)
}
