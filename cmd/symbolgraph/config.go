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
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the optional on-disk configuration. All fields have working
// defaults; a missing config file is not an error.
type Config struct {
	// IncludePrivate indexes non-exported symbols too.
	IncludePrivate bool `yaml:"include_private"`

	// BuildCallGraph extracts calls edges.
	BuildCallGraph bool `yaml:"build_call_graph"`

	// BuildTypeRefs extracts extends and implements edges.
	BuildTypeRefs bool `yaml:"build_type_refs"`

	// Parallelism bounds concurrent file parsing. Zero means GOMAXPROCS.
	Parallelism int `yaml:"parallelism"`

	// DebounceMs is the watch-mode debounce window in milliseconds.
	DebounceMs int `yaml:"debounce_ms"`

	// IgnoreDirs are directory names skipped during scanning and
	// watching. Empty keeps the defaults.
	IgnoreDirs []string `yaml:"ignore_dirs"`

	// Include restricts scanning to files matching at least one glob
	// (* within a segment, ** across segments). Empty includes all
	// supported files.
	Include []string `yaml:"include"`

	// Exclude drops files matching any glob. Applied after Include.
	Exclude []string `yaml:"exclude"`
}

// defaultConfig mirrors the builder's defaults.
func defaultConfig() Config {
	return Config{
		IncludePrivate: true,
		BuildCallGraph: true,
		BuildTypeRefs:  true,
	}
}

// loadConfig reads path if it exists, otherwise returns defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// debounce returns the configured debounce window.
func (c Config) debounce() time.Duration {
	if c.DebounceMs <= 0 {
		return 0
	}
	return time.Duration(c.DebounceMs) * time.Millisecond
}
