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
	"regexp"
	"strings"
)

// compileGlob converts a file glob into an anchored regular expression.
//
// Semantics:
//   - `*` matches any characters except `/` (within one path segment)
//   - `**` matches any characters including `/` (across segments)
//   - everything else matches literally
//
// The pattern is anchored at both ends, so "src/*.ts" matches
// "src/a.ts" but not "src/nested/b.ts" and not "x/src/a.ts".
func compileGlob(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '*' {
			b.WriteString(regexp.QuoteMeta(string(c)))
			continue
		}
		if i+1 < len(pattern) && pattern[i+1] == '*' {
			b.WriteString(".*")
			i++
			continue
		}
		b.WriteString("[^/]*")
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
	}
	return re, nil
}

// GlobMatcher matches slash-separated paths against a compiled set of
// glob patterns, with the same `*`/`**` semantics Query uses.
type GlobMatcher struct {
	patterns []*regexp.Regexp
}

// NewGlobMatcher compiles the given patterns.
//
// Errors:
//
//	ErrInvalidPattern - A pattern could not be compiled.
func NewGlobMatcher(patterns ...string) (*GlobMatcher, error) {
	m := &GlobMatcher{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := compileGlob(p)
		if err != nil {
			return nil, err
		}
		m.patterns = append(m.patterns, re)
	}
	return m, nil
}

// Match reports whether the path matches any of the patterns. A
// matcher with no patterns matches nothing.
func (m *GlobMatcher) Match(path string) bool {
	for _, re := range m.patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// Empty reports whether the matcher has no patterns.
func (m *GlobMatcher) Empty() bool {
	return len(m.patterns) == 0
}
