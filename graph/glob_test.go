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

import "testing"

func TestCompileGlob(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
		path    string
		match   bool
	}{
		{"single star within segment", "src/*.ts", "src/a.ts", true},
		{"single star stops at slash", "src/*.ts", "src/nested/b.ts", false},
		{"anchored at start", "src/*.ts", "x/src/a.ts", false},
		{"anchored at end", "src/*.ts", "src/a.ts.bak", false},
		{"double star crosses segments", "src/**/*.ts", "src/nested/deep/b.ts", true},
		{"double star matches empty prefix path", "src/**.ts", "src/a.ts", true},
		{"double star alone", "**", "any/path/at/all.ts", true},
		{"literal dots are literal", "a.ts", "axts", false},
		{"exact literal", "src/index.ts", "src/index.ts", true},
		{"star inside name", "src/*Utils.ts", "src/mathUtils.ts", true},
		{"star inside name no slash", "src/*Utils.ts", "src/a/mathUtils.ts", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			re, err := compileGlob(tc.pattern)
			if err != nil {
				t.Fatalf("compileGlob(%q): %v", tc.pattern, err)
			}
			if got := re.MatchString(tc.path); got != tc.match {
				t.Errorf("pattern %q vs %q = %v, want %v", tc.pattern, tc.path, got, tc.match)
			}
		})
	}
}

func TestGlobMatcher(t *testing.T) {
	t.Run("any pattern matches", func(t *testing.T) {
		m, err := NewGlobMatcher("src/**", "lib/*.ts")
		if err != nil {
			t.Fatalf("NewGlobMatcher: %v", err)
		}
		if !m.Match("src/deep/a.ts") {
			t.Error("src/** should match src/deep/a.ts")
		}
		if !m.Match("lib/b.ts") {
			t.Error("lib/*.ts should match lib/b.ts")
		}
		if m.Match("other/c.ts") {
			t.Error("no pattern covers other/c.ts")
		}
	})

	t.Run("empty matcher matches nothing", func(t *testing.T) {
		m, err := NewGlobMatcher()
		if err != nil {
			t.Fatalf("NewGlobMatcher: %v", err)
		}
		if !m.Empty() {
			t.Error("expected Empty() for no patterns")
		}
		if m.Match("anything") {
			t.Error("empty matcher must not match")
		}
	})
}
