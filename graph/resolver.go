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
	"regexp"
	"strings"
)

// Resolver maps a bare identifier referenced in some file to a node id.
//
// The default implementation is a best-effort heuristic without type
// checking; false positives and negatives versus a real type checker
// are expected. The interface exists so a semantic resolver can replace
// the heuristic later without touching graph storage or builder code.
type Resolver interface {
	// Resolve returns the id of the node the name most plausibly refers
	// to when referenced from fromFile. ok is false when no candidate
	// exists.
	Resolve(name, fromFile string) (nodeID string, ok bool)
}

// heuristicResolver resolves names against the graph's name index.
//
// Resolution rule:
//  1. Collect all nodes sharing the short name.
//  2. If several, prefer one declared in the referencing file.
//  3. Otherwise take the first match in node-insertion order.
type heuristicResolver struct {
	graph *SymbolGraph
}

func (r *heuristicResolver) Resolve(name, fromFile string) (string, bool) {
	candidates := r.graph.GetNodesByName(name)
	if len(candidates) == 0 {
		return "", false
	}
	for _, c := range candidates {
		if c.FilePath == fromFile {
			return c.ID, true
		}
	}
	return candidates[0].ID, true
}

// Textual heuristics for relationship extraction. These operate on the
// raw text of AST nodes supplied by the adapter and are known sources
// of false positives/negatives.
var (
	// callTargetRe captures the identifier immediately preceding the
	// argument list of a call expression. For member calls like
	// "utils.add(1, 2)" it captures the final segment, "add".
	callTargetRe = regexp.MustCompile(`([A-Za-z_$][A-Za-z0-9_$]*)\s*\($`)

	// extendsRe captures the single superclass name of a class header.
	extendsRe = regexp.MustCompile(`\bextends\s+([A-Za-z_$][A-Za-z0-9_$]*)`)

	// implementsRe captures the raw implements clause of a class header,
	// up to the class body or an extends clause that follows it.
	implementsRe = regexp.MustCompile(`\bimplements\s+([^{]+)`)

	// identifierRe matches a bare identifier.
	identifierRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
)

// callTargetName extracts the referenced function name from a call
// expression's text, e.g. "add" from "add(1, 2)" and from
// "mathUtils.add(1, 2)". Returns "" when no identifier can be found.
func callTargetName(text string) string {
	open := strings.IndexByte(text, '(')
	if open < 0 {
		return ""
	}
	m := callTargetRe.FindStringSubmatch(text[:open+1])
	if m == nil {
		return ""
	}
	return m[1]
}

// extendsTarget extracts the superclass name from a class header, or "".
func extendsTarget(header string) string {
	m := extendsRe.FindStringSubmatch(header)
	if m == nil {
		return ""
	}
	return m[1]
}

// implementsTargets extracts the interface names from a class header's
// implements clause. The comma split is angle-bracket aware, so generic
// arguments, including nested ones like "Mapper<K, List<V>>", never
// split the list. Generic arguments are stripped from each name.
func implementsTargets(header string) []string {
	m := implementsRe.FindStringSubmatch(header)
	if m == nil {
		return nil
	}
	clause := m[1]
	// An extends clause can trail the implements list in some dialects.
	if idx := strings.Index(clause, " extends "); idx >= 0 {
		clause = clause[:idx]
	}

	names := make([]string, 0, 2)
	depth := 0
	start := 0
	flush := func(end int) {
		part := strings.TrimSpace(clause[start:end])
		if angle := strings.IndexByte(part, '<'); angle >= 0 {
			part = strings.TrimSpace(part[:angle])
		}
		if identifierRe.MatchString(part) {
			names = append(names, part)
		}
	}
	for i := 0; i < len(clause); i++ {
		switch clause[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				flush(i)
				start = i + 1
			}
		}
	}
	flush(len(clause))
	return names
}

// classHeader returns the declaration header of a class node's text:
// everything before the body brace, collapsed to one line.
func classHeader(text string) string {
	if idx := strings.IndexByte(text, '{'); idx >= 0 {
		text = text[:idx]
	}
	return strings.Join(strings.Fields(text), " ")
}
