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
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/symbolgraph/ast"
)

// Grammar node kind the builder scans for call references.
const callExpressionKind = "call_expression"

// BuilderOptions configures Builder behavior.
type BuilderOptions struct {
	// IncludePrivate controls whether private-visibility symbols are
	// emitted as nodes at all. Default: true.
	IncludePrivate bool

	// BuildCallGraph controls whether calls edges are extracted.
	// Default: true.
	BuildCallGraph bool

	// BuildTypeRefs controls whether extends/implements edges are
	// attempted. Default: true.
	BuildTypeRefs bool

	// MaxDepth is reserved for future nested-structure limits. Accepted
	// but not currently enforced.
	MaxDepth int
}

// DefaultBuilderOptions returns sensible defaults.
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{
		IncludePrivate: true,
		BuildCallGraph: true,
		BuildTypeRefs:  true,
	}
}

// BuilderOption is a functional option for configuring Builder.
type BuilderOption func(*Builder)

// WithIncludePrivate controls emission of private-visibility symbols.
func WithIncludePrivate(include bool) BuilderOption {
	return func(b *Builder) {
		b.options.IncludePrivate = include
	}
}

// WithCallGraph controls extraction of calls edges.
func WithCallGraph(enabled bool) BuilderOption {
	return func(b *Builder) {
		b.options.BuildCallGraph = enabled
	}
}

// WithTypeRefs controls extraction of extends/implements edges.
func WithTypeRefs(enabled bool) BuilderOption {
	return func(b *Builder) {
		b.options.BuildTypeRefs = enabled
	}
}

// WithMaxDepth sets the reserved nested-structure limit.
func WithMaxDepth(depth int) BuilderOption {
	return func(b *Builder) {
		b.options.MaxDepth = depth
	}
}

// WithResolver replaces the default heuristic name resolver.
func WithResolver(r Resolver) BuilderOption {
	return func(b *Builder) {
		b.resolver = r
	}
}

// BuildReport summarizes one build for observability. It never affects
// build semantics: skipped files and unresolved references degrade
// silently per the engine's error policy.
type BuildReport struct {
	// BuildID identifies the build session in logs and traces.
	BuildID string `json:"build_id"`

	// FilesProcessed counts files that contributed symbols.
	FilesProcessed int `json:"files_processed"`

	// FilesSkipped counts nil, unparseable or unsupported files.
	FilesSkipped int `json:"files_skipped"`

	// SkippedFiles lists the paths of skipped files, when known.
	SkippedFiles []string `json:"skipped_files,omitempty"`

	// NodesCreated counts nodes added during the build.
	NodesCreated int `json:"nodes_created"`

	// EdgesCreated counts edges added during the build.
	EdgesCreated int `json:"edges_created"`

	// CallsResolved counts call references resolved to a symbol.
	CallsResolved int `json:"calls_resolved"`

	// CallsUnresolved counts call references with no candidate. High
	// values are normal: resolution is approximate by design.
	CallsUnresolved int `json:"calls_unresolved"`

	// DurationMilli is the build duration in milliseconds.
	DurationMilli int64 `json:"duration_milli"`
}

// Builder constructs symbol graphs from parsed files.
//
// Description:
//
//	Consumes ParsedFiles from an injected parser adapter and drives the
//	SymbolGraph mutation API through a strict two-phase pipeline: first
//	every file's symbols are collected as nodes, then relationships are
//	linked. The phase boundary is an invariant: linking may resolve a
//	reference to any symbol collected anywhere in the batch, so
//	collection must finish for ALL files before linking starts for ANY
//	file. Handing files to BuildFromFiles one at a time in separate
//	calls will NOT resolve cross-file references; that is a documented
//	boundary, not a bug.
//
// Thread Safety:
//
//	NOT safe for concurrent use. A build populates session state across
//	its phases; use one Builder per goroutine.
type Builder struct {
	adapter  ast.Adapter
	options  BuilderOptions
	resolver Resolver

	graph  *SymbolGraph
	report *BuildReport
}

// NewBuilder creates a Builder around the given parser adapter.
//
// Example:
//
//	builder := NewBuilder(ast.NewTreeSitterAdapter(),
//	    WithIncludePrivate(false),
//	)
//	g, err := builder.BuildFromFiles(ctx, files)
func NewBuilder(adapter ast.Adapter, opts ...BuilderOption) *Builder {
	b := &Builder{
		adapter: adapter,
		options: DefaultBuilderOptions(),
		graph:   New(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.resolver == nil {
		b.resolver = &heuristicResolver{graph: b.graph}
	}
	return b
}

// Graph returns the builder's current graph.
func (b *Builder) Graph() *SymbolGraph {
	return b.graph
}

// LastReport returns the report of the most recent build, or nil.
func (b *Builder) LastReport() *BuildReport {
	return b.report
}

// buildState holds the session-scoped state of one build. It is created
// per BuildFromFiles/AddFile call and never shared, so multiple Builder
// instances stay independent.
type buildState struct {
	graph *SymbolGraph

	// byQualifiedName accelerates intra-build lookups of symbols the
	// session itself collected. Not persisted across builds.
	byQualifiedName map[string]string

	// symbols caches each file's extracted (and visibility-filtered)
	// symbol tree between the two phases.
	symbols map[string][]*ast.ExtractedSymbol

	report *BuildReport
}

// BuildFromFiles constructs a fresh graph from a batch of parsed files.
//
// Description:
//
//	Phase 1 collects every file's symbols as nodes; phase 2 links
//	containment, call, inheritance and import edges, resolving names
//	against everything phase 1 collected. Each call builds into a new
//	graph, which replaces the builder's owned graph.
//
//	A nil or rootless file contributes zero symbols and is skipped; it
//	never aborts the rest of the batch.
//
// Errors:
//
//	An AddEdge rejection (missing endpoint) propagates as a reference
//	error. This cannot occur through normal builder operation but can
//	if the graph is mutated concurrently mid-build, which is misuse.
func (b *Builder) BuildFromFiles(ctx context.Context, files []*ast.ParsedFile) (*SymbolGraph, error) {
	ctx, span := startBuildSpan(ctx, len(files))
	defer span.End()

	start := time.Now()
	state := &buildState{
		graph:           New(),
		byQualifiedName: make(map[string]string),
		symbols:         make(map[string][]*ast.ExtractedSymbol),
		report:          &BuildReport{BuildID: uuid.NewString()},
	}

	// Phase 1: collect symbols as nodes across the ENTIRE batch.
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b.collectFile(state, file)
	}

	// Phase 2: link relationships, in any file order.
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if file == nil || file.Root == nil {
			continue
		}
		if err := b.linkFile(state, file); err != nil {
			return nil, err
		}
	}

	duration := time.Since(start)
	state.report.DurationMilli = duration.Milliseconds()

	b.graph = state.graph
	b.report = state.report
	if hr, ok := b.resolver.(*heuristicResolver); ok {
		hr.graph = b.graph
	}

	setBuildSpanResult(span, state.graph.NodeCount(), state.graph.EdgeCount())
	recordBuildMetrics(ctx, duration, state.graph.NodeCount(), state.graph.EdgeCount(), true)
	recordResolutionMetrics(ctx, state.report.CallsResolved, state.report.CallsUnresolved)

	slog.Debug("graph build complete",
		slog.String("build_id", state.report.BuildID),
		slog.Int("files", state.report.FilesProcessed),
		slog.Int("nodes", state.report.NodesCreated),
		slog.Int("edges", state.report.EdgesCreated),
	)

	return b.graph, nil
}

// BuildFromSource parses raw source+path pairs and builds a graph from
// the results.
//
// Description:
//
//	For each pair, checks whether the adapter supports the file's
//	extension and parses it. Unsupported files are skipped, not errors;
//	a file that fails to parse is skipped with a warning and never
//	aborts the batch. The surviving ParsedFiles go through
//	BuildFromFiles, so cross-file resolution covers the whole batch.
func (b *Builder) BuildFromSource(ctx context.Context, sources []ast.SourceFile) (*SymbolGraph, error) {
	parsed := make([]*ast.ParsedFile, 0, len(sources))
	skipped := make([]string, 0)
	for _, src := range sources {
		if !b.adapter.Supports(src.FilePath) {
			slog.Debug("skipping unsupported file", slog.String("file", src.FilePath))
			skipped = append(skipped, src.FilePath)
			continue
		}
		file, err := b.adapter.Parse(ctx, []byte(src.Code), src.FilePath)
		if err != nil {
			slog.Warn("skipping unparseable file",
				slog.String("file", src.FilePath),
				slog.String("error", err.Error()),
			)
			skipped = append(skipped, src.FilePath)
			continue
		}
		parsed = append(parsed, file)
	}

	g, err := b.BuildFromFiles(ctx, parsed)
	if err != nil {
		return nil, err
	}
	b.report.FilesSkipped += len(skipped)
	b.report.SkippedFiles = append(b.report.SkippedFiles, skipped...)
	return g, nil
}

// AddFile incrementally (re-)indexes a single file into the builder's
// owned graph.
//
// Description:
//
//	First removes every node previously indexed for the file's path
//	(idempotent even on first analysis), then runs collection and
//	linking for this one file only.
//
// Limitations:
//
//	This bypasses the batch-wide resolution guarantee of
//	BuildFromFiles: a reference from this file into a file that has not
//	(yet) been (re-)analyzed into the same graph may fail to resolve
//	until that file is also re-added. This is an accepted limitation of
//	incremental single-file updates.
func (b *Builder) AddFile(ctx context.Context, file *ast.ParsedFile) error {
	if file == nil || file.Root == nil {
		return fmt.Errorf("%w: nil parsed file", ErrInvalidNode)
	}

	b.graph.RemoveFile(file.FilePath)

	state := &buildState{
		graph:           b.graph,
		byQualifiedName: make(map[string]string),
		symbols:         make(map[string][]*ast.ExtractedSymbol),
		report:          &BuildReport{BuildID: uuid.NewString()},
	}
	b.collectFile(state, file)
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.linkFile(state, file); err != nil {
		return err
	}
	b.report = state.report
	return nil
}

// collectFile runs phase 1 for one file: extract symbols, filter by
// visibility, insert nodes and record the session's qualified-name map.
func (b *Builder) collectFile(state *buildState, file *ast.ParsedFile) {
	if file == nil || file.Root == nil {
		state.report.FilesSkipped++
		if file != nil {
			state.report.SkippedFiles = append(state.report.SkippedFiles, file.FilePath)
			slog.Warn("skipping file without AST", slog.String("file", file.FilePath))
		}
		return
	}

	symbols := b.filterSymbols(b.adapter.ExtractSymbols(file.Root))
	state.symbols[file.FilePath] = symbols
	b.insertSymbols(state, file.FilePath, symbols)
	state.report.FilesProcessed++
}

// filterSymbols drops private-visibility symbols (and their nested
// declarations) when IncludePrivate is off.
func (b *Builder) filterSymbols(symbols []*ast.ExtractedSymbol) []*ast.ExtractedSymbol {
	if b.options.IncludePrivate {
		return symbols
	}
	kept := make([]*ast.ExtractedSymbol, 0, len(symbols))
	for _, sym := range symbols {
		if sym.Visibility == ast.VisibilityPrivate {
			continue
		}
		if len(sym.Children) > 0 {
			filtered := *sym
			filtered.Children = b.filterSymbols(sym.Children)
			kept = append(kept, &filtered)
			continue
		}
		kept = append(kept, sym)
	}
	return kept
}

// insertSymbols inserts a symbol tree as nodes, depth-first.
func (b *Builder) insertSymbols(state *buildState, filePath string, symbols []*ast.ExtractedSymbol) {
	for _, sym := range symbols {
		node := state.graph.AddNode(SymbolNode{
			Type:           sym.Type,
			Name:           sym.Name,
			FilePath:       filePath,
			Location:       sym.Location,
			Signature:      sym.Signature,
			Docstring:      sym.Docstring,
			Exported:       sym.Exported,
			Visibility:     sym.Visibility,
			Async:          sym.Async,
			Static:         sym.Static,
			ParameterCount: len(sym.Parameters),
		})
		state.byQualifiedName[node.QualifiedName] = node.ID
		state.report.NodesCreated++
		b.insertSymbols(state, filePath, sym.Children)
	}
}

// linkFile runs phase 2 for one file: containment, call, inheritance
// and import edges.
func (b *Builder) linkFile(state *buildState, file *ast.ParsedFile) error {
	for _, sym := range state.symbols[file.FilePath] {
		if err := b.linkSymbol(state, file, sym); err != nil {
			return err
		}
	}
	return b.linkImports(state, file)
}

// linkSymbol links one symbol's relationships, then recurses into its
// children.
func (b *Builder) linkSymbol(state *buildState, file *ast.ParsedFile, sym *ast.ExtractedSymbol) error {
	symID, ok := state.byQualifiedName[QualifiedName(file.FilePath, sym.Name)]
	if !ok {
		return nil
	}

	switch sym.Type {
	case ast.SymbolTypeClass, ast.SymbolTypeInterface:
		if err := b.linkContainment(state, file, symID, sym); err != nil {
			return err
		}
		if b.options.BuildTypeRefs && sym.Type == ast.SymbolTypeClass {
			if err := b.linkHeritage(state, file, symID, sym); err != nil {
				return err
			}
		}
	case ast.SymbolTypeFunction, ast.SymbolTypeMethod:
		if b.options.BuildCallGraph {
			if err := b.linkCalls(state, file, symID, sym); err != nil {
				return err
			}
		}
	}

	for _, child := range sym.Children {
		if err := b.linkSymbol(state, file, child); err != nil {
			return err
		}
	}
	return nil
}

// linkContainment creates contains edges from a class-like symbol to
// its direct method/property children.
func (b *Builder) linkContainment(state *buildState, file *ast.ParsedFile, parentID string, sym *ast.ExtractedSymbol) error {
	for _, child := range sym.Children {
		childID, ok := state.byQualifiedName[QualifiedName(file.FilePath, child.Name)]
		if !ok {
			continue
		}
		if _, err := state.graph.AddEdge(parentID, childID, EdgeTypeContains, 0); err != nil {
			return fmt.Errorf("contains edge %s -> %s: %w", parentID, childID, err)
		}
		state.report.EdgesCreated++
	}
	return nil
}

// linkCalls creates calls edges from a callable symbol to every symbol
// the call expressions in its body appear to reference.
func (b *Builder) linkCalls(state *buildState, file *ast.ParsedFile, symID string, sym *ast.ExtractedSymbol) error {
	if sym.Node == nil {
		return nil
	}
	for _, callNode := range b.adapter.FindByType(sym.Node, callExpressionKind) {
		name := callTargetName(callNode.Text)
		if name == "" {
			continue
		}
		targetID, ok := b.resolveIn(state, name, file.FilePath)
		if !ok {
			// Frequent and expected: approximate resolution simply
			// omits the edge.
			state.report.CallsUnresolved++
			slog.Debug("unresolved call reference",
				slog.String("file", file.FilePath),
				slog.String("caller", sym.Name),
				slog.String("target", name),
			)
			continue
		}
		state.report.CallsResolved++
		if _, err := state.graph.AddEdge(symID, targetID, EdgeTypeCalls, callNode.Location.StartLine); err != nil {
			return fmt.Errorf("calls edge %s -> %s: %w", symID, targetID, err)
		}
		state.report.EdgesCreated++
	}
	return nil
}

// linkHeritage creates extends/implements edges from the textual
// heritage clause of a class declaration.
func (b *Builder) linkHeritage(state *buildState, file *ast.ParsedFile, symID string, sym *ast.ExtractedSymbol) error {
	if sym.Node == nil {
		return nil
	}
	header := classHeader(sym.Node.Text)

	if parent := extendsTarget(header); parent != "" {
		if targetID, ok := b.resolveIn(state, parent, file.FilePath); ok {
			if _, err := state.graph.AddEdge(symID, targetID, EdgeTypeExtends, sym.Location.StartLine); err != nil {
				return fmt.Errorf("extends edge %s -> %s: %w", symID, targetID, err)
			}
			state.report.EdgesCreated++
		}
	}

	for _, iface := range implementsTargets(header) {
		targetID, ok := b.resolveIn(state, iface, file.FilePath)
		if !ok {
			continue
		}
		if _, err := state.graph.AddEdge(symID, targetID, EdgeTypeImplements, sym.Location.StartLine); err != nil {
			return fmt.Errorf("implements edge %s -> %s: %w", symID, targetID, err)
		}
		state.report.EdgesCreated++
	}
	return nil
}

// linkImports creates imports edges for each name bound by the file's
// import statements. The source is the file's first collected symbol,
// an approximation, since imports belong to the file rather than any
// one symbol.
func (b *Builder) linkImports(state *buildState, file *ast.ParsedFile) error {
	imports := b.adapter.ExtractImports(file.Root)
	if len(imports) == 0 {
		return nil
	}

	inFile := state.graph.GetNodesInFile(file.FilePath)
	if len(inFile) == 0 {
		return nil
	}
	sourceID := inFile[0].ID

	for _, imp := range imports {
		for _, name := range imp.Names {
			targetID, ok := b.resolveIn(state, name, file.FilePath)
			if !ok {
				continue
			}
			target, ok := state.graph.GetNode(targetID)
			if !ok || target.FilePath == file.FilePath {
				continue
			}
			if _, err := state.graph.AddEdge(sourceID, targetID, EdgeTypeImports, imp.Line); err != nil {
				return fmt.Errorf("imports edge %s -> %s: %w", sourceID, targetID, err)
			}
			state.report.EdgesCreated++
		}
	}
	return nil
}

// resolveIn resolves a name against the session's graph, trying the
// qualified-name session map first and falling back to the resolver.
func (b *Builder) resolveIn(state *buildState, name, fromFile string) (string, bool) {
	if id, ok := state.byQualifiedName[QualifiedName(fromFile, name)]; ok {
		return id, true
	}
	r := b.resolver
	if hr, ok := r.(*heuristicResolver); ok && hr.graph != state.graph {
		// Session resolution must see the graph being built, not the
		// builder's previous graph.
		r = &heuristicResolver{graph: state.graph}
	}
	return r.Resolve(name, fromFile)
}
