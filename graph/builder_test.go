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
	"errors"
	"strings"
	"testing"

	"github.com/AleutianAI/symbolgraph/ast"
)

// fakeAdapter serves canned symbols keyed by file path. Parse stores the
// path in the root node's Text so ExtractSymbols can key off the root.
type fakeAdapter struct {
	symbols map[string][]*ast.ExtractedSymbol
	imports map[string][]ast.ImportInfo
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		symbols: make(map[string][]*ast.ExtractedSymbol),
		imports: make(map[string][]ast.ImportInfo),
	}
}

func (f *fakeAdapter) Supports(filePath string) bool {
	return strings.HasSuffix(filePath, ".ts")
}

func (f *fakeAdapter) Parse(ctx context.Context, code []byte, filePath string) (*ast.ParsedFile, error) {
	if strings.Contains(string(code), "%%broken%%") {
		return nil, errors.New("syntax error")
	}
	return &ast.ParsedFile{FilePath: filePath, Root: fakeRoot(filePath)}, nil
}

func (f *fakeAdapter) ExtractSymbols(root *ast.Node) []*ast.ExtractedSymbol {
	return f.symbols[root.Text]
}

func (f *fakeAdapter) ExtractImports(root *ast.Node) []ast.ImportInfo {
	return f.imports[root.Text]
}

func (f *fakeAdapter) FindByType(n *ast.Node, nodeType string) []*ast.Node {
	return ast.FindByType(n, nodeType)
}

func (f *fakeAdapter) Traverse(n *ast.Node, visit func(*ast.Node) bool) {
	ast.Traverse(n, visit)
}

// fakeRoot builds a program node whose Text carries the file path.
func fakeRoot(filePath string) *ast.Node {
	return &ast.Node{Type: "program", Text: filePath}
}

// fakeFile registers symbols for a path and returns its ParsedFile.
func (f *fakeAdapter) fakeFile(filePath string, symbols ...*ast.ExtractedSymbol) *ast.ParsedFile {
	f.symbols[filePath] = symbols
	return &ast.ParsedFile{FilePath: filePath, Root: fakeRoot(filePath)}
}

// fakeFunc builds a function symbol whose body calls the given names.
func fakeFunc(name string, calls ...string) *ast.ExtractedSymbol {
	node := &ast.Node{
		Type:     "function_declaration",
		Text:     "function " + name + "()",
		Location: ast.Location{StartLine: 1, EndLine: 5},
	}
	for i, target := range calls {
		node.Children = append(node.Children, &ast.Node{
			Type:     "call_expression",
			Text:     target + "()",
			Location: ast.Location{StartLine: 2 + i},
		})
	}
	return &ast.ExtractedSymbol{
		Name:       name,
		Type:       ast.SymbolTypeFunction,
		Location:   node.Location,
		Exported:   true,
		Visibility: ast.VisibilityPublic,
		Node:       node,
	}
}

// fakeClass builds a class symbol with the given header text and members.
func fakeClass(name, header string, members ...*ast.ExtractedSymbol) *ast.ExtractedSymbol {
	node := &ast.Node{
		Type:     "class_declaration",
		Text:     header + " {}",
		Location: ast.Location{StartLine: 1, EndLine: 20},
	}
	return &ast.ExtractedSymbol{
		Name:       name,
		Type:       ast.SymbolTypeClass,
		Location:   node.Location,
		Exported:   true,
		Visibility: ast.VisibilityPublic,
		Node:       node,
		Children:   members,
	}
}

// fakeMethod builds a method symbol for use inside fakeClass.
func fakeMethod(name string, vis ast.Visibility) *ast.ExtractedSymbol {
	return &ast.ExtractedSymbol{
		Name:       name,
		Type:       ast.SymbolTypeMethod,
		Location:   ast.Location{StartLine: 3},
		Exported:   vis == ast.VisibilityPublic,
		Visibility: vis,
		Node:       &ast.Node{Type: "method_definition", Text: name + "() {}"},
	}
}

func TestBuilder_CrossFileCalls(t *testing.T) {
	ctx := context.Background()
	adapter := newFakeAdapter()
	fileA := adapter.fakeFile("src/mathUtils.ts", fakeFunc("add"))
	fileB := adapter.fakeFile("src/main.ts", fakeFunc("main", "add"))

	t.Run("one batch resolves across files", func(t *testing.T) {
		builder := NewBuilder(adapter)
		g, err := builder.BuildFromFiles(ctx, []*ast.ParsedFile{fileA, fileB})
		if err != nil {
			t.Fatalf("BuildFromFiles: %v", err)
		}

		calls := g.GetEdgesByType(EdgeTypeCalls)
		if len(calls) != 1 {
			t.Fatalf("got %d calls edges, want 1", len(calls))
		}
		src, _ := g.GetNode(calls[0].Source)
		dst, _ := g.GetNode(calls[0].Target)
		if src.Name != "main" || dst.Name != "add" {
			t.Errorf("call edge %s -> %s, want main -> add", src.Name, dst.Name)
		}
		if calls[0].Line != 2 {
			t.Errorf("call line = %d, want 2", calls[0].Line)
		}
		if builder.LastReport().CallsResolved != 1 {
			t.Errorf("CallsResolved = %d, want 1", builder.LastReport().CallsResolved)
		}
	})

	t.Run("batch order does not matter", func(t *testing.T) {
		builder := NewBuilder(adapter)
		// main.ts first: the reference points forward in the batch.
		g, err := builder.BuildFromFiles(ctx, []*ast.ParsedFile{fileB, fileA})
		if err != nil {
			t.Fatalf("BuildFromFiles: %v", err)
		}
		if got := len(g.GetEdgesByType(EdgeTypeCalls)); got != 1 {
			t.Errorf("got %d calls edges, want 1 regardless of file order", got)
		}
	})

	t.Run("separate batches do not cross-resolve", func(t *testing.T) {
		builder := NewBuilder(adapter)
		if _, err := builder.BuildFromFiles(ctx, []*ast.ParsedFile{fileA}); err != nil {
			t.Fatalf("first build: %v", err)
		}
		g, err := builder.BuildFromFiles(ctx, []*ast.ParsedFile{fileB})
		if err != nil {
			t.Fatalf("second build: %v", err)
		}

		// Each call builds a fresh graph; add is not in the second one.
		if got := len(g.GetNodesByName("add")); got != 0 {
			t.Fatalf("second build graph contains %d add nodes, want 0", got)
		}
		if got := len(g.GetEdgesByType(EdgeTypeCalls)); got != 0 {
			t.Errorf("got %d calls edges across batches, want 0", got)
		}
		if builder.LastReport().CallsUnresolved != 1 {
			t.Errorf("CallsUnresolved = %d, want 1", builder.LastReport().CallsUnresolved)
		}
	})
}

func TestBuilder_SameFilePreference(t *testing.T) {
	ctx := context.Background()
	adapter := newFakeAdapter()
	fileA := adapter.fakeFile("src/first.ts", fakeFunc("helper"))
	fileB := adapter.fakeFile("src/second.ts", fakeFunc("helper"), fakeFunc("caller", "helper"))

	builder := NewBuilder(adapter)
	g, err := builder.BuildFromFiles(ctx, []*ast.ParsedFile{fileA, fileB})
	if err != nil {
		t.Fatalf("BuildFromFiles: %v", err)
	}

	calls := g.GetEdgesByType(EdgeTypeCalls)
	if len(calls) != 1 {
		t.Fatalf("got %d calls edges, want 1", len(calls))
	}
	target, _ := g.GetNode(calls[0].Target)
	if target.FilePath != "src/second.ts" {
		t.Errorf("call resolved to helper in %s, want the same-file one", target.FilePath)
	}
}

func TestBuilder_Containment(t *testing.T) {
	ctx := context.Background()
	adapter := newFakeAdapter()
	file := adapter.fakeFile("src/animal.ts",
		fakeClass("Animal", "class Animal",
			fakeMethod("speak", ast.VisibilityPublic),
			fakeMethod("_secret", ast.VisibilityPrivate),
		),
	)

	t.Run("contains edges to members", func(t *testing.T) {
		builder := NewBuilder(adapter)
		g, err := builder.BuildFromFiles(ctx, []*ast.ParsedFile{file})
		if err != nil {
			t.Fatalf("BuildFromFiles: %v", err)
		}

		contains := g.GetEdgesByType(EdgeTypeContains)
		if len(contains) != 2 {
			t.Fatalf("got %d contains edges, want 2", len(contains))
		}
		parent, _ := g.GetNode(contains[0].Source)
		if parent.Name != "Animal" {
			t.Errorf("contains source = %s, want Animal", parent.Name)
		}
	})

	t.Run("private members dropped when excluded", func(t *testing.T) {
		builder := NewBuilder(adapter, WithIncludePrivate(false))
		g, err := builder.BuildFromFiles(ctx, []*ast.ParsedFile{file})
		if err != nil {
			t.Fatalf("BuildFromFiles: %v", err)
		}
		if got := len(g.GetNodesByName("_secret")); got != 0 {
			t.Errorf("private member indexed despite IncludePrivate(false)")
		}
		if got := len(g.GetNodesByName("speak")); got != 1 {
			t.Errorf("public member missing, got %d", got)
		}
		if got := len(g.GetEdgesByType(EdgeTypeContains)); got != 1 {
			t.Errorf("got %d contains edges, want 1", got)
		}
	})
}

func TestBuilder_Heritage(t *testing.T) {
	ctx := context.Background()
	adapter := newFakeAdapter()
	base := adapter.fakeFile("src/base.ts",
		fakeClass("Animal", "class Animal"),
		&ast.ExtractedSymbol{
			Name: "Pet", Type: ast.SymbolTypeInterface, Exported: true,
			Visibility: ast.VisibilityPublic,
			Node:       &ast.Node{Type: "interface_declaration", Text: "interface Pet {}"},
		},
	)
	derived := adapter.fakeFile("src/dog.ts",
		fakeClass("Dog", "class Dog extends Animal implements Pet"),
	)

	t.Run("extends and implements edges", func(t *testing.T) {
		builder := NewBuilder(adapter)
		g, err := builder.BuildFromFiles(ctx, []*ast.ParsedFile{base, derived})
		if err != nil {
			t.Fatalf("BuildFromFiles: %v", err)
		}

		ext := g.GetEdgesByType(EdgeTypeExtends)
		if len(ext) != 1 {
			t.Fatalf("got %d extends edges, want 1", len(ext))
		}
		target, _ := g.GetNode(ext[0].Target)
		if target.Name != "Animal" {
			t.Errorf("extends target = %s, want Animal", target.Name)
		}

		impl := g.GetEdgesByType(EdgeTypeImplements)
		if len(impl) != 1 {
			t.Fatalf("got %d implements edges, want 1", len(impl))
		}
		iface, _ := g.GetNode(impl[0].Target)
		if iface.Name != "Pet" {
			t.Errorf("implements target = %s, want Pet", iface.Name)
		}
	})

	t.Run("disabled by WithTypeRefs", func(t *testing.T) {
		builder := NewBuilder(adapter, WithTypeRefs(false))
		g, err := builder.BuildFromFiles(ctx, []*ast.ParsedFile{base, derived})
		if err != nil {
			t.Fatalf("BuildFromFiles: %v", err)
		}
		if got := len(g.GetEdgesByType(EdgeTypeExtends)) + len(g.GetEdgesByType(EdgeTypeImplements)); got != 0 {
			t.Errorf("got %d heritage edges with type refs disabled", got)
		}
	})

	t.Run("unresolved parent omits the edge", func(t *testing.T) {
		builder := NewBuilder(adapter)
		g, err := builder.BuildFromFiles(ctx, []*ast.ParsedFile{derived})
		if err != nil {
			t.Fatalf("BuildFromFiles: %v", err)
		}
		if got := len(g.GetEdgesByType(EdgeTypeExtends)); got != 0 {
			t.Errorf("got %d extends edges without the base file, want 0", got)
		}
	})
}

func TestBuilder_Imports(t *testing.T) {
	ctx := context.Background()
	adapter := newFakeAdapter()
	lib := adapter.fakeFile("src/mathUtils.ts", fakeFunc("add"))
	app := adapter.fakeFile("src/app.ts", fakeFunc("main"))
	adapter.imports["src/app.ts"] = []ast.ImportInfo{
		{Source: "./mathUtils", Names: []string{"add"}, Line: 1},
	}

	builder := NewBuilder(adapter)
	g, err := builder.BuildFromFiles(ctx, []*ast.ParsedFile{lib, app})
	if err != nil {
		t.Fatalf("BuildFromFiles: %v", err)
	}

	imports := g.GetEdgesByType(EdgeTypeImports)
	if len(imports) != 1 {
		t.Fatalf("got %d imports edges, want 1", len(imports))
	}
	src, _ := g.GetNode(imports[0].Source)
	dst, _ := g.GetNode(imports[0].Target)
	if src.FilePath != "src/app.ts" || dst.Name != "add" {
		t.Errorf("imports edge %s -> %s", src.FilePath, dst.Name)
	}
	if imports[0].Line != 1 {
		t.Errorf("import line = %d, want 1", imports[0].Line)
	}
}

func TestBuilder_CallGraphDisabled(t *testing.T) {
	ctx := context.Background()
	adapter := newFakeAdapter()
	fileA := adapter.fakeFile("src/a.ts", fakeFunc("add"))
	fileB := adapter.fakeFile("src/b.ts", fakeFunc("main", "add"))

	builder := NewBuilder(adapter, WithCallGraph(false))
	g, err := builder.BuildFromFiles(ctx, []*ast.ParsedFile{fileA, fileB})
	if err != nil {
		t.Fatalf("BuildFromFiles: %v", err)
	}
	if got := len(g.GetEdgesByType(EdgeTypeCalls)); got != 0 {
		t.Errorf("got %d calls edges with call graph disabled", got)
	}
}

func TestBuilder_SkipsBrokenFiles(t *testing.T) {
	ctx := context.Background()
	adapter := newFakeAdapter()
	adapter.symbols["src/good.ts"] = []*ast.ExtractedSymbol{fakeFunc("ok")}

	t.Run("nil root never aborts the batch", func(t *testing.T) {
		builder := NewBuilder(adapter)
		files := []*ast.ParsedFile{
			{FilePath: "src/bad.ts", Root: nil},
			{FilePath: "src/good.ts", Root: fakeRoot("src/good.ts")},
		}
		g, err := builder.BuildFromFiles(ctx, files)
		if err != nil {
			t.Fatalf("BuildFromFiles: %v", err)
		}
		if got := len(g.GetNodesByName("ok")); got != 1 {
			t.Errorf("good file did not contribute, got %d nodes", got)
		}
		report := builder.LastReport()
		if report.FilesSkipped != 1 || report.FilesProcessed != 1 {
			t.Errorf("report = %d processed / %d skipped, want 1/1",
				report.FilesProcessed, report.FilesSkipped)
		}
	})

	t.Run("BuildFromSource skips unsupported and unparseable", func(t *testing.T) {
		builder := NewBuilder(adapter)
		sources := []ast.SourceFile{
			{FilePath: "src/good.ts", Code: "function ok() {}"},
			{FilePath: "README.md", Code: "# not code"},
			{FilePath: "src/syntax.ts", Code: "%%broken%%"},
		}
		g, err := builder.BuildFromSource(ctx, sources)
		if err != nil {
			t.Fatalf("BuildFromSource: %v", err)
		}
		if g.NodeCount() != 1 {
			t.Errorf("got %d nodes, want only the good file's", g.NodeCount())
		}
		report := builder.LastReport()
		if report.FilesSkipped != 2 {
			t.Errorf("FilesSkipped = %d, want 2", report.FilesSkipped)
		}
		if len(report.SkippedFiles) != 2 {
			t.Errorf("SkippedFiles = %v, want both skipped paths", report.SkippedFiles)
		}
	})
}

func TestBuilder_AddFile(t *testing.T) {
	ctx := context.Background()
	adapter := newFakeAdapter()
	lib := adapter.fakeFile("src/mathUtils.ts", fakeFunc("add"), fakeFunc("sub"))

	builder := NewBuilder(adapter)
	if _, err := builder.BuildFromFiles(ctx, []*ast.ParsedFile{lib}); err != nil {
		t.Fatalf("initial build: %v", err)
	}
	g := builder.Graph()
	oldNodes := g.GetNodesInFile("src/mathUtils.ts")
	if len(oldNodes) != 2 {
		t.Fatalf("setup: got %d nodes, want 2", len(oldNodes))
	}
	oldAddID := oldNodes[0].ID

	// The file now declares add and mul; sub is gone.
	updated := adapter.fakeFile("src/mathUtils.ts", fakeFunc("add"), fakeFunc("mul"))
	if err := builder.AddFile(ctx, updated); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	t.Run("stale symbols removed", func(t *testing.T) {
		if got := len(g.GetNodesByName("sub")); got != 0 {
			t.Errorf("removed symbol sub still indexed")
		}
		if got := len(g.GetNodesInFile("src/mathUtils.ts")); got != 2 {
			t.Errorf("got %d nodes in file after re-index, want 2", got)
		}
	})

	t.Run("re-indexed symbols get fresh ids", func(t *testing.T) {
		nodes := g.GetNodesByName("add")
		if len(nodes) != 1 {
			t.Fatalf("got %d add nodes, want 1", len(nodes))
		}
		if nodes[0].ID == oldAddID {
			t.Errorf("id %q reused across re-index", oldAddID)
		}
	})

	t.Run("nil file is rejected", func(t *testing.T) {
		if err := builder.AddFile(ctx, nil); !errors.Is(err, ErrInvalidNode) {
			t.Errorf("expected ErrInvalidNode, got %v", err)
		}
	})
}

func TestBuilder_NestedSymbolLinking(t *testing.T) {
	ctx := context.Background()
	adapter := newFakeAdapter()

	// A method whose body calls a top-level function in another file.
	method := fakeMethod("run", ast.VisibilityPublic)
	method.Node.Children = []*ast.Node{
		{Type: "call_expression", Text: "add()", Location: ast.Location{StartLine: 4}},
	}
	files := []*ast.ParsedFile{
		adapter.fakeFile("src/mathUtils.ts", fakeFunc("add")),
		adapter.fakeFile("src/runner.ts", fakeClass("Runner", "class Runner", method)),
	}

	builder := NewBuilder(adapter)
	g, err := builder.BuildFromFiles(ctx, files)
	if err != nil {
		t.Fatalf("BuildFromFiles: %v", err)
	}

	calls := g.GetEdgesByType(EdgeTypeCalls)
	if len(calls) != 1 {
		t.Fatalf("got %d calls edges, want 1 from the method", len(calls))
	}
	src, _ := g.GetNode(calls[0].Source)
	if src.Name != "run" || src.Type != ast.SymbolTypeMethod {
		t.Errorf("call source = %s (%s), want method run", src.Name, src.Type)
	}
}
