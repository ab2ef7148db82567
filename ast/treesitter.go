// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("aleutian.symbolgraph.ast")

// DefaultMaxFileSize is the largest file the adapter will parse (10MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// Grammar node kinds the adapter recognizes.
const (
	nodeProgram             = "program"
	nodeExportStatement     = "export_statement"
	nodeFunctionDeclaration = "function_declaration"
	nodeClassDeclaration    = "class_declaration"
	nodeInterfaceDecl       = "interface_declaration"
	nodeTypeAliasDecl       = "type_alias_declaration"
	nodeLexicalDeclaration  = "lexical_declaration"
	nodeVariableDeclaration = "variable_declaration"
	nodeVariableDeclarator  = "variable_declarator"
	nodeMethodDefinition    = "method_definition"
	nodeFieldDefinition     = "field_definition"
	nodePublicFieldDef      = "public_field_definition"
	nodeClassBody           = "class_body"
	nodeArrowFunction       = "arrow_function"
	nodeFunctionExpression  = "function_expression"
	nodeFormalParameters    = "formal_parameters"
	nodeImportStatement     = "import_statement"
	nodeImportClause        = "import_clause"
	nodeImportSpecifier     = "import_specifier"
	nodeNamedImports        = "named_imports"
	nodeComment             = "comment"
	nodeIdentifier          = "identifier"
	nodeTypeIdentifier      = "type_identifier"
	nodePropertyIdentifier  = "property_identifier"
	nodeString              = "string"
	nodeAccessibility       = "accessibility_modifier"
)

// TreeSitterAdapterOption configures a TreeSitterAdapter.
type TreeSitterAdapterOption func(*TreeSitterAdapter)

// WithMaxFileSize sets the largest file size the adapter will parse.
func WithMaxFileSize(bytes int64) TreeSitterAdapterOption {
	return func(a *TreeSitterAdapter) {
		if bytes > 0 {
			a.maxFileSize = bytes
		}
	}
}

// TreeSitterAdapter implements Adapter for JavaScript and TypeScript
// using tree-sitter grammars.
//
// Description:
//
//	Parses .js/.jsx/.mjs files with the JavaScript grammar, .ts with the
//	TypeScript grammar and .tsx with the TSX grammar, then converts the
//	tree-sitter CST into the language-neutral Node shape. Extraction is
//	shared across all three grammars since their declaration node kinds
//	coincide.
//
// Thread Safety:
//
//	Safe for concurrent use. Each Parse call creates its own tree-sitter
//	parser instance.
type TreeSitterAdapter struct {
	maxFileSize int64
}

// NewTreeSitterAdapter creates a TreeSitterAdapter with default limits.
func NewTreeSitterAdapter(opts ...TreeSitterAdapterOption) *TreeSitterAdapter {
	a := &TreeSitterAdapter{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Supports reports whether the file extension maps to a known grammar.
func (a *TreeSitterAdapter) Supports(filePath string) bool {
	return languageFor(filePath) != nil
}

// languageFor returns the tree-sitter language for a file, or nil.
func languageFor(filePath string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return javascript.GetLanguage()
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	case ".tsx":
		return tsx.GetLanguage()
	default:
		return nil
	}
}

// Parse converts raw source into a ParsedFile.
//
// Description:
//
//	Selects the grammar from the file extension, parses with tree-sitter
//	and converts the resulting CST into the neutral Node tree. Syntax
//	errors produce error nodes in the tree rather than a failed parse,
//	so partially broken files still contribute their parseable symbols.
//
// Errors:
//
//	Returns an error when the extension is unsupported, the file exceeds
//	the size limit, or tree-sitter fails outright (e.g. cancellation).
func (a *TreeSitterAdapter) Parse(ctx context.Context, code []byte, filePath string) (*ParsedFile, error) {
	ctx, span := tracer.Start(ctx, "TreeSitterAdapter.Parse",
		trace.WithAttributes(
			attribute.String("file", filePath),
			attribute.Int("bytes", len(code)),
		),
	)
	defer span.End()

	lang := languageFor(filePath)
	if lang == nil {
		return nil, fmt.Errorf("unsupported file extension: %s", filePath)
	}
	if int64(len(code)) > a.maxFileSize {
		return nil, fmt.Errorf("file %s exceeds size limit (%d bytes)", filePath, a.maxFileSize)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, code)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	defer tree.Close()

	root := convertNode(tree.RootNode(), code)
	span.SetAttributes(attribute.Int("ast.child_count", len(root.Children)))

	return &ParsedFile{FilePath: filePath, Root: root}, nil
}

// ExtractSymbols returns the declarations in the tree rooted at root.
func (a *TreeSitterAdapter) ExtractSymbols(root *Node) []*ExtractedSymbol {
	return extractProgramSymbols(root)
}

// ExtractImports returns the import statements in the tree rooted at root.
func (a *TreeSitterAdapter) ExtractImports(root *Node) []ImportInfo {
	imports := make([]ImportInfo, 0)
	for _, stmt := range FindByType(root, nodeImportStatement) {
		imp := ImportInfo{Line: stmt.Location.StartLine}
		if src := childByType(stmt, nodeString); src != nil {
			imp.Source = strings.Trim(src.Text, `"'`+"`")
		}
		if clause := childByType(stmt, nodeImportClause); clause != nil {
			// Default import binds a bare identifier.
			if def := childByType(clause, nodeIdentifier); def != nil {
				imp.Names = append(imp.Names, def.Text)
			}
			for _, spec := range FindByType(clause, nodeImportSpecifier) {
				if name := childByType(spec, nodeIdentifier); name != nil {
					imp.Names = append(imp.Names, name.Text)
				}
			}
		}
		if imp.Source != "" {
			imports = append(imports, imp)
		}
	}
	return imports
}

// FindByType implements Adapter by delegating to the package function.
func (a *TreeSitterAdapter) FindByType(n *Node, nodeType string) []*Node {
	return FindByType(n, nodeType)
}

// Traverse implements Adapter by delegating to the package function.
func (a *TreeSitterAdapter) Traverse(n *Node, visit func(*Node) bool) {
	Traverse(n, visit)
}

// convertNode converts a tree-sitter node (and its subtree) into the
// neutral Node shape. Anonymous tokens are kept so extraction can see
// modifier keywords like "async" and "static".
func convertNode(n *sitter.Node, code []byte) *Node {
	node := &Node{
		Type: n.Type(),
		Text: string(code[n.StartByte():n.EndByte()]),
		Location: Location{
			StartLine: int(n.StartPoint().Row) + 1,
			StartCol:  int(n.StartPoint().Column),
			EndLine:   int(n.EndPoint().Row) + 1,
			EndCol:    int(n.EndPoint().Column),
		},
	}
	count := int(n.ChildCount())
	if count > 0 {
		node.Children = make([]*Node, 0, count)
		for i := 0; i < count; i++ {
			child := n.Child(i)
			if child != nil {
				node.Children = append(node.Children, convertNode(child, code))
			}
		}
	}
	return node
}

// extractProgramSymbols walks the top level of a program, unwrapping
// export statements and tracking the preceding comment as a docstring.
func extractProgramSymbols(root *Node) []*ExtractedSymbol {
	symbols := make([]*ExtractedSymbol, 0)
	if root == nil {
		return symbols
	}

	var lastComment string
	for _, child := range root.Children {
		if child.Type == nodeComment {
			lastComment = cleanComment(child.Text)
			continue
		}

		exported := false
		decl := child
		if child.Type == nodeExportStatement {
			exported = true
			if inner := declarationChild(child); inner != nil {
				decl = inner
			}
		}

		for _, sym := range extractDeclaration(decl, exported) {
			if sym.Docstring == "" {
				sym.Docstring = lastComment
			}
			symbols = append(symbols, sym)
		}
		lastComment = ""
	}
	return symbols
}

// declarationChild returns the declaration wrapped by an export statement.
func declarationChild(export *Node) *Node {
	for _, c := range export.Children {
		switch c.Type {
		case nodeFunctionDeclaration, nodeClassDeclaration, nodeInterfaceDecl,
			nodeTypeAliasDecl, nodeLexicalDeclaration, nodeVariableDeclaration:
			return c
		}
	}
	return nil
}

// extractDeclaration converts one declaration node into symbols. Lexical
// declarations can bind several declarators, hence the slice.
func extractDeclaration(decl *Node, exported bool) []*ExtractedSymbol {
	switch decl.Type {
	case nodeFunctionDeclaration:
		if sym := functionSymbol(decl, exported); sym != nil {
			return []*ExtractedSymbol{sym}
		}
	case nodeClassDeclaration:
		if sym := classSymbol(decl, exported); sym != nil {
			return []*ExtractedSymbol{sym}
		}
	case nodeInterfaceDecl:
		if name := nameOf(decl); name != "" {
			return []*ExtractedSymbol{newSymbol(name, SymbolTypeInterface, decl, exported)}
		}
	case nodeTypeAliasDecl:
		if name := nameOf(decl); name != "" {
			return []*ExtractedSymbol{newSymbol(name, SymbolTypeType, decl, exported)}
		}
	case nodeLexicalDeclaration, nodeVariableDeclaration:
		return declaratorSymbols(decl, exported)
	}
	return nil
}

// functionSymbol builds a function symbol from a function_declaration.
func functionSymbol(decl *Node, exported bool) *ExtractedSymbol {
	name := nameOf(decl)
	if name == "" {
		return nil
	}
	sym := newSymbol(name, SymbolTypeFunction, decl, exported)
	sym.Async = hasToken(decl, "async")
	sym.Parameters = parameterNames(decl)
	return sym
}

// classSymbol builds a class symbol with its members as children.
func classSymbol(decl *Node, exported bool) *ExtractedSymbol {
	name := nameOf(decl)
	if name == "" {
		return nil
	}
	sym := newSymbol(name, SymbolTypeClass, decl, exported)

	body := childByType(decl, nodeClassBody)
	if body == nil {
		return sym
	}

	var lastComment string
	for _, member := range body.Children {
		switch member.Type {
		case nodeComment:
			lastComment = cleanComment(member.Text)
			continue
		case nodeMethodDefinition:
			if m := methodSymbol(member, exported); m != nil {
				m.Docstring = lastComment
				sym.Children = append(sym.Children, m)
			}
		case nodeFieldDefinition, nodePublicFieldDef:
			if name := memberName(member); name != "" {
				f := newSymbol(name, SymbolTypeProperty, member, exported)
				f.Visibility = memberVisibility(member, name)
				f.Static = hasToken(member, "static")
				f.Docstring = lastComment
				sym.Children = append(sym.Children, f)
			}
		}
		lastComment = ""
	}
	return sym
}

// methodSymbol builds a method symbol from a method_definition.
func methodSymbol(member *Node, classExported bool) *ExtractedSymbol {
	name := memberName(member)
	if name == "" {
		return nil
	}
	vis := memberVisibility(member, name)
	sym := newSymbol(name, SymbolTypeMethod, member, classExported && vis == VisibilityPublic)
	sym.Visibility = vis
	sym.Async = hasToken(member, "async")
	sym.Static = hasToken(member, "static")
	sym.Parameters = parameterNames(member)
	return sym
}

// declaratorSymbols builds symbols for each declarator in a let/const/var
// statement. Declarators initialized with a function expression or arrow
// function are classified as functions.
func declaratorSymbols(decl *Node, exported bool) []*ExtractedSymbol {
	isConst := hasToken(decl, "const")
	symbols := make([]*ExtractedSymbol, 0, 1)
	for _, d := range decl.Children {
		if d.Type != nodeVariableDeclarator {
			continue
		}
		name := nameOf(d)
		if name == "" {
			continue
		}
		symType := SymbolTypeVariable
		if isConst {
			symType = SymbolTypeConstant
		}
		var fnNode *Node
		if fn := childByType(d, nodeArrowFunction); fn != nil {
			fnNode = fn
		} else if fn := childByType(d, nodeFunctionExpression); fn != nil {
			fnNode = fn
		}
		if fnNode != nil {
			symType = SymbolTypeFunction
		}
		// The declarator subtree scopes relationship extraction, so calls
		// in sibling declarators stay separate.
		sym := newSymbol(name, symType, d, exported)
		if fnNode != nil {
			sym.Async = hasToken(fnNode, "async")
			sym.Parameters = parameterNames(fnNode)
		}
		symbols = append(symbols, sym)
	}
	return symbols
}

// newSymbol fills the fields common to every extracted symbol.
func newSymbol(name string, symType SymbolType, node *Node, exported bool) *ExtractedSymbol {
	vis := VisibilityPublic
	if strings.HasPrefix(name, "_") || strings.HasPrefix(name, "#") {
		vis = VisibilityPrivate
		exported = false
	}
	return &ExtractedSymbol{
		Name:       name,
		Type:       symType,
		Location:   node.Location,
		Signature:  signatureOf(node),
		Exported:   exported,
		Visibility: vis,
		Node:       node,
	}
}

// nameOf returns the declared identifier of a declaration node.
func nameOf(decl *Node) string {
	for _, c := range decl.Children {
		if c.Type == nodeIdentifier || c.Type == nodeTypeIdentifier {
			return c.Text
		}
	}
	return ""
}

// memberName returns the name of a class member.
func memberName(member *Node) string {
	for _, c := range member.Children {
		if c.Type == nodePropertyIdentifier || c.Type == "private_property_identifier" {
			return c.Text
		}
	}
	return ""
}

// memberVisibility resolves a class member's access level from its
// TypeScript accessibility modifier or naming convention.
func memberVisibility(member *Node, name string) Visibility {
	if mod := childByType(member, nodeAccessibility); mod != nil {
		switch mod.Text {
		case "private":
			return VisibilityPrivate
		case "protected":
			return VisibilityProtected
		}
	}
	if strings.HasPrefix(name, "_") || strings.HasPrefix(name, "#") {
		return VisibilityPrivate
	}
	return VisibilityPublic
}

// parameterNames extracts declared parameter names from the callable's
// formal parameter list.
func parameterNames(callable *Node) []string {
	params := childByType(callable, nodeFormalParameters)
	if params == nil {
		return nil
	}
	names := make([]string, 0, len(params.Children))
	for _, p := range params.Children {
		switch p.Type {
		case nodeIdentifier:
			names = append(names, p.Text)
		case "required_parameter", "optional_parameter":
			if id := childByType(p, nodeIdentifier); id != nil {
				names = append(names, id.Text)
			}
		}
	}
	return names
}

// signatureOf returns the declaration header: the first line of the node's
// text, truncated before the body.
func signatureOf(node *Node) string {
	text := node.Text
	if idx := strings.IndexByte(text, '{'); idx >= 0 {
		text = text[:idx]
	}
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// childByType returns the first direct child of the given type, or nil.
func childByType(n *Node, nodeType string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Type == nodeType {
			return c
		}
	}
	return nil
}

// hasToken reports whether n has a direct child token of the given text,
// e.g. the "async" or "static" keyword.
func hasToken(n *Node, token string) bool {
	for _, c := range n.Children {
		if c.Type == token {
			return true
		}
	}
	return false
}

// cleanComment strips comment markers from a raw comment block.
func cleanComment(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "/*") {
		text = strings.TrimPrefix(text, "/**")
		text = strings.TrimPrefix(text, "/*")
		text = strings.TrimSuffix(text, "*/")
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimPrefix(strings.TrimSpace(line), "* ")
			lines[i] = strings.TrimPrefix(lines[i], "*")
		}
		return strings.TrimSpace(strings.Join(lines, "\n"))
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "//"))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
