// Package parse provides Tree-sitter based parsing of top-level statements for
// TypeScript, JavaScript, and Python.
package parse

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// ErrUnsupported is returned for a language without a grammar.
var ErrUnsupported = errors.New("unsupported language")

// Range represents a source code range (0-based line and column).
type Range struct {
	Start [2]int `json:"start"` // [line, col]
	End   [2]int `json:"end"`   // [line, col]
}

// Statement is one top-level syntax node of a file.
type Statement struct {
	Kind string `json:"kind"`
	Name string `json:"name,omitempty"`
	// Text is the full text of the statement including its leading trivia
	// (whitespace and comments since the previous statement).
	Text string `json:"text"`
	// StartLine and EndLine are 1-based and inclusive. They cover attached
	// comments but not blank lines.
	StartLine int   `json:"startLine"`
	EndLine   int   `json:"endLine"`
	Range     Range `json:"range"`
}

// Contains reports whether 1-based line falls inside the statement.
func (s Statement) Contains(line int) bool {
	return line >= s.StartLine && line <= s.EndLine
}

// ParsedFile contains the parsed AST and its top-level statements.
type ParsedFile struct {
	Tree       *sitter.Tree
	Content    []byte
	Statements []Statement
}

type grammar struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

func newGrammar(lang *sitter.Language) *grammar {
	p := sitter.NewParser()
	p.SetLanguage(lang)
	return &grammar{parser: p}
}

// Parser wraps Tree-sitter parsers for each supported language. It is safe
// for concurrent use; parses of the same language are serialized.
type Parser struct {
	grammars map[string]*grammar
}

// NewParser creates a parser with JavaScript, TypeScript, TSX and Python
// grammars.
func NewParser() *Parser {
	return &Parser{
		grammars: map[string]*grammar{
			"js":  newGrammar(javascript.GetLanguage()),
			"ts":  newGrammar(typescript.GetLanguage()),
			"tsx": newGrammar(tsx.GetLanguage()),
			"py":  newGrammar(python.GetLanguage()),
		},
	}
}

// LangFromPath maps a file extension to a grammar name, or "" if the file is
// not a supported source file.
func LangFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return "js"
	case ".ts", ".mts", ".cts":
		return "ts"
	case ".tsx":
		return "tsx"
	case ".py":
		return "py"
	default:
		return ""
	}
}

// Parse parses content with the grammar for lang and collects its top-level
// statements. Syntax errors do not fail the parse; they appear as ERROR
// statements.
func (p *Parser) Parse(ctx context.Context, content []byte, lang string) (*ParsedFile, error) {
	g, ok := p.grammars[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, lang)
	}

	g.mu.Lock()
	tree, err := g.parser.ParseCtx(ctx, nil, content)
	g.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("parsing failed: %w", err)
	}

	return &ParsedFile{
		Tree:       tree,
		Content:    content,
		Statements: topLevel(tree.RootNode(), content),
	}, nil
}

// ParseFile parses content using the grammar selected by the path extension.
func (p *Parser) ParseFile(ctx context.Context, path string, content []byte) (*ParsedFile, error) {
	lang := LangFromPath(path)
	if lang == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
	return p.Parse(ctx, content, lang)
}

// topLevel walks the direct named children of root. Comments are folded into
// the statement that follows them.
func topLevel(root *sitter.Node, content []byte) []Statement {
	var (
		stmts        []Statement
		triviaStart  uint32
		commentStart = -1
	)

	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		if n.Type() == "comment" {
			if commentStart < 0 {
				commentStart = int(n.StartPoint().Row)
			}
			continue
		}

		startRow := int(n.StartPoint().Row)
		if commentStart >= 0 {
			startRow = commentStart
		}

		stmts = append(stmts, Statement{
			Kind:      n.Type(),
			Name:      statementName(n, content),
			Text:      string(content[triviaStart:n.EndByte()]),
			StartLine: startRow + 1,
			EndLine:   endLine(n),
			Range:     nodeRange(n),
		})

		triviaStart = n.EndByte()
		commentStart = -1
	}

	return stmts
}

// endLine returns the 1-based last line of n. A node that ends at column 0
// stops before that row (Python blocks include the trailing newline).
func endLine(n *sitter.Node) int {
	end := n.EndPoint()
	if end.Column == 0 && end.Row > n.StartPoint().Row {
		return int(end.Row)
	}
	return int(end.Row) + 1
}

// statementName finds the declared name of a statement, looking through
// export wrappers and variable declarators.
func statementName(n *sitter.Node, content []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return name.Content(content)
	}
	if decl := n.ChildByFieldName("declaration"); decl != nil {
		return statementName(decl, content)
	}
	if def := n.ChildByFieldName("definition"); def != nil {
		return statementName(def, content)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "variable_declarator" {
			return statementName(child, content)
		}
	}
	return ""
}

func nodeRange(node *sitter.Node) Range {
	startPoint := node.StartPoint()
	endPoint := node.EndPoint()

	return Range{
		Start: [2]int{int(startPoint.Row), int(startPoint.Column)},
		End:   [2]int{int(endPoint.Row), int(endPoint.Column)},
	}
}
