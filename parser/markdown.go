package parser

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gotext "github.com/yuin/goldmark/text"
)

var _ Parser = Markdown{}

// Markdown extracts plain text from Markdown content by walking the
// parsed AST. Headings and paragraphs become blank-line separated
// blocks; code block contents are kept verbatim.
type Markdown struct{}

func (Markdown) Parse(data []byte) (string, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(gotext.NewReader(data))

	var sb strings.Builder
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			switch node := n.(type) {
			case *ast.Text:
				sb.Write(node.Segment.Value(data))
				if node.SoftLineBreak() || node.HardLineBreak() {
					sb.WriteByte('\n')
				}
			case *ast.FencedCodeBlock:
				writeCodeLines(&sb, node, data)
			case *ast.CodeBlock:
				writeCodeLines(&sb, node, data)
			}
			return ast.WalkContinue, nil
		}

		switch n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.FencedCodeBlock, *ast.CodeBlock:
			sb.WriteString("\n\n")
		case *ast.ListItem:
			sb.WriteByte('\n')
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(sb.String()), nil
}

func writeCodeLines(sb *strings.Builder, node interface{ Lines() *gotext.Segments }, data []byte) {
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		sb.Write(lines.At(i).Value(data))
	}
}
