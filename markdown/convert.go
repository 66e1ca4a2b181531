// Package markdown converts incrementally accumulated markdown into a
// structured document without re-parsing unchanged content on every chunk.
//
// The converter always receives the entire accumulated text (block
// boundaries are not deltable: a later line can retroactively change an
// earlier list or table). It splits the input at the last safe boundary,
// re-parses the safe prefix only when it grows, and parses the unstable
// tail fresh on every call as tentative blocks.
package markdown

import (
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Converter maintains the safe-prefix cache for one growing markdown
// buffer. Each session owns one; the cache is never shared. Not safe for
// concurrent use.
type Converter struct {
	md goldmark.Markdown

	safeSrc    string
	safeBlocks []Block

	lastInput string
	lastDoc   *Document

	// parses counts full goldmark parses, exposed to tests to prove the
	// cache short-circuits re-parsing.
	parses int
}

func NewConverter() *Converter {
	return &Converter{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Convert builds the document for the full accumulated markdown. Repeat
// calls with identical input return the identical document; calls whose
// safe prefix is unchanged reuse the cached prefix blocks and re-parse
// only the tail.
func (c *Converter) Convert(full string) *Document {
	if c.lastDoc != nil && full == c.lastInput {
		return c.lastDoc
	}

	safeLen := safeBoundary(full)
	safe, tail := full[:safeLen], full[safeLen:]

	if safe != c.safeSrc {
		c.safeBlocks = c.parse(safe, false)
		c.safeSrc = safe
	}

	blocks := c.safeBlocks[:len(c.safeBlocks):len(c.safeBlocks)]
	if strings.TrimSpace(tail) != "" {
		blocks = append(blocks, c.tailBlocks(tail)...)
	}

	doc := &Document{Blocks: blocks, Source: full}
	c.lastInput = full
	c.lastDoc = doc
	return doc
}

// tailBlocks parses the unstable tail. A tail that breaks the parser is
// degraded to a plain text paragraph instead of failing the conversion.
func (c *Converter) tailBlocks(tail string) (blocks []Block) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("tentative markdown tail failed to parse",
				slog.Any("panic", r))
			blocks = []Block{{Kind: KindParagraph, Text: strings.TrimSpace(tail), Tentative: true}}
		}
	}()
	return c.parse(tail, true)
}

func (c *Converter) parse(src string, tentative bool) []Block {
	if strings.TrimSpace(src) == "" {
		return nil
	}
	c.parses++

	source := []byte(src)
	root := c.md.Parser().Parse(text.NewReader(source))

	var blocks []Block
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		blocks = append(blocks, blockFrom(n, source, tentative))
	}
	return blocks
}

func blockFrom(n ast.Node, source []byte, tentative bool) Block {
	b := Block{Tentative: tentative}

	switch v := n.(type) {
	case *ast.Heading:
		b.Kind = KindHeading
		b.Level = v.Level
		b.Text = inlineText(n, source)
	case *ast.FencedCodeBlock:
		b.Kind = KindCodeBlock
		b.Info = string(v.Language(source))
		b.Text = rawLines(n, source)
	case *ast.CodeBlock:
		b.Kind = KindCodeBlock
		b.Text = rawLines(n, source)
	case *ast.List:
		b.Kind = KindList
		b.Ordered = v.IsOrdered()
		b.Children = childBlocks(n, source, tentative)
	case *ast.ListItem:
		b.Kind = KindListItem
		b.Children = childBlocks(n, source, tentative)
	case *ast.Blockquote:
		b.Kind = KindBlockquote
		b.Children = childBlocks(n, source, tentative)
	case *ast.ThematicBreak:
		b.Kind = KindRule
	case *ast.HTMLBlock:
		b.Kind = KindHTML
		b.Text = rawLines(n, source)
	case *ast.Paragraph, *ast.TextBlock:
		b.Kind = KindParagraph
		b.Text = inlineText(n, source)
	default:
		b.Kind = KindOther
		b.Text = inlineText(n, source)
	}
	return b
}

func childBlocks(n ast.Node, source []byte, tentative bool) []Block {
	var children []Block
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		children = append(children, blockFrom(child, source, tentative))
	}
	return children
}

func inlineText(n ast.Node, source []byte) string {
	return string(n.Text(source))
}

func rawLines(n ast.Node, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
