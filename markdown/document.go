package markdown

import "strings"

// Kind identifies a block node variant.
type Kind int

const (
	KindParagraph Kind = iota
	KindHeading
	KindCodeBlock
	KindList
	KindListItem
	KindBlockquote
	KindRule
	KindHTML
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindHeading:
		return "heading"
	case KindCodeBlock:
		return "code_block"
	case KindList:
		return "list"
	case KindListItem:
		return "list_item"
	case KindBlockquote:
		return "blockquote"
	case KindRule:
		return "rule"
	case KindHTML:
		return "html"
	default:
		return "other"
	}
}

// Block is one node of the structured document tree.
type Block struct {
	Kind Kind
	// Level is the heading level, zero otherwise.
	Level int
	// Info is the fence info string of a code block (language hint).
	Info string
	// Ordered marks an ordered list.
	Ordered bool
	// Text is the flattened inline text of leaf blocks; for code blocks it
	// holds the literal code.
	Text string
	// Children holds nested blocks (list items, blockquote content).
	Children []Block
	// Tentative marks blocks built from the unstable tail after the last
	// safe boundary; they may change on the next conversion.
	Tentative bool
}

// Document is the structured representation of converted markdown. Once
// returned it is owned by the consumer and never mutated by the converter.
type Document struct {
	Blocks []Block
	// Source is the markdown the document was built from.
	Source string
}

// Text returns the flattened text of the whole document, blocks separated
// by blank lines. Mostly a debugging and testing convenience.
func (d *Document) Text() string {
	parts := make([]string, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		parts = append(parts, b.flatten())
	}
	return joinNonEmpty(parts)
}

func (b Block) flatten() string {
	if len(b.Children) == 0 {
		return b.Text
	}
	parts := make([]string, 0, len(b.Children)+1)
	if b.Text != "" {
		parts = append(parts, b.Text)
	}
	for _, c := range b.Children {
		parts = append(parts, c.flatten())
	}
	return joinNonEmpty(parts)
}

func joinNonEmpty(parts []string) string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
