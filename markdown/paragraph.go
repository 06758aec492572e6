package markdown

import "github.com/yuin/goldmark/ast"

// ParagraphLayout is how a paragraph is wrapped when rendered.
type ParagraphLayout int

const (
	// Wrapped is a normal <p> paragraph.
	Wrapped ParagraphLayout = iota
	// ImageRow lays several images out in a horizontally scrollable row
	// without a <p>.
	ImageRow
	// SingleImage renders a lone image without a <p>; images are block level.
	SingleImage
)

func (l ParagraphLayout) String() string {
	switch l {
	case Wrapped:
		return "wrapped"
	case ImageRow:
		return "image-row"
	case SingleImage:
		return "single-image"
	}
	return "unknown"
}

// ClassifyParagraph picks the layout of a paragraph from its children.
func ClassifyParagraph(children []ast.Node) ParagraphLayout {
	images := 0
	for _, c := range children {
		if c.Kind() == ast.KindImage {
			images++
		}
	}
	switch {
	case images > 1:
		return ImageRow
	case images == 1:
		return SingleImage
	}
	return Wrapped
}

func childNodes(n ast.Node) []ast.Node {
	var out []ast.Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, c)
	}
	return out
}

func inBlockquote(n ast.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == ast.KindBlockquote {
			return true
		}
	}
	return false
}
