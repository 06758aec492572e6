package markdown

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/golang/mock/gomock"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func render(t *testing.T, r *Renderer, src string, theme Theme) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	if err := r.Convert(&buf, src, theme); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func firstParagraph(t *testing.T, src string) ast.Node {
	t.Helper()
	doc := goldmark.DefaultParser().Parse(text.NewReader([]byte(src)))
	p := doc.FirstChild()
	if p == nil || p.Kind() != ast.KindParagraph {
		t.Fatalf("first block of %q is not a paragraph", src)
	}
	return p
}

func TestClassifyParagraph(t *testing.T) {
	tests := []struct {
		src  string
		want ParagraphLayout
	}{
		{"Just some text.", Wrapped},
		{"Text with a [link](/a) and `code`.", Wrapped},
		{"![one](/a.png)", SingleImage},
		{"![one](/a.png) ![two](/b.png)", ImageRow},
		{"![one](/a.png)\n![two](/b.png)\n![three](/c.png)", ImageRow},
	}
	for _, tt := range tests {
		got := ClassifyParagraph(childNodes(firstParagraph(t, tt.src)))
		if got != tt.want {
			t.Errorf("ClassifyParagraph(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestClassifyParagraphEmpty(t *testing.T) {
	if got := ClassifyParagraph(nil); got != Wrapped {
		t.Errorf("ClassifyParagraph(nil) = %v, want %v", got, Wrapped)
	}
}

func TestRenderTwoImagesShareRow(t *testing.T) {
	doc := render(t, NewRenderer(), "![one](/public/a.png) ![two](/public/b.png)", Light)
	if n := doc.Find("p").Length(); n != 0 {
		t.Errorf("found %d <p>, want none", n)
	}
	if n := doc.Find("div.image-row img").Length(); n != 2 {
		t.Errorf("found %d images in the row, want 2", n)
	}
}

func TestRenderSingleImageUnwrapped(t *testing.T) {
	doc := render(t, NewRenderer(), `![Diagram](/public/diagram.png "The flow")`, Light)
	if n := doc.Find("p").Length(); n != 0 {
		t.Errorf("found %d <p>, want none", n)
	}
	img := doc.Find("button.image-zoom img")
	if img.Length() != 1 {
		t.Fatalf("found %d zoomable images, want 1", img.Length())
	}
	if alt, _ := img.Attr("alt"); alt != "Diagram" {
		t.Errorf("alt = %q, want %q", alt, "Diagram")
	}
	if title, _ := img.Attr("title"); title != "The flow" {
		t.Errorf("title = %q, want %q", title, "The flow")
	}
	if class, _ := img.Attr("class"); !strings.Contains(class, "post-image-full") {
		t.Errorf("class = %q, want full width", class)
	}
	if zoom, _ := doc.Find("button.image-zoom").Attr("data-zoom"); zoom != "/public/diagram.png" {
		t.Errorf("data-zoom = %q", zoom)
	}
}

func TestRenderParagraphs(t *testing.T) {
	doc := render(t, NewRenderer(), "Plain words.\n\n> Quoted words.", Light)
	if n := doc.Find("p.prose-paragraph").Length(); n != 1 {
		t.Errorf("found %d prose paragraphs, want 1", n)
	}
	if n := doc.Find("blockquote.post-quote p.quote-paragraph").Length(); n != 1 {
		t.Errorf("found %d quote paragraphs, want 1", n)
	}
}

func TestRenderSmallImages(t *testing.T) {
	doc := render(t, NewRenderer(), "Text ![l](/public/me-small.jpg) and ![r](/public/me-small-right.jpg)", Light)
	imgs := doc.Find("img")
	if imgs.Length() != 2 {
		t.Fatalf("found %d images, want 2", imgs.Length())
	}
	left, _ := imgs.Eq(0).Attr("class")
	right, _ := imgs.Eq(1).Attr("class")
	if !strings.Contains(left, "float-left") {
		t.Errorf("left image class = %q", left)
	}
	if !strings.Contains(right, "float-right") {
		t.Errorf("right image class = %q", right)
	}
}

func TestRenderDarkImageVariant(t *testing.T) {
	ctrl := gomock.NewController(t)
	prober := NewMockImageProber(ctrl)
	prober.EXPECT().Exists("/public/flow-dark-chart.png").Return(true)

	r := NewRenderer(WithProber(prober))
	doc := render(t, r, "![flow](/public/flow-chart.png)", Dark)
	if src, _ := doc.Find("img").Attr("src"); src != "/public/flow-dark-chart.png" {
		t.Errorf("src = %q, want the dark variant", src)
	}
}

func TestRenderDarkImageFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	prober := NewMockImageProber(ctrl)
	prober.EXPECT().Exists("/public/flow-dark-chart.png").Return(false)

	r := NewRenderer(WithProber(prober))
	doc := render(t, r, "![flow](/public/flow-chart.png)", Dark)
	if src, _ := doc.Find("img").Attr("src"); src != "/public/flow-chart.png" {
		t.Errorf("src = %q, want the original", src)
	}
}

func TestRenderLightThemeNeverProbes(t *testing.T) {
	ctrl := gomock.NewController(t)
	prober := NewMockImageProber(ctrl) // any call fails the test

	r := NewRenderer(WithProber(prober))
	doc := render(t, r, "![flow](/public/flow-chart.png)", Light)
	if src, _ := doc.Find("img").Attr("src"); src != "/public/flow-chart.png" {
		t.Errorf("src = %q", src)
	}
}

func TestRenderUnsafeImageFallsBackToAlt(t *testing.T) {
	doc := render(t, NewRenderer(), "![alt text](javascript:alert(1))", Light)
	if n := doc.Find("img").Length(); n != 0 {
		t.Errorf("found %d images, want none", n)
	}
	if !strings.Contains(doc.Text(), "alt text") {
		t.Errorf("text = %q, want the alt text", doc.Text())
	}
}

func TestRenderHeadings(t *testing.T) {
	doc := render(t, NewRenderer(), "# One\n\n## Two\n\n### Three\n\n#### Four", Light)
	for sel, want := range map[string]string{"h1.post-h1": "One", "h2.post-h2": "Two", "h3.post-h3": "Three"} {
		if got := doc.Find(sel).Text(); got != want {
			t.Errorf("%s = %q, want %q", sel, got, want)
		}
	}
	if class, ok := doc.Find("h4").Attr("class"); ok {
		t.Errorf("h4 class = %q, want none", class)
	}
}

func TestRenderFencedCode(t *testing.T) {
	doc := render(t, NewRenderer(), "```go\nfmt.Println(\"hi\")\n```", Light)
	block := doc.Find("div.code-block")
	if block.Length() != 1 {
		t.Fatalf("found %d code blocks, want 1", block.Length())
	}
	if got := block.Find("span.code-lang").Text(); got != "go" {
		t.Errorf("language badge = %q, want %q", got, "go")
	}
	if block.Find("button.copy-code").Length() != 1 {
		t.Error("missing copy button")
	}
	if !strings.Contains(block.Find("pre").Text(), "Println") {
		t.Errorf("code text = %q", block.Find("pre").Text())
	}
}

func TestRenderFencedCodeWithoutLanguage(t *testing.T) {
	doc := render(t, NewRenderer(), "```\nplain <code>\n```", Light)
	block := doc.Find("div.code-block")
	if block.Length() != 1 {
		t.Fatalf("found %d code blocks, want 1", block.Length())
	}
	if block.Find("span.code-lang").Length() != 0 {
		t.Error("code without a language should have no badge")
	}
	if got := block.Find("pre").Text(); !strings.Contains(got, "plain <code>") {
		t.Errorf("code text = %q", got)
	}
}

func TestRenderInlineCode(t *testing.T) {
	doc := render(t, NewRenderer(), "Run `go test <pkg>` now.", Light)
	code := doc.Find("p code.inline-code")
	if got := code.Text(); got != "go test <pkg>" {
		t.Errorf("inline code = %q", got)
	}
}

func TestRenderPassThroughElements(t *testing.T) {
	doc := render(t, NewRenderer(), "- a\n- b\n\n1. one\n\n---\n\n*em* and **strong**", Light)
	if doc.Find("ul.post-list li").Length() != 2 {
		t.Error("missing styled unordered list")
	}
	if doc.Find("ol.post-list-ordered").Length() != 1 {
		t.Error("missing styled ordered list")
	}
	if doc.Find("hr.post-rule").Length() != 1 {
		t.Error("missing styled rule")
	}
	if doc.Find("em").Text() != "em" || doc.Find("strong").Text() != "strong" {
		t.Error("emphasis not rendered")
	}
}

func TestRenderUnknownCodeStyleFallsBack(t *testing.T) {
	doc := render(t, NewRenderer(WithCodeStyle("no-such-style")), "```go\nx := 1\n```", Light)
	if doc.Find("div.code-block pre").Length() != 1 {
		t.Error("expected highlighted code with the default style")
	}
}

func TestFirstImage(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"no images here", ""},
		{"intro\n\n![a](/public/a.png)\n\n![b](/public/b.png)", "/public/a.png"},
		{"> ![quoted](https://example.com/q.jpg)", "https://example.com/q.jpg"},
	}
	for _, tt := range tests {
		if got := FirstImage(tt.content); got != tt.want {
			t.Errorf("FirstImage(%q) = %q, want %q", tt.content, got, tt.want)
		}
	}
}

func TestSafeURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/public/a.png", "/public/a.png"},
		{"#anchor", "#anchor"},
		{"images/a.png", "images/a.png"},
		{"https://example.com/a?b=1&c=2", "https://example.com/a?b=1&amp;c=2"},
		{"mailto:me@example.com", "mailto:me@example.com"},
		{"javascript:alert(1)", ""},
		{"data:text/html,hi", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := SafeURL(tt.input); got != tt.want {
			t.Errorf("SafeURL(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseTheme(t *testing.T) {
	if ParseTheme(" Dark ") != Dark || ParseTheme("light") != Light || ParseTheme("") != Light {
		t.Error("ParseTheme mismatch")
	}
}

func TestMarkdownComponent(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRenderer().Markdown("**hi**", Light).Render(t.Context(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), "<strong>hi</strong>") {
		t.Errorf("output = %q", buf.String())
	}
}
