// Package markdown renders post content to HTML.
//
// Rendering is goldmark with the site's element rules layered on top:
// paragraphs are wrapped according to ClassifyParagraph, images follow the
// dark-variant and layout-hint file name conventions, fenced code is
// highlighted with a copy button, and widget markers are split out by
// Segments before any markdown is rendered.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// DefaultCodeStyle is the chroma style used for fenced code.
const DefaultCodeStyle = "onedark"

// Theme selects light or dark image variants.
type Theme int

const (
	Light Theme = iota
	Dark
)

// ParseTheme maps "dark" to Dark and anything else to Light.
func ParseTheme(s string) Theme {
	if strings.EqualFold(strings.TrimSpace(s), "dark") {
		return Dark
	}
	return Light
}

func (t Theme) String() string {
	if t == Dark {
		return "dark"
	}
	return "light"
}

// Renderer converts post markdown to HTML for either theme.
type Renderer struct {
	light   goldmark.Markdown
	dark    goldmark.Markdown
	markers []Marker
}

type config struct {
	prober    ImageProber
	codeStyle string
	markers   []Marker
}

// Option configures a Renderer.
type Option func(*config)

// WithProber sets how dark image variants are probed. Without a prober
// dark variants are never substituted.
func WithProber(p ImageProber) Option {
	return func(c *config) {
		c.prober = p
	}
}

// WithCodeStyle sets the chroma style for fenced code. Unknown styles
// fall back to DefaultCodeStyle.
func WithCodeStyle(style string) Option {
	return func(c *config) {
		c.codeStyle = style
	}
}

// WithMarkers replaces the widget markers.
func WithMarkers(markers []Marker) Option {
	return func(c *config) {
		c.markers = markers
	}
}

// NewRenderer returns a Renderer.
func NewRenderer(opts ...Option) *Renderer {
	cfg := config{codeStyle: DefaultCodeStyle, markers: DefaultMarkers}
	for _, opt := range opts {
		opt(&cfg)
	}
	if _, ok := styles.Registry[cfg.codeStyle]; !ok {
		cfg.codeStyle = DefaultCodeStyle
	}
	return &Renderer{
		light:   newMarkdown(cfg, Light),
		dark:    newMarkdown(cfg, Dark),
		markers: cfg.markers,
	}
}

func newMarkdown(cfg config, theme Theme) goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(cfg.codeStyle),
				highlighting.WithFormatOptions(chromahtml.TabWidth(4)),
				highlighting.WithWrapperRenderer(renderCodeWrapper),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(styleTransformer{}, 100)),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(&nodeRenderer{theme: theme, prober: cfg.prober}, 100)),
		),
	)
}

// Segments splits content around the renderer's widget markers.
func (r *Renderer) Segments(content string) []Segment {
	return Segments(content, r.markers)
}

// Convert renders src as HTML for theme.
func (r *Renderer) Convert(w io.Writer, src string, theme Theme) error {
	md := r.light
	if theme == Dark {
		md = r.dark
	}
	return md.Convert([]byte(src), w)
}

// Markdown returns a templ.Component that renders content as HTML.
func (r *Renderer) Markdown(content string, theme Theme) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := r.Convert(&buf, content, theme); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

var headingClasses = map[int][]byte{
	1: []byte("post-h1"),
	2: []byte("post-h2"),
	3: []byte("post-h3"),
}

// styleTransformer tags the pass-through elements with their classes.
type styleTransformer struct{}

func (styleTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Heading:
			if class, ok := headingClasses[n.Level]; ok {
				n.SetAttributeString("class", class)
			}
		case *ast.Blockquote:
			n.SetAttributeString("class", []byte("post-quote"))
		case *ast.List:
			if n.IsOrdered() {
				n.SetAttributeString("class", []byte("post-list post-list-ordered"))
			} else {
				n.SetAttributeString("class", []byte("post-list"))
			}
		case *ast.ThematicBreak:
			n.SetAttributeString("class", []byte("post-rule"))
		}
		return ast.WalkContinue, nil
	})
}

// nodeRenderer overrides paragraphs, images and inline code.
type nodeRenderer struct {
	theme  Theme
	prober ImageProber
}

func (r *nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindParagraph, r.renderParagraph)
	reg.Register(ast.KindImage, r.renderImage)
	reg.Register(ast.KindCodeSpan, r.renderCodeSpan)
}

func (r *nodeRenderer) renderParagraph(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch ClassifyParagraph(childNodes(n)) {
	case ImageRow:
		if entering {
			_, _ = w.WriteString(`<div class="image-row">`)
		} else {
			_, _ = w.WriteString("</div>\n")
		}
	case SingleImage:
		if !entering {
			_ = w.WriteByte('\n')
		}
	default:
		if entering {
			class := "prose-paragraph"
			if inBlockquote(n) {
				class = "quote-paragraph"
			}
			_, _ = w.WriteString(`<p class="` + class + `">`)
		} else {
			_, _ = w.WriteString("</p>\n")
		}
	}
	return ast.WalkContinue, nil
}

func (r *nodeRenderer) renderImage(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.Image)
	alt := plainText(n, source)
	src := r.resolveImage(string(n.Destination))
	safe := SafeURL(src)
	if safe == "" {
		_, _ = w.WriteString(html.EscapeString(alt))
		return ast.WalkSkipChildren, nil
	}
	class := LayoutHint(src).class()
	fmt.Fprintf(w, `<button type="button" class="image-zoom" data-zoom="%s"><img src="%s" alt="%s" class="%s" loading="lazy" decoding="async"`,
		safe, safe, html.EscapeString(alt), class)
	if len(n.Title) > 0 {
		fmt.Fprintf(w, ` title="%s"`, html.EscapeString(string(n.Title)))
	}
	_, _ = w.WriteString("></button>")
	return ast.WalkSkipChildren, nil
}

// resolveImage swaps in the dark variant of src when the dark theme is
// active and the variant exists. Any probe failure keeps src.
func (r *nodeRenderer) resolveImage(src string) string {
	if r.theme != Dark || r.prober == nil {
		return src
	}
	dark, ok := DarkVariant(src)
	if !ok || !r.prober.Exists(dark) {
		return src
	}
	return dark
}

func (r *nodeRenderer) renderCodeSpan(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("</code>")
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<code class="inline-code">`)
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		t, ok := c.(*ast.Text)
		if !ok {
			continue
		}
		value := t.Segment.Value(source)
		if bytes.HasSuffix(value, []byte("\n")) {
			goldmarkhtml.DefaultWriter.RawWrite(w, value[:len(value)-1])
			_ = w.WriteByte(' ')
		} else {
			goldmarkhtml.DefaultWriter.RawWrite(w, value)
		}
	}
	return ast.WalkSkipChildren, nil
}

func renderCodeWrapper(w util.BufWriter, c highlighting.CodeBlockContext, entering bool) {
	if entering {
		_, _ = w.WriteString(`<div class="code-block">`)
		if lang, ok := c.Language(); ok && len(lang) > 0 {
			l := html.EscapeString(string(lang))
			_, _ = w.WriteString(`<span class="code-lang code-lang-` + l + `">` + l + `</span>`)
		}
		_, _ = w.WriteString(`<button type="button" class="copy-code" data-copy-code aria-label="Copy code">Copy</button>`)
		if !c.Highlighted() {
			_, _ = w.WriteString("<pre><code>")
		}
		return
	}
	if !c.Highlighted() {
		_, _ = w.WriteString("</code></pre>")
	}
	_, _ = w.WriteString("</div>\n")
}

// plainText concatenates the text beneath n.
func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(source))
		case *ast.String:
			b.Write(c.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// FirstImage returns the destination of the first image in content, or
// "" when there is none.
func FirstImage(content string) string {
	src := []byte(content)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))
	var dest string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if img, ok := n.(*ast.Image); ok && entering {
			dest = string(img.Destination)
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return dest
}

// SafeURL validates and sanitizes a URL for use in HTML attributes.
// Relative paths and http, https, mailto and tel URLs are allowed; anything
// else yields "".
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil {
		return ""
	}
	if parsed.Scheme == "" {
		return html.EscapeString(val)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
