package markdown

import "strings"

// Kind tells prose segments from widget segments.
type Kind int

const (
	KindMarkdown Kind = iota
	KindWidget
)

func (k Kind) String() string {
	switch k {
	case KindMarkdown:
		return "markdown"
	case KindWidget:
		return "widget"
	}
	return "unknown"
}

// Segment is one piece of post content: markdown text or a named widget.
type Segment struct {
	Kind Kind
	Text string // set for KindMarkdown
	Name string // set for KindWidget
}

// Marker is a literal token in post content standing for a widget.
type Marker struct {
	Name  string
	Token string
}

// Widget names.
const (
	WidgetChatbot       = "chatbot"
	WidgetVisualization = "visualization"
)

// DefaultMarkers are the widget markers recognized in posts.
var DefaultMarkers = []Marker{
	{Name: WidgetChatbot, Token: "[[chatbot]]"},
	{Name: WidgetVisualization, Token: "[[visualization]]"},
}

// Segments splits content around every occurrence of a marker token,
// keeping order. Markdown segments that are blank after trimming are
// dropped; widget segments are always kept. Text that only resembles a
// marker stays in the markdown untouched.
func Segments(content string, markers []Marker) []Segment {
	var out []Segment
	emit := func(text string) {
		if strings.TrimSpace(text) != "" {
			out = append(out, Segment{Kind: KindMarkdown, Text: text})
		}
	}
	rest := content
	for {
		i, m := nextMarker(rest, markers)
		if i < 0 {
			emit(rest)
			return out
		}
		emit(rest[:i])
		out = append(out, Segment{Kind: KindWidget, Name: m.Name})
		rest = rest[i+len(m.Token):]
	}
}

// nextMarker returns the earliest marker in s. On a tie the longer token
// wins. It returns -1 when no marker occurs.
func nextMarker(s string, markers []Marker) (int, Marker) {
	best := -1
	var found Marker
	for _, m := range markers {
		if m.Token == "" {
			continue
		}
		i := strings.Index(s, m.Token)
		if i < 0 {
			continue
		}
		if best < 0 || i < best || (i == best && len(m.Token) > len(found.Token)) {
			best, found = i, m
		}
	}
	return best, found
}
