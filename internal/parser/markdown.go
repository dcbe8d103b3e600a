package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/mlorenz/recapd/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown notes using goldmark. Headings define the
// section tree; everything between headings is collected as section text.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Materials, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	mat := &doctree.Materials{Title: baseTitle(filename)}
	st := newSectionStack(mat.Title)

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			st.openSection(string(h.Text(src)), h.Level)
			continue
		}
		st.appendText(markdownText(n, src))
	}
	st.finish(mat)
	return mat, nil
}

// markdownText gets the text content of a goldmark AST node.
func markdownText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(markdownText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}

// sectionStack builds a Materials tree from a stream of headings and text,
// nesting each heading under the nearest one of a lower level.
type sectionStack struct {
	root    *doctree.Section
	entries []stackEntry
	pending strings.Builder
}

type stackEntry struct {
	section *doctree.Section
	level   int
}

func newSectionStack(title string) *sectionStack {
	root := &doctree.Section{Heading: title}
	return &sectionStack{
		root:    root,
		entries: []stackEntry{{section: root, level: 0}},
	}
}

func (s *sectionStack) top() *doctree.Section {
	return s.entries[len(s.entries)-1].section
}

func (s *sectionStack) flushText() {
	t := strings.TrimSpace(s.pending.String())
	if t != "" {
		top := s.top()
		if top.Text != "" {
			top.Text += "\n\n" + t
		} else {
			top.Text = t
		}
	}
	s.pending.Reset()
}

func (s *sectionStack) appendText(t string) {
	if t == "" {
		return
	}
	if s.pending.Len() > 0 {
		s.pending.WriteString("\n\n")
	}
	s.pending.WriteString(t)
}

func (s *sectionStack) openSection(heading string, level int) {
	s.flushText()
	sec := &doctree.Section{Heading: heading}
	for len(s.entries) > 1 && s.entries[len(s.entries)-1].level >= level {
		s.entries = s.entries[:len(s.entries)-1]
	}
	parent := s.top()
	parent.Children = append(parent.Children, sec)
	s.entries = append(s.entries, stackEntry{section: sec, level: level})
}

// finish flushes buffered text and moves the built tree onto mat. Material
// with no headings at all collapses into a single leaf section.
func (s *sectionStack) finish(mat *doctree.Materials) {
	s.flushText()
	mat.Sections = s.root.Children
	if len(mat.Sections) == 0 && s.root.Text != "" {
		mat.Sections = []*doctree.Section{{Text: s.root.Text}}
	}
}
