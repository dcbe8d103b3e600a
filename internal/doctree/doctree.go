// Package doctree models uploaded meeting materials (slide decks, notes,
// agendas) as a section tree shared by the parsers and the segmenter.
package doctree

import "strings"

// Materials is the root of one parsed upload.
type Materials struct {
	Title    string     // Document title (from metadata or filename)
	Sections []*Section // Top-level sections
}

// Section is a recursive slice of the material.
type Section struct {
	Heading  string     // Section heading (empty for leaf text)
	Text     string     // Text content (may be empty for container sections)
	Page     int        // Source page (0 if N/A)
	Children []*Section // Subsections
}

// FlattenText renders the whole tree as plain text, headings on their own
// lines, for content hashing and for prompts that fit without segmentation.
func (m *Materials) FlattenText() string {
	var sb strings.Builder
	var walk func(sections []*Section)
	walk = func(sections []*Section) {
		for _, s := range sections {
			if s.Heading != "" {
				if sb.Len() > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString(s.Heading)
				sb.WriteString("\n")
			}
			if s.Text != "" {
				if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
					sb.WriteString("\n")
				}
				sb.WriteString(s.Text)
				sb.WriteString("\n")
			}
			walk(s.Children)
		}
	}
	walk(m.Sections)
	return strings.TrimSpace(sb.String())
}

// Segment is a sized run of material text with its heading context, small
// enough to feed the summarizer within the model context budget.
type Segment struct {
	Text       string
	Index      int      // Sequence number within the upload
	Breadcrumb []string // Heading hierarchy, e.g. ["Q3 Review", "Budget"]
	PageStart  int
	PageEnd    int
}
