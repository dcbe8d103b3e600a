package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/mlorenz/recapd/internal/doctree"
)

// TextParser handles plain text notes. Blank lines split paragraphs; each
// paragraph becomes one section.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Materials, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			paragraphs = append(paragraphs, current.String())
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	mat := &doctree.Materials{Title: baseTitle(filename)}
	for _, para := range paragraphs {
		mat.Sections = append(mat.Sections, &doctree.Section{Text: para})
	}
	return mat, nil
}
