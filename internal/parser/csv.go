package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/mlorenz/recapd/internal/doctree"
)

// CSVParser handles tabular material (attendee lists, action-item trackers).
// Rows are rendered as "header: value" lines so the summarizer sees labeled
// data instead of bare cells.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Materials, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	mat := &doctree.Materials{Title: baseTitle(filename)}
	if len(records) < 2 {
		return mat, nil
	}

	headers := records[0]

	const rowsPerSection = 20
	rows := records[1:]
	for i := 0; i < len(rows); i += rowsPerSection {
		end := min(i+rowsPerSection, len(rows))

		var text strings.Builder
		for _, row := range rows[i:end] {
			for j, cell := range row {
				if j > 0 {
					text.WriteString(", ")
				}
				if j < len(headers) {
					text.WriteString(headers[j] + ": " + cell)
				} else {
					text.WriteString(cell)
				}
			}
			text.WriteString("\n")
		}

		mat.Sections = append(mat.Sections, &doctree.Section{
			Heading: fmt.Sprintf("Rows %d-%d", i+1, end),
			Text:    text.String(),
		})
	}
	return mat, nil
}
