package summary

import (
	"fmt"
	"strings"
)

// RenderText projects a Document to plain text for clipboard export. Markup
// is dropped, structure is kept: headers keep their trailing colon and list
// items keep their markers, so feeding the projection back through Compile
// reproduces the same sequence of block kinds.
func RenderText(doc Document) string {
	if len(doc.Blocks) == 0 {
		return ""
	}

	parts := make([]string, 0, len(doc.Blocks))
	for _, blk := range doc.Blocks {
		switch blk.Kind {
		case KindMainSection:
			parts = append(parts, fmt.Sprintf("%d. %s:", blk.Number, blk.Label))

		case KindSubSection:
			parts = append(parts, blk.Label+":")

		case KindSubSectionLabeled:
			parts = append(parts, blk.Label+": "+blk.Content.PlainText())

		case KindHeadline:
			parts = append(parts, blk.Content.PlainText())

		case KindList:
			lines := make([]string, 0, len(blk.Items))
			for i, item := range blk.Items {
				if blk.Ordered {
					n := item.Ordinal
					if n == 0 {
						n = i + 1
					}
					lines = append(lines, fmt.Sprintf("%d. %s", n, item.Content.PlainText()))
				} else {
					lines = append(lines, "• "+item.Content.PlainText())
				}
			}
			parts = append(parts, strings.Join(lines, "\n"))

		case KindParagraph:
			parts = append(parts, blk.Content.PlainText())
		}
	}
	return strings.Join(parts, "\n\n")
}
