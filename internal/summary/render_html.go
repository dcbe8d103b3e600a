package summary

import (
	"fmt"
	"html"
	"strings"
)

// RenderHTML projects a Document to escaped markup suitable for insertion
// into a trusted rendering surface. Every piece of model-derived text passes
// through html.EscapeString before emission; the only angle brackets in the
// output are the structural tags generated here.
func RenderHTML(doc Document) string {
	if len(doc.Blocks) == 0 {
		return ""
	}

	var b strings.Builder
	for _, blk := range doc.Blocks {
		switch blk.Kind {
		case KindMainSection:
			fmt.Fprintf(&b,
				"<h3 class=\"summary-section\"><span class=\"section-number\">%d.</span> <span class=\"section-title\">%s</span></h3>\n",
				blk.Number, html.EscapeString(blk.Label))

		case KindSubSection:
			fmt.Fprintf(&b, "<span class=\"summary-label\">%s:</span><br>\n", html.EscapeString(blk.Label))

		case KindSubSectionLabeled:
			fmt.Fprintf(&b, "<span class=\"summary-label\">%s:</span> %s<br>\n",
				html.EscapeString(blk.Label), renderInlineHTML(blk.Content))

		case KindHeadline:
			fmt.Fprintf(&b, "<strong class=\"summary-headline\">%s</strong><br>\n", renderInlineHTML(blk.Content))

		case KindList:
			tag := "ul"
			attrs := ""
			if blk.Ordered {
				tag = "ol"
				if len(blk.Items) > 0 && blk.Items[0].Ordinal > 1 {
					attrs = fmt.Sprintf(" start=\"%d\"", blk.Items[0].Ordinal)
				}
			}
			fmt.Fprintf(&b, "<%s%s>\n", tag, attrs)
			for _, item := range blk.Items {
				fmt.Fprintf(&b, "<li>%s</li>\n", renderInlineHTML(item.Content))
			}
			fmt.Fprintf(&b, "</%s>\n", tag)

		case KindParagraph:
			b.WriteString(renderInlineHTML(blk.Content))
			b.WriteString("<br>\n")
		}
	}
	return b.String()
}

func renderInlineHTML(seq InlineSeq) string {
	var b strings.Builder
	for _, sp := range seq {
		if sp.Bold {
			b.WriteString("<strong>")
			b.WriteString(html.EscapeString(sp.Text))
			b.WriteString("</strong>")
		} else {
			b.WriteString(html.EscapeString(sp.Text))
		}
	}
	return b.String()
}
