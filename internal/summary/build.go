package summary

import "strings"

// Compile turns raw model output into a Document. It is a pure function:
// no I/O, no shared state, and no failure path — malformed input degrades to
// paragraph blocks rather than an error.
func Compile(text string) Document {
	text = Preprocess(text)

	var doc Document
	var open *Block // current open list run, nil when none

	flush := func() {
		if open != nil {
			doc.Blocks = append(doc.Blocks, *open)
			open = nil
		}
	}
	emit := func(b Block) {
		flush()
		doc.Blocks = append(doc.Blocks, b)
	}

	for _, raw := range strings.Split(text, "\n") {
		cl := ClassifyLine(raw)
		switch cl.Class {
		case ClassBlank:
			// Blank lines produce no block, and an open list run survives
			// them: closing here would leave two list blocks with the same
			// ordered flag side by side whenever the model double-spaces
			// its items.

		case ClassBullet:
			if open == nil || open.Ordered {
				flush()
				open = &Block{Kind: KindList}
			}
			open.Items = append(open.Items, ListItem{Content: ParseInline(cl.Text)})

		case ClassNumbered:
			if open == nil || !open.Ordered {
				flush()
				open = &Block{Kind: KindList, Ordered: true}
			}
			open.Items = append(open.Items, ListItem{Ordinal: cl.Number, Content: ParseInline(cl.Text)})

		case ClassMainSection:
			emit(Block{Kind: KindMainSection, Number: cl.Number, Label: cl.Label})
			// Prose after the header colon belongs to the body, not the
			// heading.
			if cl.Text != "" {
				doc.Blocks = append(doc.Blocks, Block{Kind: KindParagraph, Content: ParseInline(cl.Text)})
			}

		case ClassSubSection:
			emit(Block{Kind: KindSubSection, Label: cl.Label})

		case ClassSubSectionLabeled:
			emit(Block{Kind: KindSubSectionLabeled, Label: cl.Label, Content: ParseInline(cl.Text)})

		case ClassHeadline:
			emit(Block{Kind: KindHeadline, Content: InlineSeq{{Text: cl.Text}}})

		case ClassParagraph:
			emit(Block{Kind: KindParagraph, Content: ParseInline(cl.Text)})
		}
	}
	flush()

	return doc
}
