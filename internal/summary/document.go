// Package summary compiles free-form model output (a meeting summary) into a
// structured document: numbered sections, labels, lists, and inline emphasis,
// with an escaped HTML projection and a plain-text projection for clipboard
// export. Compilation is pure and total: any input, including empty or
// adversarial text, yields a valid Document.
package summary

// BlockKind identifies the variant of a Block. The set is closed; renderers
// switch over every kind.
type BlockKind int

const (
	// KindMainSection is a numbered top-level heading, e.g. "3. Risk Assessment:".
	KindMainSection BlockKind = iota
	// KindSubSection is a standalone label line ending in a colon.
	KindSubSection
	// KindSubSectionLabeled is a label line with trailing prose on the same line.
	KindSubSectionLabeled
	// KindHeadline is a legacy full-line "**...**" wrapped heading.
	KindHeadline
	// KindList is a maximal run of consecutive same-kind list lines.
	KindList
	// KindParagraph is any line not matching a more specific rule.
	KindParagraph
)

func (k BlockKind) String() string {
	switch k {
	case KindMainSection:
		return "main_section"
	case KindSubSection:
		return "sub_section"
	case KindSubSectionLabeled:
		return "sub_section_labeled"
	case KindHeadline:
		return "headline"
	case KindList:
		return "list"
	case KindParagraph:
		return "paragraph"
	}
	return "unknown"
}

// Block is one element of a Document. Which fields are meaningful depends on
// Kind:
//
//	KindMainSection:       Number, Label
//	KindSubSection:        Label
//	KindSubSectionLabeled: Label, Content
//	KindHeadline:          Content
//	KindList:              Ordered, Items
//	KindParagraph:         Content
type Block struct {
	Kind    BlockKind
	Number  int
	Label   string
	Ordered bool
	Items   []ListItem
	Content InlineSeq
}

// ListItem is a single entry of a list block. Ordinal is only set for
// ordered lists.
type ListItem struct {
	Ordinal int
	Content InlineSeq
}

// Document is the ordered block sequence produced from one summarization
// result. It is built once, rendered, and discarded; nothing mutates it after
// Compile returns.
type Document struct {
	Blocks []Block
}

// InlineSpan is a contiguous run of plain or bold text.
type InlineSpan struct {
	Bold bool
	Text string
}

// InlineSeq is the inline content of a block.
type InlineSeq []InlineSpan

// PlainText returns the sequence's text with formatting discarded.
func (s InlineSeq) PlainText() string {
	if len(s) == 1 {
		return s[0].Text
	}
	var n int
	for _, sp := range s {
		n += len(sp.Text)
	}
	b := make([]byte, 0, n)
	for _, sp := range s {
		b = append(b, sp.Text...)
	}
	return string(b)
}
