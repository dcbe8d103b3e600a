package summary

import "strings"

// ParseInline expands paired "**" delimiters into bold spans. Pairing is
// greedy and non-overlapping: the first "**" opens a span, the next one
// closes it. An unpaired trailing "**" stays literal text. Nesting is not
// supported.
func ParseInline(text string) InlineSeq {
	if text == "" {
		return nil
	}
	if !strings.Contains(text, "**") {
		return InlineSeq{{Text: text}}
	}

	var seq InlineSeq
	for {
		open := strings.Index(text, "**")
		if open < 0 {
			break
		}
		closing := strings.Index(text[open+2:], "**")
		if closing < 0 {
			// Unpaired opener: everything left is literal.
			break
		}
		if open > 0 {
			seq = append(seq, InlineSpan{Text: text[:open]})
		}
		if closing > 0 {
			seq = append(seq, InlineSpan{Bold: true, Text: text[open+2 : open+2+closing]})
		}
		text = text[open+2+closing+2:]
	}
	if text != "" {
		seq = append(seq, InlineSpan{Text: text})
	}
	return seq
}
