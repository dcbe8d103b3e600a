package summary

import (
	"regexp"
	"strconv"
	"strings"
)

// LineClass is the classification assigned to a single source line.
type LineClass int

const (
	ClassMainSection LineClass = iota
	ClassHeadline
	ClassSubSection
	ClassSubSectionLabeled
	ClassBullet
	ClassNumbered
	ClassBlank
	ClassParagraph
)

// ClassifiedLine is one line with its classification and extracted fields.
// Number is set for main sections and numbered items, Label for section and
// sub-section headers, Text for everything carrying inline content (for a
// main section it holds prose trailing the header colon, if any).
type ClassifiedLine struct {
	Class  LineClass
	Number int
	Label  string
	Text   string
}

var (
	// "3. Risk Assessment:" with optional trailing prose after the colon.
	mainSectionRe = regexp.MustCompile(`^(\d+)\.\s+([^:]+):\s*(.*)$`)
	// "Attendees: Alice, Bob" — label, colon, then prose on the same line.
	subLabeledRe = regexp.MustCompile(`^([^:]+):\s+(\S.*)$`)
	// "Attendees:" — the whole line is a label.
	subSectionRe = regexp.MustCompile(`^[^:]+:$`)
	// "- item". Models also emit "*" and "•" markers, and accepting "•"
	// keeps the plain-text projection re-parseable.
	bulletRe = regexp.MustCompile(`^[-*•]\s+(.+)$`)
	// "2. Verify" — numbered item (only when the main-section rule did not
	// already consume the line).
	numberedRe = regexp.MustCompile(`^(\d+)\.\s+(.+)$`)
)

// ClassifyLine assigns exactly one class to a line. Rules are evaluated in
// precedence order and the first match wins; reordering them changes which of
// two overlapping rules consumes a line (a numbered line ending in a colon
// must be a main section, never a numbered item).
func ClassifyLine(line string) ClassifiedLine {
	line = strings.TrimSpace(line)
	if line == "" {
		return ClassifiedLine{Class: ClassBlank}
	}

	if m := mainSectionRe.FindStringSubmatch(line); m != nil {
		n, _ := strconv.Atoi(m[1])
		return ClassifiedLine{
			Class:  ClassMainSection,
			Number: n,
			Label:  strings.TrimSpace(m[2]),
			Text:   strings.TrimSpace(m[3]),
		}
	}

	if inner, ok := headlineText(line); ok {
		return ClassifiedLine{Class: ClassHeadline, Text: inner}
	}

	if subSectionRe.MatchString(line) {
		return ClassifiedLine{
			Class: ClassSubSection,
			Label: strings.TrimSpace(strings.TrimSuffix(line, ":")),
		}
	}

	if m := subLabeledRe.FindStringSubmatch(line); m != nil {
		return ClassifiedLine{
			Class: ClassSubSectionLabeled,
			Label: strings.TrimSpace(m[1]),
			Text:  m[2],
		}
	}

	if m := bulletRe.FindStringSubmatch(line); m != nil {
		return ClassifiedLine{Class: ClassBullet, Text: m[1]}
	}

	if m := numberedRe.FindStringSubmatch(line); m != nil {
		n, _ := strconv.Atoi(m[1])
		return ClassifiedLine{Class: ClassNumbered, Number: n, Text: m[2]}
	}

	return ClassifiedLine{Class: ClassParagraph, Text: line}
}

// headlineText reports whether the line is a legacy "**...**" wrapped
// headline and returns the inner text. A line with more than one emphasis
// pair is inline content, not a headline.
func headlineText(line string) (string, bool) {
	if len(line) <= 4 || !strings.HasPrefix(line, "**") || !strings.HasSuffix(line, "**") {
		return "", false
	}
	inner := line[2 : len(line)-2]
	if strings.Contains(inner, "**") {
		return "", false
	}
	return strings.TrimSpace(inner), true
}
