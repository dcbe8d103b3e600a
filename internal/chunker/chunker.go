// Package chunker splits meeting material that exceeds the summarizer's
// context budget into overlapping segments.
package chunker

import (
	"strings"

	"github.com/mlorenz/recapd/internal/doctree"
)

// Config controls segmentation.
type Config struct {
	SegmentTokens  int // Target segment size in tokens.
	OverlapTokens  int // Overlap between consecutive segments.
	MinSegmentSize int // Minimum segment size to emit, in tokens.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SegmentTokens:  6000,
		OverlapTokens:  200,
		MinSegmentSize: 20,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SegmentTokens <= 0 {
		c.SegmentTokens = d.SegmentTokens
	}
	if c.OverlapTokens <= 0 {
		c.OverlapTokens = d.OverlapTokens
	}
	if c.MinSegmentSize <= 0 {
		c.MinSegmentSize = d.MinSegmentSize
	}
	return c
}

// SegmentMaterials walks the section tree and produces structure-aware
// segments, each tagged with the heading breadcrumb it came from.
func SegmentMaterials(mat *doctree.Materials, cfg Config) []doctree.Segment {
	cfg = cfg.withDefaults()

	var segments []doctree.Segment
	index := 0
	for _, sec := range mat.Sections {
		index = walkSection(sec, nil, cfg, &segments, index)
	}
	return segments
}

// SegmentText splits a flat transcript (no section structure) the same way.
func SegmentText(text string, cfg Config) []doctree.Segment {
	cfg = cfg.withDefaults()

	var segments []doctree.Segment
	for i, part := range splitText(text, cfg.SegmentTokens, cfg.OverlapTokens) {
		if EstimateTokens(part) < cfg.MinSegmentSize && i > 0 {
			continue
		}
		segments = append(segments, doctree.Segment{Text: part, Index: len(segments)})
	}
	return segments
}

func walkSection(sec *doctree.Section, breadcrumb []string, cfg Config, segments *[]doctree.Segment, index int) int {
	var bc []string
	bc = append(bc, breadcrumb...)
	if sec.Heading != "" {
		bc = append(bc, sec.Heading)
	}

	if sec.Text != "" {
		if EstimateTokens(sec.Text) <= cfg.SegmentTokens {
			if EstimateTokens(sec.Text) >= cfg.MinSegmentSize {
				*segments = append(*segments, doctree.Segment{
					Text:       sec.Text,
					Index:      index,
					Breadcrumb: copyBreadcrumb(bc),
					PageStart:  sec.Page,
					PageEnd:    sec.Page,
				})
				index++
			}
		} else {
			for _, part := range splitText(sec.Text, cfg.SegmentTokens, cfg.OverlapTokens) {
				if EstimateTokens(part) < cfg.MinSegmentSize {
					continue
				}
				*segments = append(*segments, doctree.Segment{
					Text:       part,
					Index:      index,
					Breadcrumb: copyBreadcrumb(bc),
					PageStart:  sec.Page,
					PageEnd:    sec.Page,
				})
				index++
			}
		}
	}

	for _, child := range sec.Children {
		index = walkSection(child, bc, cfg, segments, index)
	}
	return index
}

// splitText breaks text into parts of approximately targetTokens, preferring
// paragraph boundaries, then sentence boundaries, with overlap carried
// between consecutive parts.
func splitText(text string, targetTokens, overlapTokens int) []string {
	var result []string
	var current strings.Builder
	currentTokens := 0

	flush := func() {
		if currentTokens > 0 {
			result = append(result, current.String())
			current.Reset()
			currentTokens = 0
		}
	}

	for _, para := range splitByParagraphs(text) {
		paraTokens := EstimateTokens(para)

		// A single oversized paragraph is split by sentences.
		if paraTokens > targetTokens {
			flush()
			result = append(result, splitBySentences(para, targetTokens, overlapTokens)...)
			continue
		}

		if currentTokens+paraTokens > targetTokens && currentTokens > 0 {
			prev := current.String()
			flush()
			if overlap := overlapTail(prev, overlapTokens); overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		currentTokens += paraTokens
	}
	flush()

	return result
}

func splitByParagraphs(text string) []string {
	var result []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

func splitBySentences(text string, targetTokens, overlapTokens int) []string {
	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, sent := range splitSentences(text) {
		sentTokens := EstimateTokens(sent)
		if currentTokens+sentTokens > targetTokens && currentTokens > 0 {
			prev := current.String()
			result = append(result, prev)
			current.Reset()
			currentTokens = 0
			if overlap := overlapTail(prev, overlapTokens); overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
		currentTokens += sentTokens
	}
	if currentTokens > 0 {
		result = append(result, current.String())
	}
	return result
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, strings.TrimSpace(current.String()))
	}
	return sentences
}

// overlapTail extracts roughly the last targetTokens worth of words.
func overlapTail(text string, targetTokens int) string {
	words := strings.Fields(text)
	targetWords := int(float64(targetTokens) / tokensPerWord)
	if targetWords <= 0 || len(words) <= targetWords {
		return ""
	}
	return strings.Join(words[len(words)-targetWords:], " ")
}

func copyBreadcrumb(bc []string) []string {
	if len(bc) == 0 {
		return nil
	}
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}
