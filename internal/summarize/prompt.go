package summarize

import (
	"fmt"
	"strings"
)

// summaryInstructions pins the output shape: numbered main sections, labeled
// sub-points, bullets, and **bold** for emphasis. The compiler downstream
// depends on this structure.
const summaryInstructions = `You are an assistant that writes structured summaries of business meetings.

Write a detailed summary of the meeting content below. Structure it exactly like this:

1. Introduction: one or two sentences on what the meeting was about and who presented.
2. Key Discussion Points: the main topics that were discussed. Use labeled sub-points ("Topic: explanation") and bullet lists ("- item") for details.
3. Action Steps: concrete follow-ups that were agreed, as a bullet list.
4. Conclusion: the overall outcome or decision.

Rules:
- Number the main sections exactly as shown ("1. Introduction:", "2. Key Discussion Points:", ...).
- Use "**bold**" to emphasize important names, dates, and figures.
- Write plain text only. No markdown headings, no code fences, no tables.
- Base the summary only on the content provided. Do not invent details.`

// BuildPrompt assembles the single-shot summarization prompt.
func BuildPrompt(content string) string {
	return summaryInstructions + "\n\nMeeting content:\n\n" + content
}

// BuildSegmentPrompt summarizes one segment of a long meeting during the map
// phase. breadcrumb locates the segment in the source material's section
// tree and may be empty (flat transcripts). The partial summaries are merged
// with BuildCombinePrompt afterwards.
func BuildSegmentPrompt(content string, breadcrumb []string, index, total int) string {
	location := ""
	if len(breadcrumb) > 0 {
		location = "\nThis part comes from the section: " + strings.Join(breadcrumb, " > ") + "."
	}
	return fmt.Sprintf(`You are summarizing part %d of %d of a long meeting.%s

Write a concise plain-text summary of this part. Capture the topics discussed, decisions made, and action items mentioned. Use "**bold**" for important names, dates, and figures. Do not number sections; this is an intermediate summary.

Meeting content (part %d of %d):

%s`, index+1, total, location, index+1, total, content)
}

// BuildCombinePrompt merges per-segment summaries into one final summary with
// the canonical section structure.
func BuildCombinePrompt(partials []string) string {
	var b strings.Builder
	b.WriteString(summaryInstructions)
	b.WriteString("\n\nThe meeting was summarized in parts. Merge the partial summaries below into one coherent summary, removing repetition:\n")
	for i, p := range partials {
		fmt.Fprintf(&b, "\n--- Part %d ---\n%s\n", i+1, p)
	}
	return b.String()
}
