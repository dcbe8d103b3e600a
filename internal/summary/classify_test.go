package summary

import "testing"

func TestClassifyLine_Precedence(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		class  LineClass
		number int
		label  string
		text   string
	}{
		{
			name:   "main section",
			line:   "3. Risk Assessment:",
			class:  ClassMainSection,
			number: 3,
			label:  "Risk Assessment",
		},
		{
			name:   "main section with trailing prose",
			line:   "1. Overview: This meeting covered budget.",
			class:  ClassMainSection,
			number: 1,
			label:  "Overview",
			text:   "This meeting covered budget.",
		},
		{
			// A numbered line ending in a colon is a main section, never a
			// numbered item.
			name:   "numbered line ending in colon",
			line:   "2. Security Risks:",
			class:  ClassMainSection,
			number: 2,
			label:  "Security Risks",
		},
		{
			name:  "legacy headline",
			line:  "**Key Point**",
			class: ClassHeadline,
			text:  "Key Point",
		},
		{
			name:  "standalone label",
			line:  "Attendees:",
			class: ClassSubSection,
			label: "Attendees",
		},
		{
			name:  "label with trailing prose",
			line:  "Attendees: Alice, Bob",
			class: ClassSubSectionLabeled,
			label: "Attendees",
			text:  "Alice, Bob",
		},
		{
			name:  "bullet dash",
			line:  "- Increase headcount",
			class: ClassBullet,
			text:  "Increase headcount",
		},
		{
			name:  "bullet dot",
			line:  "• Increase headcount",
			class: ClassBullet,
			text:  "Increase headcount",
		},
		{
			name:  "bullet star",
			line:  "* Increase headcount",
			class: ClassBullet,
			text:  "Increase headcount",
		},
		{
			name:   "numbered item",
			line:   "2. Verify",
			class:  ClassNumbered,
			number: 2,
			text:   "Verify",
		},
		{
			name:  "blank",
			line:  "   ",
			class: ClassBlank,
		},
		{
			name:  "paragraph fallback",
			line:  "All systems nominal.",
			class: ClassParagraph,
			text:  "All systems nominal.",
		},
		{
			// Only the first colon splits label from prose.
			name:  "multiple colons",
			line:  "Decision: ship v2: yes",
			class: ClassSubSectionLabeled,
			label: "Decision",
			text:  "ship v2: yes",
		},
		{
			// A line with two emphasis pairs is inline content, not a
			// headline.
			name:  "double emphasis is not a headline",
			line:  "**alpha** and **beta**",
			class: ClassParagraph,
			text:  "**alpha** and **beta**",
		},
		{
			name:  "inline bold mid-line",
			line:  "We agreed on **both** items",
			class: ClassParagraph,
			text:  "We agreed on **both** items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyLine(tt.line)
			if got.Class != tt.class {
				t.Fatalf("class: expected %d, got %d", tt.class, got.Class)
			}
			if got.Number != tt.number {
				t.Errorf("number: expected %d, got %d", tt.number, got.Number)
			}
			if got.Label != tt.label {
				t.Errorf("label: expected %q, got %q", tt.label, got.Label)
			}
			if got.Text != tt.text {
				t.Errorf("text: expected %q, got %q", tt.text, got.Text)
			}
		})
	}
}

func TestClassifyLine_TotalOverArbitraryInput(t *testing.T) {
	// Classification never fails; any non-blank garbage lands somewhere.
	lines := []string{
		"::::",
		"**",
		"****",
		"-",
		"9.",
		"<script>alert(1)</script>",
		"\x00\x01\x02",
	}
	for _, line := range lines {
		got := ClassifyLine(line)
		if got.Class == ClassBlank {
			t.Errorf("line %q: expected non-blank classification", line)
		}
	}
}
