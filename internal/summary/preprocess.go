package summary

import "strings"

// banner is the redundant title the model tends to prepend even though the
// surrounding UI already shows one.
const banner = "meeting summary"

// Preprocess normalizes line endings to LF and strips a leading banner line
// (plus the blank lines after it). The model wraps the banner in varying
// decoration ("Meeting Summary", "##Meeting Summary##", "**Meeting Summary:**"),
// so the comparison ignores case and surrounding markers. Idempotent: text
// without a banner comes back unchanged apart from newline normalization.
func Preprocess(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i >= len(lines) || !isBanner(lines[i]) {
		return text
	}
	i++
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	return strings.Join(lines[i:], "\n")
}

func isBanner(line string) bool {
	line = strings.Trim(strings.TrimSpace(line), "#*")
	line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ":"))
	return strings.EqualFold(line, banner)
}
