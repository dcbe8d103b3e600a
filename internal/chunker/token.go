package chunker

import "strings"

// tokensPerWord is the rough English word-to-token ratio used throughout
// segmentation.
const tokensPerWord = 1.33

// EstimateTokens gives a rough token count. Exact tokenization is not
// required for context budgeting.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	tokens := int(float64(len(strings.Fields(text))) * tokensPerWord)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
