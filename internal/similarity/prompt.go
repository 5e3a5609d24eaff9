package similarity

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"

	SystemPrompt = "You are a text comparison assistant. You will return a ranking from 1 to 5 when comparing text. 1 will be the text is not similar. A response of 5 will mean the text is identical."
)

var disallowedChars = regexp.MustCompile(`[^A-Za-z0-9 ]`)

// NormalizeText drops everything outside [A-Za-z0-9 ] and lower-cases the rest.
func NormalizeText(s string) string {
	return strings.ToLower(disallowedChars.ReplaceAllString(s, ""))
}

// UserPrompt embeds both texts in the fixed comparison template.
func UserPrompt(text1, text2 string) string {
	return fmt.Sprintf("Compare the following two sentences:\n1. %s\n2. %s\nSimilarity:", text1, text2)
}

// BuildRequest returns the chat request: one system instruction then one user message.
func BuildRequest(model string, maxTokens int, text1, text2 string) ComparisonRequest {
	return ComparisonRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Messages: []Message{
			{Role: RoleSystem, Content: SystemPrompt},
			{Role: RoleUser, Content: UserPrompt(text1, text2)},
		},
	}
}

// BuildLegacyRequest folds the instruction into the single prompt.
func BuildLegacyRequest(model string, maxTokens int, text1, text2 string) LegacyCompletionRequest {
	return LegacyCompletionRequest{
		Model:     model,
		Prompt:    SystemPrompt + "\n\n" + UserPrompt(text1, text2),
		MaxTokens: maxTokens,
		N:         1,
	}
}
